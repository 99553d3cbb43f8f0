package models

// Chat roles understood by the diagnosis provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a diagnosis conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// VehicleInfo describes the car and the problem the customer reports.
type VehicleInfo struct {
	Year      string `json:"year" binding:"required"`
	Make      string `json:"make" binding:"required"`
	Model     string `json:"model" binding:"required"`
	Issue     string `json:"issue" binding:"required"`
	FaultCode string `json:"faultCode,omitempty"` // e.g. "P0171"
}

// FaultCodeDescription is the reference text for a diagnostic trouble code.
type FaultCodeDescription struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Found       bool   `json:"found"`
}
