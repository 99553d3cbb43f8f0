package models

const (
	ResolvedYes = "Yes"
	ResolvedNo  = "No"
)

// FeedbackRecord is a customer's note about a finished repair.
type FeedbackRecord struct {
	CustomerName  string `json:"name" binding:"required"`
	CustomerEmail string `json:"email" binding:"required,email"`
	Date          string `json:"date" binding:"required"`
	TimeSlot      string `json:"timeSlot" binding:"required"`
	Resolved      string `json:"resolved" binding:"required,oneof=Yes No"`
	Comments      string `json:"comments"`
}
