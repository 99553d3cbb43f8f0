package models

import "time"

// SessionState is where a customer is in the booking conversation.
type SessionState string

const (
	StateCollectingIdentity    SessionState = "collecting_identity"
	StateCollectingVehicleInfo SessionState = "collecting_vehicle_info"
	StateDiagnosing            SessionState = "diagnosing"
	StateChatting              SessionState = "chatting"
	StateSelectingSlot         SessionState = "selecting_slot"
	StateConfirming            SessionState = "confirming"
	StateBooked                SessionState = "booked"
)

// CustomerSession is the typed state of one connected customer.
type CustomerSession struct {
	ID                string                `json:"id"`
	State             SessionState          `json:"state"`
	Customer          Customer              `json:"customer"`
	Vehicle           *VehicleInfo          `json:"vehicle,omitempty"`
	FaultCode         *FaultCodeDescription `json:"faultCode,omitempty"`
	Transcript        []ChatMessage         `json:"transcript"`
	RepairRecommended bool                  `json:"repairRecommended"`
	SelectedSlot      string                `json:"selectedSlot,omitempty"`
	LastBooking       *BookingConfirmation  `json:"lastBooking,omitempty"`
	Notice            string                `json:"notice,omitempty"` // non-fatal message for the customer
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

// SessionView is what a customer sees after each action.
type SessionView struct {
	Session     *CustomerSession `json:"session"`
	Slots       []SlotOption     `json:"slots,omitempty"`
	LastReply   string           `json:"lastReply,omitempty"`
	CanBookSlot bool             `json:"canBookSlot"`
}
