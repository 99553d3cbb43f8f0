package models

import "time"

// Notification is an outgoing message to a customer.
type Notification struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	To        string            `json:"to"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

const (
	NotificationBookingReceived = "booking_received"
	NotificationBookingDecision = "booking_decision"
	NotificationReminder        = "appointment_reminder"
)

// ReminderPayload carries what the reminder worker needs to mail a customer.
type ReminderPayload struct {
	RecordID RecordID `json:"recordId"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Date     string   `json:"date"`
	TimeSlot string   `json:"timeSlot"`
}
