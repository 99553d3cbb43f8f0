package models

import (
	"strings"
)

// BookingStatus is the approval state of a ledger record.
type BookingStatus string

const (
	StatusPending  BookingStatus = "Pending"
	StatusAccepted BookingStatus = "Accepted"
	StatusDenied   BookingStatus = "Denied"
)

// ParseBookingStatus accepts any casing of a known status.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, true
	case "accepted":
		return StatusAccepted, true
	case "denied":
		return StatusDenied, true
	}
	return "", false
}

// RecordID is the position of a record in the ledger's insertion order.
type RecordID int

// BookingRecord is one submitted booking request.
type BookingRecord struct {
	CustomerName   string        `bson:"name" json:"name"`
	CustomerEmail  string        `bson:"email" json:"email"`
	Date           string        `bson:"date" json:"date"`
	TimeSlot       string        `bson:"timeSlot" json:"timeSlot"`
	Status         BookingStatus `bson:"status" json:"status"`
	HourlyRate     float64       `bson:"laborRate" json:"laborRate"`
	EstimatedHours float64       `bson:"estimatedHours" json:"estimatedHours"`
}

// SameSlot reports whether both records target the same date and time range.
func (r BookingRecord) SameSlot(o BookingRecord) bool {
	return strings.TrimSpace(r.Date) == strings.TrimSpace(o.Date) &&
		strings.TrimSpace(r.TimeSlot) == strings.TrimSpace(o.TimeSlot)
}

// LedgerEntry pairs a record with its identity in the ledger.
type LedgerEntry struct {
	ID     RecordID      `json:"id"`
	Record BookingRecord `json:"record"`
}

// Customer is who a booking is made for.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookingConfirmation is returned to the customer after a booking is written.
type BookingConfirmation struct {
	ID          RecordID      `json:"id"`
	Record      BookingRecord `json:"record"`
	Quote       float64       `json:"quote"`
	QuoteText   string        `json:"quoteText"`
	Notified    bool          `json:"notified"`
	NotifyError string        `json:"notifyError,omitempty"`
}

// BookingView is a ledger entry as shown in the shop booking manager.
type BookingView struct {
	ID             RecordID      `json:"id"`
	CustomerName   string        `json:"name"`
	CustomerEmail  string        `json:"email,omitempty"`
	Date           string        `json:"date"`
	TimeSlot       string        `json:"timeSlot"`
	Status         BookingStatus `json:"status"`
	HourlyRate     float64       `json:"laborRate"`
	EstimatedHours float64       `json:"estimatedHours"`
	Quote          float64       `json:"quote"`
	QuoteText      string        `json:"quoteText"`
}
