package events

import (
	"context"
	"time"

	"autoshop/models"
)

// Routing keys for booking lifecycle events.
const (
	RKBookingCreated    = "booking.created"
	RKBookingAccepted   = "booking.accepted"
	RKBookingDenied     = "booking.denied"
	RKFeedbackSubmitted = "feedback.submitted"
)

// Publisher sends events to whoever else in the shop cares about bookings.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
	Close() error
}

// BookingEvent carries enough of a booking for downstream consumers.
type BookingEvent struct {
	EventID    string               `json:"event_id"`
	RecordID   models.RecordID      `json:"record_id"`
	Name       string               `json:"name"`
	Email      string               `json:"email,omitempty"`
	Date       string               `json:"date"`
	TimeSlot   string               `json:"time_slot"`
	Status     models.BookingStatus `json:"status"`
	Quote      float64              `json:"quote"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// KeyForStatus maps a decided status to its routing key.
func KeyForStatus(st models.BookingStatus) string {
	switch st {
	case models.StatusAccepted:
		return RKBookingAccepted
	case models.StatusDenied:
		return RKBookingDenied
	}
	return RKBookingCreated
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishJSON(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                                   { return nil }
