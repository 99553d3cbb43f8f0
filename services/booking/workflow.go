package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autoshop/models"
	"autoshop/services/events"
)

const notifyFailedNotice = "Your booking was saved, but we could not send the confirmation email."

// AvailableSlots lists schedule slots marked available that no accepted booking already holds.
func (s *DefaultBookingService) AvailableSlots(ctx context.Context) ([]models.SlotOption, error) {
	slots, err := s.Schedule.Available(ctx)
	if err != nil {
		return nil, err
	}

	// The schedule file is static; a ledger read failure only weakens the cross-check.
	entries, err := s.Ledger.List(ctx)
	if err != nil {
		s.Logger.Warn("ledger unreadable while filtering slots", zap.Error(err))
		entries = nil
	}

	out := make([]models.SlotOption, 0, len(slots))
	for _, slot := range slots {
		if acceptedIn(entries, slot.Date, slot.TimeSlot) {
			continue
		}
		out = append(out, models.SlotOption{Label: slot.Label(), Slot: slot})
	}
	return out, nil
}

func acceptedIn(entries []models.LedgerEntry, date, timeSlot string) bool {
	probe := models.BookingRecord{Date: date, TimeSlot: timeSlot}
	for _, e := range entries {
		if e.Record.Status == models.StatusAccepted && e.Record.SameSlot(probe) {
			return true
		}
	}
	return false
}

// ConfirmBooking books the slot chosen by its label, writes a Pending ledger record and
// notifies the customer. A failed notification never undoes the booking.
func (s *DefaultBookingService) ConfirmBooking(
	ctx context.Context,
	customer models.Customer,
	vehicle *models.VehicleInfo,
	slotLabel string,
) (*models.BookingConfirmation, error) {
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}
	options, err := s.AvailableSlots(ctx)
	if err != nil {
		return nil, err
	}

	label := strings.TrimSpace(slotLabel)
	var chosen *models.Slot
	for i := range options {
		if options[i].Label == label {
			chosen = &options[i].Slot
			break
		}
	}
	if chosen == nil {
		return nil, &models.NotFoundError{Resource: "slot", Key: label}
	}

	hours := s.Estimator.EstimateHours(vehicle)
	record := models.BookingRecord{
		CustomerName:   strings.TrimSpace(customer.Name),
		CustomerEmail:  strings.TrimSpace(customer.Email),
		Date:           chosen.Date,
		TimeSlot:       chosen.TimeSlot,
		Status:         models.StatusPending,
		HourlyRate:     s.LaborRate,
		EstimatedHours: hours,
	}
	id, err := s.Ledger.Append(ctx, record)
	if err != nil {
		s.Logger.Error("failed to write booking", zap.Error(err))
		return nil, err
	}

	quote := Quote(hours, s.LaborRate)
	conf := &models.BookingConfirmation{
		ID:        id,
		Record:    record,
		Quote:     quote,
		QuoteText: FormatQuote(quote),
	}
	s.Logger.Info("booking created",
		zap.Int("id", int(id)), zap.String("date", record.Date), zap.String("timeSlot", record.TimeSlot),
		zap.Float64("hours", hours), zap.Float64("quote", quote))

	if err := s.Notifier.SendBookingConfirmation(ctx, customer, record, quote); err != nil {
		s.Logger.Warn("booking confirmation not delivered", zap.Int("id", int(id)), zap.Error(err))
		conf.NotifyError = notifyFailedNotice
	} else {
		conf.Notified = true
	}

	publish(ctx, s.Events, s.Logger, events.RKBookingCreated, id, record)
	return conf, nil
}

func publish(ctx context.Context, pub events.Publisher, logger *zap.Logger, key string, id models.RecordID, rec models.BookingRecord) {
	ev := events.BookingEvent{
		EventID:    uuid.New().String(),
		RecordID:   id,
		Name:       rec.CustomerName,
		Email:      rec.CustomerEmail,
		Date:       rec.Date,
		TimeSlot:   rec.TimeSlot,
		Status:     rec.Status,
		Quote:      Quote(rec.EstimatedHours, rec.HourlyRate),
		OccurredAt: time.Now().UTC(),
	}
	if err := pub.PublishJSON(ctx, key, ev); err != nil {
		logger.Warn("failed to publish booking event", zap.String("key", key), zap.Error(err))
	}
}
