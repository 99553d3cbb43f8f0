package booking

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"autoshop/models"
	"autoshop/services/events"
)

// SubmitFeedback stores a customer's feedback about a booking they made.
func (s *DefaultBookingService) SubmitFeedback(ctx context.Context, fb models.FeedbackRecord) error {
	if s.Feedback == nil {
		return errors.New("feedback store not configured")
	}
	if err := validateCustomer(models.Customer{Name: fb.CustomerName, Email: fb.CustomerEmail}); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(fb.Resolved)) {
	case "yes":
		fb.Resolved = models.ResolvedYes
	case "no":
		fb.Resolved = models.ResolvedNo
	default:
		return &models.ValidationError{Field: "resolved", Message: "must be Yes or No"}
	}

	entries, err := s.Ledger.List(ctx)
	if err != nil {
		return err
	}
	if !hasBooking(entries, fb) {
		return &models.NotFoundError{Resource: "booking", Key: fb.CustomerEmail + " " + fb.Date + " " + fb.TimeSlot}
	}

	if err := s.Feedback.Append(ctx, fb); err != nil {
		s.Logger.Error("failed to store feedback", zap.Error(err))
		return err
	}
	if err := s.Events.PublishJSON(ctx, events.RKFeedbackSubmitted, fb); err != nil {
		s.Logger.Warn("failed to publish feedback event", zap.Error(err))
	}
	return nil
}

func (s *DefaultBookingService) ListFeedback(ctx context.Context) ([]models.FeedbackRecord, error) {
	if s.Feedback == nil {
		return []models.FeedbackRecord{}, nil
	}
	return s.Feedback.List(ctx)
}

// hasBooking matches on email, or on name for records written before emails were kept.
func hasBooking(entries []models.LedgerEntry, fb models.FeedbackRecord) bool {
	probe := models.BookingRecord{Date: fb.Date, TimeSlot: fb.TimeSlot}
	for _, e := range entries {
		if !e.Record.SameSlot(probe) {
			continue
		}
		if e.Record.CustomerEmail != "" {
			if strings.EqualFold(e.Record.CustomerEmail, strings.TrimSpace(fb.CustomerEmail)) {
				return true
			}
			continue
		}
		if strings.EqualFold(e.Record.CustomerName, strings.TrimSpace(fb.CustomerName)) {
			return true
		}
	}
	return false
}
