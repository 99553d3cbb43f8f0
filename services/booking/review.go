package booking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"autoshop/models"
	"autoshop/services/events"
)

// All returns every ledger record, oldest first.
func (s *DefaultReviewService) All(ctx context.Context) ([]models.BookingView, error) {
	entries, err := s.Ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]models.BookingView, 0, len(entries))
	for _, e := range entries {
		views = append(views, toView(e))
	}
	return views, nil
}

// Pending returns only records awaiting a decision, in ledger order.
func (s *DefaultReviewService) Pending(ctx context.Context) ([]models.BookingView, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]models.BookingView, 0, len(all))
	for _, v := range all {
		if v.Status == models.StatusPending {
			pending = append(pending, v)
		}
	}
	return pending, nil
}

func (s *DefaultReviewService) Accept(ctx context.Context, id models.RecordID) (*models.BookingView, error) {
	return s.decide(ctx, id, models.StatusAccepted)
}

func (s *DefaultReviewService) Deny(ctx context.Context, id models.RecordID) (*models.BookingView, error) {
	return s.decide(ctx, id, models.StatusDenied)
}

// decide moves a Pending record to the target status. Repeating the same decision is a
// no-op that returns the record unchanged and sends nothing.
func (s *DefaultReviewService) decide(ctx context.Context, id models.RecordID, target models.BookingStatus) (*models.BookingView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	var current *models.LedgerEntry
	for i := range entries {
		if entries[i].ID == id {
			current = &entries[i]
			break
		}
	}
	if current == nil {
		return nil, &models.NotFoundError{Resource: "booking", Key: fmt.Sprint(int(id))}
	}

	switch current.Record.Status {
	case target:
		v := toView(*current)
		return &v, nil
	case models.StatusPending:
	default:
		return nil, fmt.Errorf("%w: record %d is %s", ErrInvalidStatusTransition, id, current.Record.Status)
	}

	if target == models.StatusAccepted {
		for _, e := range entries {
			if e.ID != id && e.Record.Status == models.StatusAccepted && e.Record.SameSlot(current.Record) {
				return nil, fmt.Errorf("%w: %s %s", ErrSlotConflict, current.Record.Date, current.Record.TimeSlot)
			}
		}
	}

	if err := s.Ledger.UpdateStatus(ctx, id, target); err != nil {
		s.Logger.Error("failed to update booking status", zap.Int("id", int(id)), zap.Error(err))
		return nil, err
	}
	updated := *current
	updated.Record.Status = target
	s.Logger.Info("booking decided", zap.Int("id", int(id)), zap.String("status", string(target)))

	s.afterDecision(ctx, updated)
	v := toView(updated)
	return &v, nil
}

// afterDecision runs the side effects of a decision. None of them can undo it.
func (s *DefaultReviewService) afterDecision(ctx context.Context, e models.LedgerEntry) {
	if e.Record.CustomerEmail != "" {
		if err := s.Notifier.SendDecision(ctx, e.Record); err != nil {
			s.Logger.Warn("decision email not delivered", zap.Int("id", int(e.ID)), zap.Error(err))
		}
	}
	publish(ctx, s.Events, s.Logger, events.KeyForStatus(e.Record.Status), e.ID, e.Record)

	if e.Record.Status != models.StatusAccepted || e.Record.CustomerEmail == "" {
		return
	}
	start, ok := SlotStart(e.Record.Date, e.Record.TimeSlot)
	if !ok {
		s.Logger.Warn("cannot schedule reminder for unparsable slot",
			zap.String("date", e.Record.Date), zap.String("timeSlot", e.Record.TimeSlot))
		return
	}
	payload := models.ReminderPayload{
		RecordID: e.ID,
		Name:     e.Record.CustomerName,
		Email:    e.Record.CustomerEmail,
		Date:     e.Record.Date,
		TimeSlot: e.Record.TimeSlot,
	}
	if err := s.Reminders.ScheduleReminder(ctx, payload, start); err != nil {
		s.Logger.Warn("failed to schedule reminder", zap.Int("id", int(e.ID)), zap.Error(err))
	}
}

// CalendarEvents renders the ledger for the shop calendar. Records whose slot cannot be
// parsed are left out.
func (s *DefaultReviewService) CalendarEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	entries, err := s.Ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.CalendarEvent, 0, len(entries))
	for _, e := range entries {
		start, end, ok := SlotRange(e.Record.Date, e.Record.TimeSlot)
		if !ok {
			s.Logger.Warn("skipping unparsable slot in calendar",
				zap.Int("id", int(e.ID)), zap.String("date", e.Record.Date), zap.String("timeSlot", e.Record.TimeSlot))
			continue
		}
		out = append(out, models.CalendarEvent{
			ID:     e.ID,
			Title:  fmt.Sprintf("%s (%s)", e.Record.CustomerName, e.Record.Status),
			Start:  start,
			End:    end,
			Color:  statusColor(e.Record.Status),
			Status: e.Record.Status,
		})
	}
	return out, nil
}
