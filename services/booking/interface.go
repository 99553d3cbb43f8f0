package booking

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	feedbackRepo "autoshop/database/repository/feedback"
	ledgerRepo "autoshop/database/repository/ledger"
	scheduleRepo "autoshop/database/repository/schedule"
	"autoshop/models"
	"autoshop/services/events"
	"autoshop/services/notification"
	"autoshop/services/tasks"
)

// BookingService is the customer side: picking a slot, booking it, leaving feedback.
type BookingService interface {
	AvailableSlots(ctx context.Context) ([]models.SlotOption, error)
	ConfirmBooking(ctx context.Context, customer models.Customer, vehicle *models.VehicleInfo, slotLabel string) (*models.BookingConfirmation, error)
	SubmitFeedback(ctx context.Context, fb models.FeedbackRecord) error
	ListFeedback(ctx context.Context) ([]models.FeedbackRecord, error)
}

// ReviewService is the shop side: deciding on pending bookings.
type ReviewService interface {
	All(ctx context.Context) ([]models.BookingView, error)
	Pending(ctx context.Context) ([]models.BookingView, error)
	Accept(ctx context.Context, id models.RecordID) (*models.BookingView, error)
	Deny(ctx context.Context, id models.RecordID) (*models.BookingView, error)
	CalendarEvents(ctx context.Context) ([]models.CalendarEvent, error)
}

// Deps are the collaborators shared by the booking and review services.
type Deps struct {
	Ledger    ledgerRepo.LedgerRepository
	Schedule  scheduleRepo.ScheduleRepository
	Feedback  feedbackRepo.FeedbackRepository
	Estimator Estimator
	Notifier  notification.NotificationService
	Events    events.Publisher
	Reminders tasks.ReminderScheduler
	LaborRate float64
	Logger    *zap.Logger
}

func (d *Deps) fillDefaults() {
	if d.Estimator == nil {
		d.Estimator = NewNaiveEstimator(nil)
	}
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	if d.Reminders == nil {
		d.Reminders = tasks.NopReminderScheduler{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Deps
}

// DefaultReviewService implements ReviewService.
type DefaultReviewService struct {
	Deps
	mu sync.Mutex // serializes decisions so the one-accepted-per-slot check holds
}

func NewBookingService(d Deps) (*DefaultBookingService, error) {
	if d.Ledger == nil || d.Schedule == nil || d.Notifier == nil {
		return nil, errors.New("booking service requires ledger, schedule and notifier")
	}
	if d.LaborRate <= 0 {
		return nil, errors.New("booking service requires a positive labor rate")
	}
	d.fillDefaults()
	return &DefaultBookingService{Deps: d}, nil
}

func NewReviewService(d Deps) (*DefaultReviewService, error) {
	if d.Ledger == nil || d.Notifier == nil {
		return nil, errors.New("review service requires ledger and notifier")
	}
	d.fillDefaults()
	return &DefaultReviewService{Deps: d}, nil
}

func validateCustomer(c models.Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return &models.ValidationError{Field: "name", Message: "is required"}
	}
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return &models.ValidationError{Field: "email", Message: "is required"}
	}
	if at := strings.Index(email, "@"); at < 1 || at == len(email)-1 {
		return &models.ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}

func toView(e models.LedgerEntry) models.BookingView {
	q := Quote(e.Record.EstimatedHours, e.Record.HourlyRate)
	return models.BookingView{
		ID:             e.ID,
		CustomerName:   e.Record.CustomerName,
		CustomerEmail:  e.Record.CustomerEmail,
		Date:           e.Record.Date,
		TimeSlot:       e.Record.TimeSlot,
		Status:         e.Record.Status,
		HourlyRate:     e.Record.HourlyRate,
		EstimatedHours: e.Record.EstimatedHours,
		Quote:          q,
		QuoteText:      FormatQuote(q),
	}
}
