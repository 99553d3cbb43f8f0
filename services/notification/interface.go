package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autoshop/models"
)

// Mailer delivers one notification to its recipient.
type Mailer interface {
	Send(ctx context.Context, n models.Notification) error
}

// NotificationService defines the customer-facing messages the shop sends.
type NotificationService interface {
	SendBookingConfirmation(ctx context.Context, customer models.Customer, record models.BookingRecord, quote float64) error
	SendDecision(ctx context.Context, record models.BookingRecord) error
	SendReminder(ctx context.Context, payload models.ReminderPayload) error
}

var errNoRecipient = errors.New("no recipient email on booking")

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	mailer Mailer
	logger *zap.Logger
}

func NewDefaultNotificationService(mailer Mailer, logger *zap.Logger) (*DefaultNotificationService, error) {
	if mailer == nil {
		return nil, fmt.Errorf("notification service initialization error: mailer is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{mailer: mailer, logger: logger}, nil
}

// SendBookingConfirmation tells the customer their request was received, with the quote.
func (s *DefaultNotificationService) SendBookingConfirmation(
	ctx context.Context,
	customer models.Customer,
	record models.BookingRecord,
	quote float64,
) error {
	if customer.Email == "" {
		return &models.ExternalServiceError{Service: "notifier", Err: errNoRecipient}
	}
	subject, body := bookingReceivedMessage(customer.Name, record, quote)
	return s.deliver(ctx, models.Notification{
		Type:    models.NotificationBookingReceived,
		To:      customer.Email,
		Subject: subject,
		Body:    body,
		Data: map[string]string{
			"date":     record.Date,
			"timeSlot": record.TimeSlot,
			"quote":    fmt.Sprintf("%.2f", quote),
		},
	})
}

// SendDecision tells the customer the shop accepted or denied their booking.
func (s *DefaultNotificationService) SendDecision(ctx context.Context, record models.BookingRecord) error {
	if record.CustomerEmail == "" {
		return &models.ExternalServiceError{Service: "notifier", Err: errNoRecipient}
	}
	subject, body := decisionMessage(record)
	return s.deliver(ctx, models.Notification{
		Type:    models.NotificationBookingDecision,
		To:      record.CustomerEmail,
		Subject: subject,
		Body:    body,
		Data: map[string]string{
			"date":     record.Date,
			"timeSlot": record.TimeSlot,
			"status":   string(record.Status),
		},
	})
}

func (s *DefaultNotificationService) SendReminder(ctx context.Context, payload models.ReminderPayload) error {
	if payload.Email == "" {
		return &models.ExternalServiceError{Service: "notifier", Err: errNoRecipient}
	}
	subject, body := reminderMessage(payload)
	return s.deliver(ctx, models.Notification{
		Type:    models.NotificationReminder,
		To:      payload.Email,
		Subject: subject,
		Body:    body,
		Data: map[string]string{
			"date":     payload.Date,
			"timeSlot": payload.TimeSlot,
		},
	})
}

func (s *DefaultNotificationService) deliver(ctx context.Context, n models.Notification) error {
	n.ID = uuid.New().String()
	n.CreatedAt = time.Now().UTC()
	if err := s.mailer.Send(ctx, n); err != nil {
		s.logger.Warn("notification delivery failed",
			zap.String("type", n.Type), zap.String("to", n.To), zap.Error(err))
		return &models.ExternalServiceError{Service: "notifier", Err: err}
	}
	s.logger.Info("notification sent", zap.String("type", n.Type), zap.String("id", n.ID))
	return nil
}
