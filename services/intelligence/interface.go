package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"autoshop/models"
)

// ErrNotConfigured is returned by a completer that has no provider behind it.
var ErrNotConfigured = errors.New("diagnosis provider not configured")

// ChatCompleter turns an ordered conversation into the assistant's next reply.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// Exchange is the outcome of one diagnosis turn. Transcript always ends with the user's
// turn, followed by the reply when one was received.
type Exchange struct {
	Transcript       []models.ChatMessage
	Reply            string
	RecommendsRepair bool
}

// Diagnostician runs the conversation about a customer's car.
type Diagnostician interface {
	Begin(ctx context.Context, vehicle *models.VehicleInfo, fault *models.FaultCodeDescription) (Exchange, error)
	Continue(ctx context.Context, transcript []models.ChatMessage, text string) (Exchange, error)
}

type DefaultDiagnostician struct {
	completer ChatCompleter
	timeout   time.Duration
	logger    *zap.Logger
}

func NewDiagnostician(completer ChatCompleter, timeout time.Duration, logger *zap.Logger) (*DefaultDiagnostician, error) {
	if completer == nil {
		return nil, errors.New("diagnostician requires a chat completer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultDiagnostician{completer: completer, timeout: timeout, logger: logger}, nil
}

// Begin opens the conversation with the vehicle details and, when known, the fault code text.
func (d *DefaultDiagnostician) Begin(ctx context.Context, vehicle *models.VehicleInfo, fault *models.FaultCodeDescription) (Exchange, error) {
	if vehicle == nil {
		return Exchange{}, &models.ValidationError{Field: "vehicle", Message: "is required"}
	}
	transcript := []models.ChatMessage{
		{Role: models.RoleSystem, Content: systemPrompt},
		{Role: models.RoleUser, Content: InitialPrompt(vehicle, fault)},
	}
	return d.exchange(ctx, transcript)
}

// Continue adds a follow-up question to an existing transcript.
func (d *DefaultDiagnostician) Continue(ctx context.Context, transcript []models.ChatMessage, text string) (Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Exchange{}, &models.ValidationError{Field: "message", Message: "is required"}
	}
	next := make([]models.ChatMessage, 0, len(transcript)+2)
	if len(transcript) == 0 || transcript[0].Role != models.RoleSystem {
		next = append(next, models.ChatMessage{Role: models.RoleSystem, Content: systemPrompt})
	}
	next = append(next, transcript...)
	next = append(next, models.ChatMessage{Role: models.RoleUser, Content: text})
	return d.exchange(ctx, next)
}

func (d *DefaultDiagnostician) exchange(ctx context.Context, transcript []models.ChatMessage) (Exchange, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	started := time.Now()
	reply, err := d.completer.Complete(ctx, transcript)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		d.logger.Warn("diagnosis call failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return Exchange{Transcript: transcript}, &models.ExternalServiceError{Service: "diagnosis", Err: err}
	}

	transcript = append(transcript, models.ChatMessage{Role: models.RoleAssistant, Content: reply})
	d.logger.Debug("diagnosis reply received", zap.Duration("elapsed", time.Since(started)), zap.Int("turns", len(transcript)))
	return Exchange{
		Transcript:       transcript,
		Reply:            reply,
		RecommendsRepair: RecommendsShopRepair(reply),
	}, nil
}

// UnavailableCompleter fails every call. It stands in when no provider key is configured.
type UnavailableCompleter struct{}

func (UnavailableCompleter) Complete(context.Context, []models.ChatMessage) (string, error) {
	return "", ErrNotConfigured
}

func describeVehicle(v *models.VehicleInfo) string {
	return fmt.Sprintf("%s %s %s", strings.TrimSpace(v.Year), strings.TrimSpace(v.Make), strings.TrimSpace(v.Model))
}
