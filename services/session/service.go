package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autoshop/models"
	"autoshop/services/faultcode"
	"autoshop/services/intelligence"
)

const (
	noticeDiagnosisDown = "We could not reach the diagnosis assistant. You can keep chatting or book a repair slot."
	noticeSlotGone      = "That slot is no longer available. Please choose another one."
	noticeBookingFailed = "We could not save your booking. Please try again."
	noticeSlotsDown     = "We could not load the shop schedule right now."
)

// Booker is the part of the booking workflow a session drives.
type Booker interface {
	AvailableSlots(ctx context.Context) ([]models.SlotOption, error)
	ConfirmBooking(ctx context.Context, customer models.Customer, vehicle *models.VehicleInfo, slotLabel string) (*models.BookingConfirmation, error)
}

// Action is one customer request against a session.
type Action struct {
	Event     Event
	Customer  *models.Customer
	Vehicle   *models.VehicleInfo
	Message   string
	SlotLabel string
}

type Service interface {
	Start(ctx context.Context) (*models.SessionView, error)
	View(ctx context.Context, id string) (*models.SessionView, error)
	Dispatch(ctx context.Context, id string, action Action) (*models.SessionView, error)
	End(ctx context.Context, id string) error
}

type DefaultService struct {
	store    Store
	booker   Booker
	diag     intelligence.Diagnostician
	faults   faultcode.Service
	logger   *zap.Logger
	now      func() time.Time
	sessLock sync.Map // id -> *sync.Mutex
}

func NewService(store Store, booker Booker, diag intelligence.Diagnostician, faults faultcode.Service, logger *zap.Logger) (*DefaultService, error) {
	if store == nil || booker == nil || diag == nil {
		return nil, errors.New("session service requires store, booker and diagnostician")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultService{store: store, booker: booker, diag: diag, faults: faults, logger: logger, now: time.Now}, nil
}

func (s *DefaultService) Start(ctx context.Context) (*models.SessionView, error) {
	now := s.now().UTC()
	sess := &models.CustomerSession{
		ID:         uuid.New().String(),
		State:      models.StateCollectingIdentity,
		Transcript: []models.ChatMessage{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Debug("session started", zap.String("session", sess.ID))
	return s.view(ctx, sess), nil
}

func (s *DefaultService) View(ctx context.Context, id string) (*models.SessionView, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, sess), nil
}

func (s *DefaultService) End(ctx context.Context, id string) error {
	s.sessLock.Delete(id)
	return s.store.Delete(ctx, id)
}

// Dispatch applies one action: it checks the transition, runs the side effects, and saves
// the session. Failures of the diagnosis provider, the notifier, or a slot that has gone
// are reported in the session notice rather than as errors.
func (s *DefaultService) Dispatch(ctx context.Context, id string, action Action) (*models.SessionView, error) {
	mu, _ := s.sessLock.LoadOrStore(id, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if models.IsNotFound(err) {
			// Expired or unknown sessions keep no lock behind.
			s.sessLock.Delete(id)
		}
		return nil, err
	}
	if _, err := Next(sess.State, action.Event); err != nil {
		return nil, err
	}
	sess.Notice = ""

	var slots []models.SlotOption
	switch action.Event {
	case EventSubmitIdentity:
		err = s.submitIdentity(sess, action.Customer)
	case EventSubmitVehicle:
		err = s.submitVehicle(ctx, sess, action.Vehicle)
	case EventSendMessage:
		err = s.sendMessage(ctx, sess, action.Message)
	case EventRequestSlots, EventNewBooking:
		sess.SelectedSlot = ""
		err = apply(sess, action.Event)
	case EventSelectSlot:
		slots, err = s.selectSlot(ctx, sess, action.SlotLabel)
	case EventCancelSelection:
		sess.SelectedSlot = ""
		err = apply(sess, action.Event)
	case EventConfirmSlot:
		err = s.confirm(ctx, sess)
	default:
		err = ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	sess.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Debug("session advanced",
		zap.String("session", sess.ID), zap.String("event", string(action.Event)), zap.String("state", string(sess.State)))

	return s.viewWithSlots(ctx, sess, slots), nil
}

func apply(sess *models.CustomerSession, ev Event) error {
	to, err := Next(sess.State, ev)
	if err != nil {
		return err
	}
	sess.State = to
	return nil
}

func (s *DefaultService) submitIdentity(sess *models.CustomerSession, c *models.Customer) error {
	if c == nil {
		return &models.ValidationError{Field: "customer", Message: "is required"}
	}
	name, email := strings.TrimSpace(c.Name), strings.TrimSpace(c.Email)
	if name == "" {
		return &models.ValidationError{Field: "name", Message: "is required"}
	}
	if at := strings.Index(email, "@"); at < 1 || at == len(email)-1 {
		return &models.ValidationError{Field: "email", Message: "is not a valid address"}
	}
	sess.Customer = models.Customer{Name: name, Email: email}
	return apply(sess, EventSubmitIdentity)
}

func (s *DefaultService) submitVehicle(ctx context.Context, sess *models.CustomerSession, v *models.VehicleInfo) error {
	if v == nil {
		return &models.ValidationError{Field: "vehicle", Message: "is required"}
	}
	required := []struct{ field, value string }{
		{"year", v.Year}, {"make", v.Make}, {"model", v.Model}, {"issue", v.Issue},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &models.ValidationError{Field: r.field, Message: "is required"}
		}
	}
	vehicle := *v
	vehicle.FaultCode = strings.ToUpper(strings.TrimSpace(vehicle.FaultCode))
	sess.Vehicle = &vehicle
	sess.FaultCode = nil
	if vehicle.FaultCode != "" && s.faults != nil {
		desc := s.faults.Lookup(ctx, vehicle.FaultCode)
		sess.FaultCode = &desc
	}
	if err := apply(sess, EventSubmitVehicle); err != nil {
		return err
	}

	ex, err := s.diag.Begin(ctx, sess.Vehicle, sess.FaultCode)
	sess.Transcript = ex.Transcript
	if err != nil {
		if !models.IsExternal(err) {
			return err
		}
		s.logger.Warn("initial diagnosis failed", zap.String("session", sess.ID), zap.Error(err))
		sess.Notice = noticeDiagnosisDown
		return apply(sess, EventDiagnosisFailed)
	}
	if err := apply(sess, EventDiagnosisSucceeded); err != nil {
		return err
	}
	return s.followRecommendation(sess, ex)
}

func (s *DefaultService) sendMessage(ctx context.Context, sess *models.CustomerSession, text string) error {
	ex, err := s.diag.Continue(ctx, sess.Transcript, text)
	if err != nil {
		if !models.IsExternal(err) {
			return err
		}
		s.logger.Warn("follow-up diagnosis failed", zap.String("session", sess.ID), zap.Error(err))
		sess.Transcript = ex.Transcript
		sess.Notice = noticeDiagnosisDown
		return nil
	}
	sess.Transcript = ex.Transcript
	return s.followRecommendation(sess, ex)
}

// followRecommendation moves a chatting session to slot selection when the assistant
// tells the customer to bring the car in.
func (s *DefaultService) followRecommendation(sess *models.CustomerSession, ex intelligence.Exchange) error {
	if !ex.RecommendsRepair {
		return nil
	}
	sess.RepairRecommended = true
	return apply(sess, EventRequestSlots)
}

func (s *DefaultService) selectSlot(ctx context.Context, sess *models.CustomerSession, label string) ([]models.SlotOption, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, &models.ValidationError{Field: "slot", Message: "is required"}
	}
	slots, err := s.booker.AvailableSlots(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range slots {
		if o.Label == label {
			sess.SelectedSlot = label
			return slots, apply(sess, EventSelectSlot)
		}
	}
	return nil, &models.NotFoundError{Resource: "slot", Key: label}
}

func (s *DefaultService) confirm(ctx context.Context, sess *models.CustomerSession) error {
	conf, err := s.booker.ConfirmBooking(ctx, sess.Customer, sess.Vehicle, sess.SelectedSlot)
	switch {
	case err == nil:
	case models.IsNotFound(err):
		sess.SelectedSlot = ""
		sess.Notice = noticeSlotGone
		return apply(sess, EventCancelSelection)
	case models.IsValidation(err):
		return err
	default:
		s.logger.Error("booking failed", zap.String("session", sess.ID), zap.Error(err))
		sess.Notice = noticeBookingFailed
		return nil
	}

	sess.LastBooking = conf
	sess.SelectedSlot = ""
	sess.Notice = conf.NotifyError
	return apply(sess, EventConfirmSlot)
}

func (s *DefaultService) view(ctx context.Context, sess *models.CustomerSession) *models.SessionView {
	return s.viewWithSlots(ctx, sess, nil)
}

func (s *DefaultService) viewWithSlots(ctx context.Context, sess *models.CustomerSession, slots []models.SlotOption) *models.SessionView {
	v := &models.SessionView{
		Session:     sess,
		CanBookSlot: sess.State == models.StateChatting,
	}
	for i := len(sess.Transcript) - 1; i >= 0; i-- {
		if sess.Transcript[i].Role == models.RoleAssistant {
			v.LastReply = sess.Transcript[i].Content
			break
		}
	}
	if sess.State != models.StateSelectingSlot && sess.State != models.StateConfirming {
		return v
	}
	if slots == nil {
		var err error
		slots, err = s.booker.AvailableSlots(ctx)
		if err != nil {
			s.logger.Warn("failed to load slots for session view", zap.String("session", sess.ID), zap.Error(err))
			if sess.Notice == "" {
				sess.Notice = noticeSlotsDown
			}
			return v
		}
	}
	v.Slots = slots
	return v
}
