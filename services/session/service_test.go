package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"autoshop/models"
	"autoshop/services/intelligence"
)

const slotLabel = "2025-06-10 (Tuesday) 9:00 - 10:00"

type fakeBooker struct {
	slots      []models.SlotOption
	confirmErr error
	notifyErr  string
	booked     []string
}

func (b *fakeBooker) AvailableSlots(context.Context) ([]models.SlotOption, error) {
	return b.slots, nil
}

func (b *fakeBooker) ConfirmBooking(_ context.Context, c models.Customer, _ *models.VehicleInfo, label string) (*models.BookingConfirmation, error) {
	if b.confirmErr != nil {
		return nil, b.confirmErr
	}
	b.booked = append(b.booked, label)
	return &models.BookingConfirmation{
		ID:          models.RecordID(len(b.booked) - 1),
		Record:      models.BookingRecord{CustomerName: c.Name, CustomerEmail: c.Email, Status: models.StatusPending},
		Quote:       200,
		QuoteText:   "$200.00",
		Notified:    b.notifyErr == "",
		NotifyError: b.notifyErr,
	}, nil
}

type fakeDiag struct {
	replies []string
	err     error
	calls   int
}

func (d *fakeDiag) reply(transcript []models.ChatMessage) (intelligence.Exchange, error) {
	d.calls++
	if d.err != nil {
		return intelligence.Exchange{Transcript: transcript}, &models.ExternalServiceError{Service: "diagnosis", Err: d.err}
	}
	r := d.replies[0]
	if len(d.replies) > 1 {
		d.replies = d.replies[1:]
	}
	transcript = append(transcript, models.ChatMessage{Role: models.RoleAssistant, Content: r})
	return intelligence.Exchange{Transcript: transcript, Reply: r, RecommendsRepair: intelligence.RecommendsShopRepair(r)}, nil
}

func (d *fakeDiag) Begin(_ context.Context, v *models.VehicleInfo, f *models.FaultCodeDescription) (intelligence.Exchange, error) {
	return d.reply([]models.ChatMessage{{Role: models.RoleUser, Content: intelligence.InitialPrompt(v, f)}})
}

func (d *fakeDiag) Continue(_ context.Context, transcript []models.ChatMessage, text string) (intelligence.Exchange, error) {
	next := append(append([]models.ChatMessage(nil), transcript...), models.ChatMessage{Role: models.RoleUser, Content: text})
	return d.reply(next)
}

type fakeFaults struct{}

func (fakeFaults) Lookup(_ context.Context, code string) models.FaultCodeDescription {
	return models.FaultCodeDescription{Code: code, Description: code + " System Too Lean (Bank 1)", Found: true}
}

func newService(t *testing.T, booker *fakeBooker, diag *fakeDiag) *DefaultService {
	t.Helper()
	if booker.slots == nil {
		booker.slots = []models.SlotOption{{Label: slotLabel, Slot: models.Slot{Date: "2025-06-10", Day: "Tuesday", TimeSlot: "9:00 - 10:00", Status: models.SlotAvailable}}}
	}
	svc, err := NewService(NewMemoryStore(time.Hour), booker, diag, fakeFaults{}, zap.NewNop())
	require.NoError(t, err)
	return svc
}

var (
	alice = &models.Customer{Name: " Alice ", Email: "alice@example.com"}
	civic = &models.VehicleInfo{Year: "2015", Make: "Honda", Model: "Civic", Issue: "grinding brakes", FaultCode: "p0171"}
)

func dispatch(t *testing.T, svc *DefaultService, id string, a Action) *models.SessionView {
	t.Helper()
	v, err := svc.Dispatch(context.Background(), id, a)
	require.NoError(t, err, "%s", a.Event)
	return v
}

func TestDispatch_FullBooking(t *testing.T) {
	booker := &fakeBooker{}
	diag := &fakeDiag{replies: []string{"Likely worn pads.", "Pads are cheap to replace."}}
	svc := newService(t, booker, diag)
	ctx := context.Background()

	start, err := svc.Start(ctx)
	require.NoError(t, err)
	id := start.Session.ID
	assert.Equal(t, models.StateCollectingIdentity, start.Session.State)

	v := dispatch(t, svc, id, Action{Event: EventSubmitIdentity, Customer: alice})
	assert.Equal(t, models.StateCollectingVehicleInfo, v.Session.State)
	assert.Equal(t, "Alice", v.Session.Customer.Name)

	v = dispatch(t, svc, id, Action{Event: EventSubmitVehicle, Vehicle: civic})
	assert.Equal(t, models.StateChatting, v.Session.State)
	assert.Equal(t, "Likely worn pads.", v.LastReply)
	require.NotNil(t, v.Session.FaultCode)
	assert.Equal(t, "P0171", v.Session.FaultCode.Code)
	assert.True(t, v.CanBookSlot)

	v = dispatch(t, svc, id, Action{Event: EventSendMessage, Message: "how much?"})
	assert.Equal(t, models.StateChatting, v.Session.State)
	assert.Len(t, v.Session.Transcript, 4)

	v = dispatch(t, svc, id, Action{Event: EventRequestSlots})
	assert.Equal(t, models.StateSelectingSlot, v.Session.State)
	require.Len(t, v.Slots, 1)

	v = dispatch(t, svc, id, Action{Event: EventSelectSlot, SlotLabel: slotLabel})
	assert.Equal(t, models.StateConfirming, v.Session.State)
	assert.Equal(t, slotLabel, v.Session.SelectedSlot)

	v = dispatch(t, svc, id, Action{Event: EventConfirmSlot})
	assert.Equal(t, models.StateBooked, v.Session.State)
	require.NotNil(t, v.Session.LastBooking)
	assert.Equal(t, "$200.00", v.Session.LastBooking.QuoteText)
	assert.Equal(t, []string{slotLabel}, booker.booked)

	v = dispatch(t, svc, id, Action{Event: EventNewBooking})
	assert.Equal(t, models.StateSelectingSlot, v.Session.State)
}

func TestDispatch_TriggerPhraseMovesToSlotSelection(t *testing.T) {
	svc := newService(t, &fakeBooker{}, &fakeDiag{replies: []string{"This needs a lift, you should schedule a repair."}})
	start, err := svc.Start(context.Background())
	require.NoError(t, err)
	id := start.Session.ID

	dispatch(t, svc, id, Action{Event: EventSubmitIdentity, Customer: alice})
	v := dispatch(t, svc, id, Action{Event: EventSubmitVehicle, Vehicle: civic})
	assert.Equal(t, models.StateSelectingSlot, v.Session.State)
	assert.True(t, v.Session.RepairRecommended)
	assert.NotEmpty(t, v.Slots)
}

func TestDispatch_NoTriggerStaysChatting(t *testing.T) {
	svc := newService(t, &fakeBooker{}, &fakeDiag{replies: []string{"Top up the brake fluid.", "Then bring it for a repair at a shop."}})
	start, err := svc.Start(context.Background())
	require.NoError(t, err)
	id := start.Session.ID

	dispatch(t, svc, id, Action{Event: EventSubmitIdentity, Customer: alice})
	v := dispatch(t, svc, id, Action{Event: EventSubmitVehicle, Vehicle: civic})
	assert.Equal(t, models.StateChatting, v.Session.State)
	assert.False(t, v.Session.RepairRecommended)

	v = dispatch(t, svc, id, Action{Event: EventSendMessage, Message: "still grinding"})
	assert.Equal(t, models.StateSelectingSlot, v.Session.State, "a follow-up reply can trigger too")
}

func TestDispatch_DiagnosisFailureKeepsSessionAlive(t *testing.T) {
	diag := &fakeDiag{err: errors.New("quota")}
	svc := newService(t, &fakeBooker{}, diag)
	start, err := svc.Start(context.Background())
	require.NoError(t, err)
	id := start.Session.ID

	dispatch(t, svc, id, Action{Event: EventSubmitIdentity, Customer: alice})
	v := dispatch(t, svc, id, Action{Event: EventSubmitVehicle, Vehicle: civic})
	assert.Equal(t, models.StateChatting, v.Session.State)
	assert.Equal(t, noticeDiagnosisDown, v.Session.Notice)

	v = dispatch(t, svc, id, Action{Event: EventSendMessage, Message: "hello?"})
	assert.Equal(t, models.StateChatting, v.Session.State)
	assert.Equal(t, noticeDiagnosisDown, v.Session.Notice)
	assert.Equal(t, 2, diag.calls, "no retries")

	v = dispatch(t, svc, id, Action{Event: EventRequestSlots})
	assert.Equal(t, models.StateSelectingSlot, v.Session.State)
	assert.Empty(t, v.Session.Notice)
}

func TestDispatch_InvalidTransition(t *testing.T) {
	svc := newService(t, &fakeBooker{}, &fakeDiag{replies: []string{"ok"}})
	start, err := svc.Start(context.Background())
	require.NoError(t, err)

	_, err = svc.Dispatch(context.Background(), start.Session.ID, Action{Event: EventConfirmSlot})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	v, err := svc.View(context.Background(), start.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateCollectingIdentity, v.Session.State)
}

func TestDispatch_Validation(t *testing.T) {
	svc := newService(t, &fakeBooker{}, &fakeDiag{replies: []string{"ok"}})
	start, err := svc.Start(context.Background())
	require.NoError(t, err)
	id := start.Session.ID

	_, err = svc.Dispatch(context.Background(), id, Action{Event: EventSubmitIdentity, Customer: &models.Customer{Name: "Alice"}})
	assert.True(t, models.IsValidation(err))

	dispatch(t, svc, id, Action{Event: EventSubmitIdentity, Customer: alice})
	_, err = svc.Dispatch(context.Background(), id, Action{Event: EventSubmitVehicle, Vehicle: &models.VehicleInfo{Year: "2015"}})
	assert.True(t, models.IsValidation(err))
}

func TestDispatch_SlotGoneReturnsToSelection(t *testing.T) {
	booker := &fakeBooker{}
	svc := newService(t, booker, &fakeDiag{replies: []string{"you should schedule a repair"}})
	start, err := svc.Start(context.Background())
	require.NoError(t, err)
	id := start.Session.ID

	dispatch(t, svc, id, Action{Event: EventSubmitIdentity, Customer: alice})
	dispatch(t, svc, id, Action{Event: EventSubmitVehicle, Vehicle: civic})

	_, err = svc.Dispatch(context.Background(), id, Action{Event: EventSelectSlot, SlotLabel: "2030-01-01 (Tuesday) 9:00 - 10:00"})
	assert.True(t, models.IsNotFound(err))

	dispatch(t, svc, id, Action{Event: EventSelectSlot, SlotLabel: slotLabel})
	booker.confirmErr = &models.NotFoundError{Resource: "slot", Key: slotLabel}
	v := dispatch(t, svc, id, Action{Event: EventConfirmSlot})
	assert.Equal(t, models.StateSelectingSlot, v.Session.State)
	assert.Equal(t, noticeSlotGone, v.Session.Notice)
	assert.Empty(t, v.Session.SelectedSlot)
}

func TestDispatch_NotifierFailureStillBooks(t *testing.T) {
	booker := &fakeBooker{notifyErr: "email not sent"}
	svc := newService(t, booker, &fakeDiag{replies: []string{"schedule a repair"}})
	start, err := svc.Start(context.Background())
	require.NoError(t, err)
	id := start.Session.ID

	dispatch(t, svc, id, Action{Event: EventSubmitIdentity, Customer: alice})
	dispatch(t, svc, id, Action{Event: EventSubmitVehicle, Vehicle: civic})
	dispatch(t, svc, id, Action{Event: EventSelectSlot, SlotLabel: slotLabel})
	v := dispatch(t, svc, id, Action{Event: EventConfirmSlot})
	assert.Equal(t, models.StateBooked, v.Session.State)
	assert.Equal(t, "email not sent", v.Session.Notice)
	assert.False(t, v.Session.LastBooking.Notified)
}

func TestDispatch_StorageFailureStaysConfirming(t *testing.T) {
	booker := &fakeBooker{}
	svc := newService(t, booker, &fakeDiag{replies: []string{"schedule a repair"}})
	start, err := svc.Start(context.Background())
	require.NoError(t, err)
	id := start.Session.ID

	dispatch(t, svc, id, Action{Event: EventSubmitIdentity, Customer: alice})
	dispatch(t, svc, id, Action{Event: EventSubmitVehicle, Vehicle: civic})
	dispatch(t, svc, id, Action{Event: EventSelectSlot, SlotLabel: slotLabel})
	booker.confirmErr = &models.StorageError{Op: "append", Path: "bookings.csv", Err: errors.New("disk full")}
	v := dispatch(t, svc, id, Action{Event: EventConfirmSlot})
	assert.Equal(t, models.StateConfirming, v.Session.State)
	assert.Equal(t, noticeBookingFailed, v.Session.Notice)
}

func TestEndAndUnknownSession(t *testing.T) {
	svc := newService(t, &fakeBooker{}, &fakeDiag{replies: []string{"ok"}})
	ctx := context.Background()
	start, err := svc.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.End(ctx, start.Session.ID))
	_, err = svc.View(ctx, start.Session.ID)
	assert.True(t, models.IsNotFound(err))

	_, err = svc.Dispatch(ctx, "missing", Action{Event: EventSubmitIdentity, Customer: alice})
	assert.True(t, models.IsNotFound(err))
}

func TestDispatch_ExpiredSessionReleasesLock(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }
	svc, err := NewService(store, &fakeBooker{}, &fakeDiag{replies: []string{"ok"}}, fakeFaults{}, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	start, err := svc.Start(ctx)
	require.NoError(t, err)
	id := start.Session.ID
	_, err = svc.Dispatch(ctx, id, Action{Event: EventSubmitIdentity, Customer: alice})
	require.NoError(t, err)
	_, held := svc.sessLock.Load(id)
	require.True(t, held)

	now = now.Add(2 * time.Minute)
	_, err = svc.Dispatch(ctx, id, Action{Event: EventSubmitVehicle})
	assert.True(t, models.IsNotFound(err))
	_, held = svc.sessLock.Load(id)
	assert.False(t, held)
}
