package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoshop/models"
)

func TestNext_HappyPath(t *testing.T) {
	steps := []struct {
		ev   Event
		want models.SessionState
	}{
		{EventSubmitIdentity, models.StateCollectingVehicleInfo},
		{EventSubmitVehicle, models.StateDiagnosing},
		{EventDiagnosisSucceeded, models.StateChatting},
		{EventSendMessage, models.StateChatting},
		{EventRequestSlots, models.StateSelectingSlot},
		{EventSelectSlot, models.StateConfirming},
		{EventConfirmSlot, models.StateBooked},
		{EventNewBooking, models.StateSelectingSlot},
	}
	state := models.StateCollectingIdentity
	for _, s := range steps {
		next, err := Next(state, s.ev)
		require.NoError(t, err, "%s from %s", s.ev, state)
		assert.Equal(t, s.want, next)
		state = next
	}
}

func TestNext_Invalid(t *testing.T) {
	cases := []struct {
		state models.SessionState
		ev    Event
	}{
		{models.StateCollectingIdentity, EventSubmitVehicle},
		{models.StateCollectingIdentity, EventConfirmSlot},
		{models.StateChatting, EventConfirmSlot},
		{models.StateSelectingSlot, EventConfirmSlot},
		{models.StateBooked, EventSendMessage},
		{models.StateDiagnosing, EventSendMessage},
	}
	for _, c := range cases {
		next, err := Next(c.state, c.ev)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, c.state, next, "state is unchanged")
	}
}

func TestNext_Cancel(t *testing.T) {
	next, err := Next(models.StateConfirming, EventCancelSelection)
	require.NoError(t, err)
	assert.Equal(t, models.StateSelectingSlot, next)

	next, err = Next(models.StateSelectingSlot, EventCancelSelection)
	require.NoError(t, err)
	assert.Equal(t, models.StateChatting, next)
}

func TestAllowed(t *testing.T) {
	assert.Equal(t, []Event{EventSubmitIdentity}, Allowed(models.StateCollectingIdentity))
	assert.Equal(t, []Event{EventSelectSlot, EventConfirmSlot, EventCancelSelection}, Allowed(models.StateConfirming))
	assert.Empty(t, Allowed("unknown"))
}
