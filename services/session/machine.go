package session

import (
	"errors"
	"fmt"

	"autoshop/models"
)

// Event is a customer action or an outcome that moves a session along.
type Event string

const (
	EventSubmitIdentity     Event = "submit_identity"
	EventSubmitVehicle      Event = "submit_vehicle"
	EventDiagnosisSucceeded Event = "diagnosis_succeeded"
	EventDiagnosisFailed    Event = "diagnosis_failed"
	EventSendMessage        Event = "send_message"
	EventRequestSlots       Event = "request_slots"
	EventSelectSlot         Event = "select_slot"
	EventConfirmSlot        Event = "confirm_slot"
	EventCancelSelection    Event = "cancel_selection"
	EventNewBooking         Event = "new_booking"
)

var ErrInvalidTransition = errors.New("invalid session transition")

var transitions = map[models.SessionState]map[Event]models.SessionState{
	models.StateCollectingIdentity: {
		EventSubmitIdentity: models.StateCollectingVehicleInfo,
	},
	models.StateCollectingVehicleInfo: {
		EventSubmitVehicle: models.StateDiagnosing,
	},
	models.StateDiagnosing: {
		EventDiagnosisSucceeded: models.StateChatting,
		EventDiagnosisFailed:    models.StateChatting,
	},
	models.StateChatting: {
		EventSendMessage:  models.StateChatting,
		EventRequestSlots: models.StateSelectingSlot,
	},
	models.StateSelectingSlot: {
		EventSelectSlot:      models.StateConfirming,
		EventCancelSelection: models.StateChatting,
	},
	models.StateConfirming: {
		EventSelectSlot:      models.StateConfirming,
		EventConfirmSlot:     models.StateBooked,
		EventCancelSelection: models.StateSelectingSlot,
	},
	models.StateBooked: {
		EventNewBooking: models.StateSelectingSlot,
	},
}

// Next returns the state an event leads to. It has no side effects.
func Next(state models.SessionState, ev Event) (models.SessionState, error) {
	if to, ok := transitions[state][ev]; ok {
		return to, nil
	}
	return state, fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, ev, state)
}

// Allowed lists the events accepted in a state.
func Allowed(state models.SessionState) []Event {
	out := make([]Event, 0, len(transitions[state]))
	for _, ev := range eventOrder {
		if _, ok := transitions[state][ev]; ok {
			out = append(out, ev)
		}
	}
	return out
}

var eventOrder = []Event{
	EventSubmitIdentity, EventSubmitVehicle, EventDiagnosisSucceeded, EventDiagnosisFailed,
	EventSendMessage, EventRequestSlots, EventSelectSlot, EventConfirmSlot,
	EventCancelSelection, EventNewBooking,
}
