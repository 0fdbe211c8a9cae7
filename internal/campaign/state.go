package campaign

import "fmt"

// Event is a lifecycle trigger recognized by the state machine.
type Event string

const (
	// EventOutreachSent fires after a follow-up message was dispatched.
	EventOutreachSent Event = "outreach_sent"
	// EventAttemptsExhausted fires when a trigger finds the attempt budget spent.
	EventAttemptsExhausted Event = "attempts_exhausted"
	// EventBookingRequested fires when a reply asks to book.
	EventBookingRequested Event = "booking_requested"
	// EventDeclined fires when a reply refuses the service.
	EventDeclined Event = "service_declined"
	// EventUnclearReply fires when a reply could not be understood.
	EventUnclearReply Event = "unclear_reply"
	// EventQuestionAnswered fires when a question was answered from the knowledge base.
	EventQuestionAnswered Event = "question_answered"
	// EventHandoffRequired fires when a question had no knowledge-base answer.
	EventHandoffRequired Event = "handoff_required"
	// EventBookingSucceeded fires when the coordinator created the appointment.
	EventBookingSucceeded Event = "booking_succeeded"
)

// replyable lists the states from which an inbound reply is routed.
func replyable(s State) bool {
	switch s {
	case StateAttemptingRecovery, StateAttemptingRecall, StateEngaged, StateAwaitingReply, StateBookingInProgress:
		return true
	}
	return false
}

// attempting maps a campaign type to its active-outreach state. Reminder
// campaigns ride the recall track; they have no attempting state of their own.
func attempting(t Type) State {
	if t == TypeRecovery {
		return StateAttemptingRecovery
	}
	return StateAttemptingRecall
}

// succeeded maps a completed booking to the campaign's terminal success state.
func succeeded(t Type) State {
	if t == TypeRecovery {
		return StateRecovered
	}
	return StateBooked
}

// Next is the single transition function: it returns the state that follows
// `from` when `ev` occurs on a campaign of type `t`, or ErrIllegalTransition.
// Terminal states accept no events; callers are expected to treat operations
// on terminal campaigns as no-ops before consulting Next.
func Next(t Type, from State, ev Event) (State, error) {
	if from.Terminal() {
		return from, fmt.Errorf("%w: %s on terminal state %s", ErrIllegalTransition, ev, from)
	}

	switch ev {
	case EventOutreachSent:
		if from == StateInitiated {
			return attempting(t), nil
		}
		// Follow-ups nudge without moving the conversation position.
		return from, nil

	case EventAttemptsExhausted:
		return StateFailedMaxAttempts, nil

	case EventBookingRequested:
		if replyable(from) {
			return StateBookingInProgress, nil
		}

	case EventDeclined:
		if replyable(from) {
			return StateDeclined, nil
		}

	case EventUnclearReply:
		if replyable(from) {
			return StateAwaitingReply, nil
		}

	case EventQuestionAnswered:
		if replyable(from) {
			return StateEngaged, nil
		}

	case EventHandoffRequired:
		if replyable(from) {
			return StateHandedOff, nil
		}

	case EventBookingSucceeded:
		if from == StateBookingInProgress {
			return succeeded(t), nil
		}
	}

	return from, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, ev, from)
}
