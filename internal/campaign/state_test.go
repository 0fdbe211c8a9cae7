package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_OutreachSent(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		from State
		want State
	}{
		{name: "recovery first send", typ: TypeRecovery, from: StateInitiated, want: StateAttemptingRecovery},
		{name: "recall first send", typ: TypeRecall, from: StateInitiated, want: StateAttemptingRecall},
		{name: "reminder rides recall track", typ: TypeAppointmentReminder, from: StateInitiated, want: StateAttemptingRecall},
		{name: "follow-up keeps attempting state", typ: TypeRecovery, from: StateAttemptingRecovery, want: StateAttemptingRecovery},
		{name: "follow-up keeps engaged", typ: TypeRecall, from: StateEngaged, want: StateEngaged},
		{name: "follow-up keeps awaiting reply", typ: TypeRecall, from: StateAwaitingReply, want: StateAwaitingReply},
		{name: "follow-up keeps booking in progress", typ: TypeRecovery, from: StateBookingInProgress, want: StateBookingInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.typ, tt.from, EventOutreachSent)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNext_AttemptsExhausted(t *testing.T) {
	nonTerminal := []State{
		StateInitiated, StateAttemptingRecovery, StateAttemptingRecall,
		StateEngaged, StateAwaitingReply, StateBookingInProgress,
	}
	for _, from := range nonTerminal {
		got, err := Next(TypeRecovery, from, EventAttemptsExhausted)
		require.NoError(t, err, "from %s", from)
		assert.Equal(t, StateFailedMaxAttempts, got, "from %s", from)
	}
}

func TestNext_ReplyEvents(t *testing.T) {
	tests := []struct {
		ev   Event
		want State
	}{
		{ev: EventBookingRequested, want: StateBookingInProgress},
		{ev: EventDeclined, want: StateDeclined},
		{ev: EventUnclearReply, want: StateAwaitingReply},
		{ev: EventQuestionAnswered, want: StateEngaged},
		{ev: EventHandoffRequired, want: StateHandedOff},
	}
	replyableStates := []State{
		StateAttemptingRecovery, StateAttemptingRecall,
		StateEngaged, StateAwaitingReply, StateBookingInProgress,
	}

	for _, tt := range tests {
		for _, from := range replyableStates {
			got, err := Next(TypeRecall, from, tt.ev)
			require.NoError(t, err, "%s from %s", tt.ev, from)
			assert.Equal(t, tt.want, got, "%s from %s", tt.ev, from)
		}

		// A reply cannot arrive before the first outreach went out.
		_, err := Next(TypeRecall, StateInitiated, tt.ev)
		assert.ErrorIs(t, err, ErrIllegalTransition, "%s from INITIATED", tt.ev)
	}
}

func TestNext_BookingSucceeded(t *testing.T) {
	got, err := Next(TypeRecovery, StateBookingInProgress, EventBookingSucceeded)
	require.NoError(t, err)
	assert.Equal(t, StateRecovered, got, "recovery campaigns close as RECOVERED")

	got, err = Next(TypeRecall, StateBookingInProgress, EventBookingSucceeded)
	require.NoError(t, err)
	assert.Equal(t, StateBooked, got)

	_, err = Next(TypeRecall, StateEngaged, EventBookingSucceeded)
	assert.ErrorIs(t, err, ErrIllegalTransition, "booking can only succeed mid-booking")
}

func TestNext_TerminalStatesAbsorb(t *testing.T) {
	terminals := []State{StateBooked, StateRecovered, StateFailedMaxAttempts, StateDeclined, StateHandedOff}
	events := []Event{
		EventOutreachSent, EventAttemptsExhausted, EventBookingRequested,
		EventDeclined, EventUnclearReply, EventQuestionAnswered,
		EventHandoffRequired, EventBookingSucceeded,
	}

	for _, from := range terminals {
		for _, ev := range events {
			got, err := Next(TypeRecovery, from, ev)
			assert.ErrorIs(t, err, ErrIllegalTransition, "%s on %s", ev, from)
			assert.Equal(t, from, got, "terminal state must not move")
		}
	}
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateBooked.Terminal())
	assert.True(t, StateRecovered.Terminal())
	assert.True(t, StateFailedMaxAttempts.Terminal())
	assert.True(t, StateDeclined.Terminal())
	assert.True(t, StateHandedOff.Terminal())

	assert.False(t, StateInitiated.Terminal())
	assert.False(t, StateAttemptingRecovery.Terminal())
	assert.False(t, StateAttemptingRecall.Terminal())
	assert.False(t, StateEngaged.Terminal())
	assert.False(t, StateAwaitingReply.Terminal())
	assert.False(t, StateBookingInProgress.Terminal())
}

func TestTypeValid(t *testing.T) {
	assert.True(t, TypeRecovery.Valid())
	assert.True(t, TypeRecall.Valid())
	assert.True(t, TypeAppointmentReminder.Valid())
	assert.False(t, Type("WINBACK").Valid())
	assert.False(t, Type("").Valid())
}
