package campaign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUpDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		f    FollowUp
		want bool
	}{
		{name: "fresh campaign with no schedule is due", f: FollowUp{MaxAttempts: 3}, want: true},
		{name: "attempted campaign with no schedule is not due", f: FollowUp{AttemptsMade: 1, MaxAttempts: 3}, want: false},
		{name: "timer in the past", f: FollowUp{AttemptsMade: 1, MaxAttempts: 3, NextAttemptAt: &past}, want: true},
		{name: "timer exactly now", f: FollowUp{AttemptsMade: 1, MaxAttempts: 3, NextAttemptAt: &now}, want: true},
		{name: "timer in the future", f: FollowUp{AttemptsMade: 1, MaxAttempts: 3, NextAttemptAt: &future}, want: false},
		{name: "spent budget with fired timer is still due", f: FollowUp{AttemptsMade: 3, MaxAttempts: 3, NextAttemptAt: &past}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Due(now))
		})
	}
}

func TestFollowUpExhausted(t *testing.T) {
	assert.False(t, FollowUp{AttemptsMade: 0, MaxAttempts: 3}.Exhausted())
	assert.False(t, FollowUp{AttemptsMade: 2, MaxAttempts: 3}.Exhausted())
	assert.True(t, FollowUp{AttemptsMade: 3, MaxAttempts: 3}.Exhausted())
	assert.True(t, FollowUp{AttemptsMade: 4, MaxAttempts: 3}.Exhausted())
	assert.False(t, FollowUp{AttemptsMade: 100, MaxAttempts: 0}.Exhausted(), "zero max means no ceiling")
}

func TestRecordAttempt(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	f := recordAttempt(FollowUp{MaxAttempts: 3}, now, ConstantBackoff(5*24*time.Hour))
	assert.Equal(t, 1, f.AttemptsMade)
	require.NotNil(t, f.NextAttemptAt)
	assert.Equal(t, now.Add(5*24*time.Hour), *f.NextAttemptAt)

	// The final attempt still gets a timer; the sweep that fires it is what
	// closes the campaign.
	f = recordAttempt(FollowUp{AttemptsMade: 2, MaxAttempts: 3}, now, ConstantBackoff(time.Hour))
	assert.Equal(t, 3, f.AttemptsMade)
	require.NotNil(t, f.NextAttemptAt)
	assert.Equal(t, now.Add(time.Hour), *f.NextAttemptAt)

	// No backoff means one-shot: nothing further is scheduled.
	f = recordAttempt(FollowUp{MaxAttempts: 1}, now, nil)
	assert.Equal(t, 1, f.AttemptsMade)
	assert.Nil(t, f.NextAttemptAt)
}

func TestRecordAttempt_FixedSchedule(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	schedule := FixedSchedule{0, 2 * 24 * time.Hour, 4 * 24 * time.Hour}

	f := FollowUp{MaxAttempts: 5}
	f = recordAttempt(f, now, schedule)
	require.NotNil(t, f.NextAttemptAt)
	assert.Equal(t, now.Add(2*24*time.Hour), *f.NextAttemptAt, "after first send wait schedule[1]")

	f = recordAttempt(f, now, schedule)
	assert.Equal(t, now.Add(4*24*time.Hour), *f.NextAttemptAt)

	// Past the end of the schedule the last interval repeats.
	f = recordAttempt(f, now, schedule)
	assert.Equal(t, now.Add(4*24*time.Hour), *f.NextAttemptAt)
}

func TestRescheduleAfterReply(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	old := now.Add(-time.Hour)

	f := rescheduleAfterReply(FollowUp{AttemptsMade: 2, MaxAttempts: 3, NextAttemptAt: &old}, now, 24*time.Hour)
	assert.Equal(t, 2, f.AttemptsMade, "replies never consume attempts")
	require.NotNil(t, f.NextAttemptAt)
	assert.Equal(t, now.Add(24*time.Hour), *f.NextAttemptAt)

	// Zero delay leaves the schedule alone.
	f = rescheduleAfterReply(FollowUp{AttemptsMade: 1, MaxAttempts: 3, NextAttemptAt: &old}, now, 0)
	require.NotNil(t, f.NextAttemptAt)
	assert.Equal(t, old, *f.NextAttemptAt)

	// A spent budget still gets pushed out; the engine decides at fire time
	// whether to close instead of send.
	f = rescheduleAfterReply(FollowUp{AttemptsMade: 3, MaxAttempts: 3, NextAttemptAt: &old}, now, 24*time.Hour)
	require.NotNil(t, f.NextAttemptAt)
	assert.Equal(t, now.Add(24*time.Hour), *f.NextAttemptAt)
}

func TestFixedScheduleNext(t *testing.T) {
	s := FixedSchedule{time.Hour, 2 * time.Hour, 3 * time.Hour}
	assert.Equal(t, time.Hour, s.Next(0))
	assert.Equal(t, 2*time.Hour, s.Next(1))
	assert.Equal(t, 3*time.Hour, s.Next(2))
	assert.Equal(t, 3*time.Hour, s.Next(9))
	assert.Equal(t, time.Hour, s.Next(-1))
	assert.Equal(t, time.Duration(0), FixedSchedule{}.Next(0))
}
