package campaign

import "time"

// Backoff decides how long after the n-th attempt the next one runs.
// Implementations must be monotone: Next(n+1) >= Next(n).
type Backoff interface {
	Next(attempts int) time.Duration
}

// ConstantBackoff waits the same interval between every attempt.
type ConstantBackoff time.Duration

func (b ConstantBackoff) Next(int) time.Duration { return time.Duration(b) }

// FixedSchedule waits schedule[n] after the n-th attempt and repeats the
// final interval once the schedule is spent.
type FixedSchedule []time.Duration

func (s FixedSchedule) Next(attempts int) time.Duration {
	if len(s) == 0 {
		return 0
	}
	if attempts < 0 {
		attempts = 0
	}
	if attempts >= len(s) {
		return s[len(s)-1]
	}
	return s[attempts]
}

// Due reports whether the campaign's timer has fired. A campaign that has
// never been attempted and has nothing scheduled is due immediately;
// otherwise the schedule rules. Whether a due campaign gets another send or
// hits the attempt ceiling is the engine's call, not the predicate's.
func (f FollowUp) Due(now time.Time) bool {
	if f.NextAttemptAt == nil {
		return f.AttemptsMade == 0
	}
	return !now.Before(*f.NextAttemptAt)
}

// Exhausted reports whether the attempt budget is spent.
func (f FollowUp) Exhausted() bool {
	return f.MaxAttempts > 0 && f.AttemptsMade >= f.MaxAttempts
}

// recordAttempt returns the follow-up bookkeeping after one successful
// dispatch: the attempt counter moves up and the next run is scheduled by
// the backoff. The final attempt still schedules a timer; when it fires the
// sweep closes the campaign instead of sending.
func recordAttempt(f FollowUp, now time.Time, backoff Backoff) FollowUp {
	f.AttemptsMade++
	if backoff == nil {
		f.NextAttemptAt = nil
		return f
	}
	next := now.Add(backoff.Next(f.AttemptsMade))
	f.NextAttemptAt = &next
	return f
}

// rescheduleAfterReply moves the next outreach without consuming an attempt.
// Replies always push the timer out, so an actively engaged patient is never
// closed out mid-conversation. A zero delay leaves the schedule untouched.
func rescheduleAfterReply(f FollowUp, now time.Time, delay time.Duration) FollowUp {
	if delay <= 0 {
		return f
	}
	next := now.Add(delay)
	f.NextAttemptAt = &next
	return f
}
