package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightsmile/outreach/pkg/logging"
)

// ErrQuietHours reports a voice send refused inside the quiet window. The
// campaign record stays untouched; the next sweep retries after the window.
var ErrQuietHours = errors.New("notify: voice call suppressed during quiet hours")

// QuietHours is a daily clinic-local window when voice calls are not placed.
// Email is unaffected; an inbox at 2am is fine, a ringing phone is not.
type QuietHours struct {
	startMinutes int
	endMinutes   int
	location     *time.Location
	enabled      bool
}

// ParseQuietHours builds a window from HH:MM strings. Both blank disables
// the window entirely.
func ParseQuietHours(start, end string, loc *time.Location) (QuietHours, error) {
	if start == "" && end == "" {
		return QuietHours{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	startMin, err := parseClock(start)
	if err != nil {
		return QuietHours{}, fmt.Errorf("notify: parse quiet hours start: %w", err)
	}
	endMin, err := parseClock(end)
	if err != nil {
		return QuietHours{}, fmt.Errorf("notify: parse quiet hours end: %w", err)
	}
	return QuietHours{
		startMinutes: startMin,
		endMinutes:   endMin,
		location:     loc,
		enabled:      true,
	}, nil
}

func parseClock(v string) (int, error) {
	if v == "" {
		return 0, fmt.Errorf("empty clock")
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Suppress reports whether the given moment falls inside the window.
func (q QuietHours) Suppress(now time.Time) bool {
	if !q.enabled {
		return false
	}
	local := now.In(q.location)
	minutes := local.Hour()*60 + local.Minute()
	if q.startMinutes == q.endMinutes {
		return false
	}
	if q.startMinutes < q.endMinutes {
		return minutes >= q.startMinutes && minutes < q.endMinutes
	}
	// Window crosses midnight.
	return minutes >= q.startMinutes || minutes < q.endMinutes
}

// QuietHoursSender wraps a Sender and refuses voice sends during the window.
type QuietHoursSender struct {
	inner  Sender
	window QuietHours
	logger *logging.Logger
	now    func() time.Time
}

func NewQuietHoursSender(inner Sender, window QuietHours, logger *logging.Logger) *QuietHoursSender {
	if inner == nil {
		panic("notify: inner sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &QuietHoursSender{inner: inner, window: window, logger: logger, now: time.Now}
}

func (s *QuietHoursSender) Send(ctx context.Context, msg Message) error {
	if msg.Channel == ChannelVoice && s.window.Suppress(s.now()) {
		s.logger.Info("voice send suppressed by quiet hours", "to", msg.To)
		return ErrQuietHours
	}
	return s.inner.Send(ctx, msg)
}

var _ Sender = (*QuietHoursSender)(nil)
