package followupworker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brightsmile/outreach/pkg/logging"
)

// DueRunner triggers every campaign whose follow-up timer has fired.
// *campaign.Engine implements it.
type DueRunner interface {
	RunDue(ctx context.Context) (int, error)
}

// Sweeper runs the follow-up sweep on a cron schedule. Campaigns carry their
// own next_action_at, so a tick missed during downtime is picked up whole by
// the next one.
type Sweeper struct {
	engine   DueRunner
	logger   *logging.Logger
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	inFlight atomic.Bool
}

func NewSweeper(engine DueRunner, schedule string, loc *time.Location, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	if schedule == "" {
		schedule = "0 * * * *"
	}
	return &Sweeper{
		engine:   engine,
		logger:   logger,
		schedule: schedule,
		timeout:  10 * time.Minute,
		cron:     cron.New(cron.WithLocation(loc)),
	}
}

func (s *Sweeper) WithTimeout(d time.Duration) *Sweeper {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Start registers the sweep job and begins the cron loop. It sweeps once
// immediately so a restart never waits a full interval to catch up.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("followup: bad sweep schedule %q: %w", s.schedule, err)
	}
	go s.sweep()
	s.cron.Start()
	s.logger.Info("follow-up sweeper started", "schedule", s.schedule)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("follow-up sweeper stopped")
}

func (s *Sweeper) sweep() {
	if s.engine == nil {
		return
	}
	// A slow sweep can outlast the interval; the next tick skips rather
	// than stacking a second sweep on the same due set.
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("follow-up sweep still running, skipping tick")
		return
	}
	defer s.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	processed, err := s.engine.RunDue(ctx)
	if err != nil {
		s.logger.Error("follow-up sweep failed", "error", err)
		return
	}
	if processed > 0 {
		s.logger.Info("follow-up sweep processed campaigns", "processed", processed)
	}
}
