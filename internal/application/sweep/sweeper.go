// Package sweep fires timers and alarms whose trigger time has passed.
package sweep

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/assistant/internal/domain/entities"
	"github.com/taskmaster/assistant/internal/infrastructure/logger"
	"github.com/taskmaster/assistant/internal/infrastructure/metrics"
	"github.com/taskmaster/assistant/internal/ports"
)

const leaderLockKey = "assistant:sweep:leader"

// Publisher records and delivers a user-facing notification
type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, message string) (*entities.Notification, error)
}

// Config controls batch size and polling cadence.
type Config struct {
	Interval  time.Duration // poll interval
	BatchSize int           // max timers fired per pass
	LockTTL   time.Duration // leader lock lifetime; only used with a cache
}

// Report summarizes one pass
type Report struct {
	Due    int
	Fired  int
	Failed int
	// Skipped is true when another replica held the leader lock.
	Skipped bool
}

// Sweeper periodically moves due timers from active to completed and emits
// one notification per transition.
type Sweeper struct {
	timers    ports.TimerRepository
	publisher Publisher
	lock      ports.CacheRepository
	metrics   *metrics.Metrics
	logger    *logger.Logger
	cfg       Config
	owner     string
	now       func() time.Time
}

// New constructs a Sweeper. lock and m may be nil.
func New(timers ports.TimerRepository, publisher Publisher, lock ports.CacheRepository, m *metrics.Metrics, cfg Config, log *logger.Logger) *Sweeper {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.LockTTL <= 0 || cfg.LockTTL > cfg.Interval {
		cfg.LockTTL = cfg.Interval * 4 / 5
	}

	owner, err := os.Hostname()
	if err != nil || owner == "" {
		owner = "sweeper"
	}

	return &Sweeper{
		timers:    timers,
		publisher: publisher,
		lock:      lock,
		metrics:   m,
		logger:    log.WithComponent("sweep"),
		cfg:       cfg,
		owner:     owner + "-" + uuid.NewString()[:8],
		now:       time.Now,
	}
}

// Run sweeps immediately and then once per interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Infow("Timer sweep starting", "interval", s.cfg.Interval, "batch_size", s.cfg.BatchSize)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("Timer sweep stopping")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Errorw("Timer sweep pass failed", "error", err)
	}
}

// SweepOnce runs a single pass. The returned error covers only the failure
// to list due timers; per-timer failures are counted in the report.
func (s *Sweeper) SweepOnce(ctx context.Context) (Report, error) {
	var report Report

	if s.lock != nil {
		acquired, err := s.lock.SetNX(ctx, leaderLockKey, s.owner, s.cfg.LockTTL)
		if err != nil {
			// Without the cache the row-level compare-and-set still prevents double firing.
			s.logger.Warnw("Sweep leader lock unavailable, sweeping anyway", "error", err)
		} else if !acquired {
			report.Skipped = true
			return report, nil
		}
	}

	now := s.now().UTC()
	due, err := s.timers.ListDue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return report, err
	}
	report.Due = len(due)

	for _, t := range due {
		if ctx.Err() != nil {
			break
		}
		fired, err := s.fire(ctx, t, now)
		if fired {
			report.Fired++
		}
		if err != nil {
			report.Failed++
			s.logger.Warnw("Failed to fire timer", "timer_id", t.ID, "user_id", t.UserID, "error", err)
		}
	}

	s.metrics.ObserveSweep(report.Fired, report.Failed)
	if report.Fired > 0 || report.Failed > 0 {
		s.logger.Infow("Timer sweep pass complete", "due", report.Due, "fired", report.Fired, "failed", report.Failed)
	}
	return report, nil
}

// fire transitions one timer and then notifies its owner. It reports false
// when a concurrent cancel or another sweeper won the transition.
func (s *Sweeper) fire(ctx context.Context, t *entities.Timer, now time.Time) (bool, error) {
	fired, err := s.timers.MarkFired(ctx, t.ID, now)
	if err != nil {
		if errors.Is(err, entities.ErrTimerNotActive) || errors.Is(err, entities.ErrTimerNotFound) {
			return false, nil
		}
		return false, err
	}

	if _, err := s.publisher.Publish(ctx, fired.UserID, fired.NotificationMessage()); err != nil {
		return true, err
	}
	s.metrics.ObserveNotification()

	s.logger.Infow("Timer fired", "timer_id", fired.ID, "user_id", fired.UserID, "kind", fired.Kind)
	return true, nil
}
