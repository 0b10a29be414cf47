// Package scheduler runs the periodic overdue sweep on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OverdueSweeper flags bills that are past their due date
type OverdueSweeper interface {
	Sweep(ctx context.Context, asOf time.Time) (int, error)
}

// OverdueSchedulerConfig holds configuration for the overdue sweep schedule
type OverdueSchedulerConfig struct {
	Enabled bool
	// CronSpec is a standard five-field cron expression evaluated in UTC
	CronSpec string
	// JobTimeout bounds a single sweep
	JobTimeout time.Duration
}

// DefaultOverdueSchedulerConfig runs the sweep at 01:00 UTC daily
func DefaultOverdueSchedulerConfig() OverdueSchedulerConfig {
	return OverdueSchedulerConfig{
		Enabled:    true,
		CronSpec:   "0 1 * * *",
		JobTimeout: 5 * time.Minute,
	}
}

// OverdueScheduler triggers OverdueSweeper from a robfig/cron schedule.
// Overlapping runs are skipped.
type OverdueScheduler struct {
	config  OverdueSchedulerConfig
	sweeper OverdueSweeper
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	lastRunAt *time.Time
}

// NewOverdueScheduler validates the cron expression and creates the scheduler
func NewOverdueScheduler(config OverdueSchedulerConfig, sweeper OverdueSweeper, logger *zap.Logger) (*OverdueScheduler, error) {
	if _, err := cron.ParseStandard(config.CronSpec); err != nil {
		return nil, fmt.Errorf("%w: overdue cron %q: %v", ErrInvalidConfig, config.CronSpec, err)
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultOverdueSchedulerConfig().JobTimeout
	}
	return &OverdueScheduler{
		config:  config,
		sweeper: sweeper,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Start registers the job and starts the cron runner. Calling Start twice is a no-op.
func (s *OverdueScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info("overdue scheduler disabled")
		return nil
	}
	if s.isRunning {
		return nil
	}

	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.config.CronSpec, s.runScheduled); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.cron = c
	s.isRunning = true
	c.Start()

	next := c.Entries()[0].Next
	s.logger.Info("overdue scheduler started",
		zap.String("cron", s.config.CronSpec),
		zap.Time("next_run_at", next),
	)
	return nil
}

// Stop stops the cron runner and waits for a running sweep to finish
func (s *OverdueScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	c, cancel := s.cron, s.cancel
	s.mu.Unlock()

	done := c.Stop()
	select {
	case <-done.Done():
		cancel()
		s.logger.Info("overdue scheduler stopped")
		return nil
	case <-ctx.Done():
		cancel()
		s.logger.Warn("overdue scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow performs a sweep immediately, outside the schedule
func (s *OverdueScheduler) RunNow(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	started := s.now()
	n, err := s.sweeper.Sweep(ctx, started)

	s.mu.Lock()
	s.lastRunAt = &started
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("overdue sweep failed", zap.Error(err))
		return n, err
	}
	s.logger.Info("overdue sweep finished",
		zap.Int("marked_overdue", n),
		zap.Duration("duration", s.now().Sub(started)),
	)
	return n, nil
}

// IsRunning reports whether the cron runner is active
func (s *OverdueScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// LastRunAt returns when the last sweep started, or nil
func (s *OverdueScheduler) LastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}

func (s *OverdueScheduler) runScheduled() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	_, _ = s.RunNow(ctx)
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
