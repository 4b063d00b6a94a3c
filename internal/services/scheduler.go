package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/log"
)

// SchedulerConfig holds configuration for the materialization scheduler.
type SchedulerConfig struct {
	// Interval is how often recurring expenses are materialized (default: 1h)
	Interval time.Duration

	// HorizonDays is how far ahead children are created (default: 180)
	HorizonDays int
}

// DefaultSchedulerConfig returns the defaults used by the worker binary.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:    time.Hour,
		HorizonDays: core.MaterializeHorizonDays,
	}
}

// Scheduler runs RecurringService.MaterializeAll on a fixed interval.
type Scheduler struct {
	recurring *RecurringService
	config    SchedulerConfig
	logger    *log.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(recurring *RecurringService, config SchedulerConfig, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Discard()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	return &Scheduler{
		recurring: recurring,
		config:    config,
		logger:    logger.WithComponent(log.ComponentRecurring),
		now:       time.Now,
	}
}

// Start begins the loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	s.logger.InfoContext(ctx, "Recurring scheduler started",
		"interval", s.config.Interval,
		"horizon_days", s.config.HorizonDays)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		s.logger.InfoContext(ctx, "Recurring scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Recurring scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce materializes for the current day and logs the outcome.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	today := core.DateOf(s.now())
	n, err := s.recurring.MaterializeAll(ctx, today, s.config.HorizonDays)
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled materialization failed", log.FieldError, err)
	}
	return n
}
