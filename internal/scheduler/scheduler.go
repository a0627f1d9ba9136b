package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/hotel-ops-api/internal/config"
	"github.com/phrazzld/hotel-ops-api/internal/domain"
	"github.com/phrazzld/hotel-ops-api/internal/platform/clock"
	"github.com/phrazzld/hotel-ops-api/internal/platform/logger"
	"github.com/phrazzld/hotel-ops-api/internal/service"
)

// ErrAlreadyRunning is returned by Start when the scheduler loop is active.
var ErrAlreadyRunning = errors.New("scheduler is already running")

// Assigner runs the system assignment path for a single task. It reports
// false without error when the task was left alone.
type Assigner interface {
	AutoAssign(ctx context.Context, task *domain.Task) (bool, error)
}

// StaleTaskSource lists pending, unassigned, active tasks requested at or
// before cutoff, oldest first.
type StaleTaskSource interface {
	ListStaleUnassigned(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Task, error)
}

// Config holds configuration for the scheduler
type Config struct {
	// Interval between sweeps
	Interval time.Duration

	// StalenessThreshold is how long a task must wait unassigned before the
	// sweep picks it up
	StalenessThreshold time.Duration

	// WorkerCount determines how many tasks are assigned concurrently
	// If zero or negative, defaults to 1
	WorkerCount int

	// BatchSize caps the tasks considered per sweep
	BatchSize int
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		Interval:           60 * time.Second,
		StalenessThreshold: 5 * time.Minute,
		WorkerCount:        2,
		BatchSize:          100,
	}
}

// ConfigFromTasks maps the tasks configuration section onto Config.
func ConfigFromTasks(cfg config.TasksConfig) Config {
	return Config{
		Interval:           cfg.SchedulerInterval,
		StalenessThreshold: cfg.StalenessThreshold,
		WorkerCount:        cfg.SchedulerWorkers,
		BatchSize:          cfg.SchedulerBatchSize,
	}
}

// SweepResult summarizes one pass over the stale tasks.
type SweepResult struct {
	Scanned  int
	Assigned int
	Skipped  int
	Failed   int
}

// AutoAssignmentScheduler periodically assigns tasks that stayed pending
// past the staleness threshold.
type AutoAssignmentScheduler struct {
	source     StaleTaskSource
	assigner   Assigner
	clock      clock.Clock
	config     Config
	logger     *slog.Logger
	errHandler func(task *domain.Task, err error)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an AutoAssignmentScheduler. Invalid config values fall back
// to DefaultConfig.
func New(
	source StaleTaskSource,
	assigner Assigner,
	clk clock.Clock,
	cfg Config,
	log *slog.Logger,
) *AutoAssignmentScheduler {
	if log == nil {
		log = slog.Default()
	}
	if clk == nil {
		clk = clock.Real()
	}
	log = log.With("component", "auto_assignment_scheduler")

	defaults := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.StalenessThreshold < 0 {
		cfg.StalenessThreshold = defaults.StalenessThreshold
	}
	if cfg.WorkerCount <= 0 {
		log.Warn("invalid worker count specified, using default",
			"specified_count", cfg.WorkerCount,
			"default_count", 1)
		cfg.WorkerCount = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}

	s := &AutoAssignmentScheduler{
		source:   source,
		assigner: assigner,
		clock:    clk,
		config:   cfg,
		logger:   log,
	}
	s.errHandler = func(task *domain.Task, err error) {
		s.logger.Error("background assignment failed",
			"task_id", task.ID.String(),
			"department", string(task.Department),
			"error", err)
	}
	return s
}

// SetErrorHandler replaces the handler called for each task that fails to
// be assigned. The default handler logs the failure.
func (s *AutoAssignmentScheduler) SetErrorHandler(handler func(task *domain.Task, err error)) {
	s.errHandler = handler
}

// Start runs the sweep loop in the background until Stop is called or ctx
// is cancelled.
func (s *AutoAssignmentScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	return nil
}

// Stop cancels the background loop and waits for an in-flight sweep to
// finish.
func (s *AutoAssignmentScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run sweeps once per interval until ctx is cancelled. It returns nil on
// cancellation; a failed sweep is logged and the loop continues.
func (s *AutoAssignmentScheduler) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started",
		"interval", s.config.Interval.String(),
		"staleness_threshold", s.config.StalenessThreshold.String(),
		"workers", s.config.WorkerCount)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil

		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("scheduler sweep failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single sweep. Per-task failures are counted and handed
// to the error handler; only a failure to list tasks is returned.
func (s *AutoAssignmentScheduler) RunOnce(ctx context.Context) (SweepResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cutoff := s.clock.Now().Add(-s.config.StalenessThreshold)
	tasks, err := s.source.ListStaleUnassigned(ctx, cutoff, s.config.BatchSize)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list stale tasks: %w", err)
	}

	res := SweepResult{Scanned: len(tasks)}
	if len(tasks) == 0 {
		log.Debug("no stale tasks")
		return res, nil
	}

	jobs := make(chan *domain.Task)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	workers := min(s.config.WorkerCount, len(tasks))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				assigned, err := s.processTask(ctx, task)

				mu.Lock()
				switch {
				case err != nil:
					res.Failed++
				case assigned:
					res.Assigned++
				default:
					res.Skipped++
				}
				mu.Unlock()

				if err != nil {
					s.errHandler(task, err)
				}
			}
		}()
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		jobs <- task
	}
	close(jobs)
	wg.Wait()

	log.Info("scheduler sweep finished",
		"scanned", res.Scanned,
		"assigned", res.Assigned,
		"skipped", res.Skipped,
		"failed", res.Failed)
	return res, nil
}

// processTask offers one task to the assigner. A panic is converted into an
// error so the rest of the batch still runs.
func (s *AutoAssignmentScheduler) processTask(ctx context.Context, task *domain.Task) (assigned bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", service.ErrSyncFailure, r)
		}
	}()

	assigned, err = s.assigner.AutoAssign(ctx, task)
	if err != nil {
		return false, fmt.Errorf("%w: %w", service.ErrSyncFailure, err)
	}
	return assigned, nil
}
