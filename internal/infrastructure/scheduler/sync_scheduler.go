package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/orderdash/backend/internal/application/sync"
	"github.com/orderdash/backend/internal/domain/syncstate"
	"github.com/orderdash/backend/internal/infrastructure/logger"
)

// SyncRunner is the slice of the orchestrator the scheduler drives.
type SyncRunner interface {
	RunIfDue(ctx context.Context, syncType syncstate.SyncType, intervalMinutes int) (*appsync.RunSummary, error)
	RetryFailed(ctx context.Context, batchSize int) (*appsync.RetrySummary, error)
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// SyncSchedulerConfig holds configuration for the background sync scheduler.
type SyncSchedulerConfig struct {
	// PollInterval is how often the scheduler checks whether a sync is due
	PollInterval time.Duration
	// OpenOrdersInterval is the minimum gap between open-order runs, in minutes
	OpenOrdersInterval int
	// ProcessedOrdersInterval is the minimum gap between processed-order runs, in minutes
	ProcessedOrdersInterval int
	// FailedRetryEnabled turns the failed-record replay pass on
	FailedRetryEnabled bool
	// FailedRetryBatchSize is the maximum records replayed per pass
	FailedRetryBatchSize int
	// MaxConcurrentJobs bounds how many sync runs may execute at once
	MaxConcurrentJobs int
	// JobTimeout is the maximum time one run may take
	JobTimeout time.Duration
}

// DefaultSyncSchedulerConfig returns the default scheduler configuration.
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		PollInterval:            time.Minute,
		OpenOrdersInterval:      15,
		ProcessedOrdersInterval: 60,
		FailedRetryEnabled:      true,
		FailedRetryBatchSize:    50,
		MaxConcurrentJobs:       2,
		JobTimeout:              15 * time.Minute,
	}
}

// Validate validates the configuration.
func (c *SyncSchedulerConfig) Validate() error {
	if c.PollInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.OpenOrdersInterval <= 0 || c.ProcessedOrdersInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.FailedRetryEnabled && c.FailedRetryBatchSize <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncScheduler
// ---------------------------------------------------------------------------

// SyncScheduler periodically wakes up and runs whichever sync pipelines are
// due. The checkpoint is the authority on due-ness, so restarting the
// process never causes an extra run; the scheduler only supplies the
// heartbeat. Each pipeline runs in its own goroutine, bounded by a
// concurrency semaphore.
type SyncScheduler struct {
	config SyncSchedulerConfig
	runner SyncRunner
	logger *zap.Logger

	semaphore chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a background sync scheduler.
func NewSyncScheduler(config SyncSchedulerConfig, runner SyncRunner, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncScheduler{
		config:    config,
		runner:    runner,
		logger:    logger,
		semaphore: make(chan struct{}, config.MaxConcurrentJobs),
	}, nil
}

// Start starts the poll loop. Idempotent.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.pollLoop(ctx)

	s.logger.Info("sync scheduler started",
		zap.Duration("poll_interval", s.config.PollInterval),
		zap.Int("open_orders_interval_min", s.config.OpenOrdersInterval),
		zap.Int("processed_orders_interval_min", s.config.ProcessedOrdersInterval),
		zap.Int("max_concurrent_jobs", s.config.MaxConcurrentJobs))
	return nil
}

// Stop stops the poll loop and waits for in-flight runs to finish, bounded
// by the context deadline.
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("sync scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *SyncScheduler) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	// Run one check immediately so a restart does not wait a full tick.
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick dispatches whichever jobs are due. Dispatch is non-blocking: a tick
// that arrives while all workers are busy is dropped, the next one will
// pick the work up.
func (s *SyncScheduler) tick(ctx context.Context) {
	s.dispatch(ctx, "open_orders_sync", func(jobCtx context.Context) {
		s.runSync(jobCtx, syncstate.SyncTypeOpenOrders, s.config.OpenOrdersInterval)
	})
	s.dispatch(ctx, "processed_orders_sync", func(jobCtx context.Context) {
		s.runSync(jobCtx, syncstate.SyncTypeProcessedOrders, s.config.ProcessedOrdersInterval)
	})
	if s.config.FailedRetryEnabled {
		s.dispatch(ctx, "failed_record_retry", s.runFailedRetry)
	}
}

func (s *SyncScheduler) dispatch(ctx context.Context, name string, job func(context.Context)) {
	select {
	case s.semaphore <- struct{}{}:
	default:
		s.logger.Debug("job slots busy, deferring to next tick", zap.String("job", name))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.semaphore }()

		jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()

		// Tag the job context so every log line of the run, SQL tracing
		// included, carries the same correlation id.
		jobCtx, _ = logger.WithSyncRunID(jobCtx, s.logger, uuid.NewString())
		job(jobCtx)
	}()
}

func (s *SyncScheduler) runSync(ctx context.Context, syncType syncstate.SyncType, intervalMinutes int) {
	summary, err := s.runner.RunIfDue(ctx, syncType, intervalMinutes)
	if err != nil {
		// Another process holding the checkpoint is normal operation.
		if errors.Is(err, syncstate.ErrSyncInProgress) {
			s.logger.Debug("sync already in progress elsewhere",
				zap.String("sync_type", syncType.String()))
			return
		}
		s.logger.Error("scheduled sync failed",
			zap.String("sync_type", syncType.String()),
			zap.Error(err))
		return
	}
	if summary == nil {
		return
	}
	s.logger.Info("scheduled sync completed",
		zap.String("sync_type", syncType.String()),
		zap.String("status", string(summary.Status)),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed))
}

func (s *SyncScheduler) runFailedRetry(ctx context.Context) {
	summary, err := s.runner.RetryFailed(ctx, s.config.FailedRetryBatchSize)
	if err != nil {
		s.logger.Error("failed-record retry pass errored", zap.Error(err))
		return
	}
	if summary.Attempted > 0 {
		s.logger.Info("failed-record retry pass completed",
			zap.Int("attempted", summary.Attempted),
			zap.Int("resolved", summary.Resolved),
			zap.Int("deferred", summary.Deferred))
	}
}
