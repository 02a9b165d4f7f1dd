package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appsync "github.com/orderdash/backend/internal/application/sync"
	"github.com/orderdash/backend/internal/domain/syncstate"
)

type fakeRunner struct {
	mu         sync.Mutex
	runs       map[syncstate.SyncType]int
	intervals  map[syncstate.SyncType]int
	retries    int
	runErr     error
	runSummary *appsync.RunSummary
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		runs:      make(map[syncstate.SyncType]int),
		intervals: make(map[syncstate.SyncType]int),
	}
}

func (f *fakeRunner) RunIfDue(ctx context.Context, syncType syncstate.SyncType, intervalMinutes int) (*appsync.RunSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[syncType]++
	f.intervals[syncType] = intervalMinutes
	return f.runSummary, f.runErr
}

func (f *fakeRunner) RetryFailed(ctx context.Context, batchSize int) (*appsync.RetrySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retries++
	return &appsync.RetrySummary{}, nil
}

func (f *fakeRunner) runCount(syncType syncstate.SyncType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs[syncType]
}

func (f *fakeRunner) retryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.retries
}

func testSchedulerConfig() SyncSchedulerConfig {
	cfg := DefaultSyncSchedulerConfig()
	cfg.PollInterval = 10 * time.Millisecond
	return cfg
}

func TestSyncSchedulerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SyncSchedulerConfig)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *SyncSchedulerConfig) {}},
		{name: "zero poll interval", mutate: func(c *SyncSchedulerConfig) { c.PollInterval = 0 }, wantErr: true},
		{name: "zero open orders interval", mutate: func(c *SyncSchedulerConfig) { c.OpenOrdersInterval = 0 }, wantErr: true},
		{name: "negative processed interval", mutate: func(c *SyncSchedulerConfig) { c.ProcessedOrdersInterval = -1 }, wantErr: true},
		{name: "zero workers", mutate: func(c *SyncSchedulerConfig) { c.MaxConcurrentJobs = 0 }, wantErr: true},
		{name: "zero job timeout", mutate: func(c *SyncSchedulerConfig) { c.JobTimeout = 0 }, wantErr: true},
		{name: "retry enabled with zero batch", mutate: func(c *SyncSchedulerConfig) { c.FailedRetryBatchSize = 0 }, wantErr: true},
		{name: "retry disabled ignores batch", mutate: func(c *SyncSchedulerConfig) {
			c.FailedRetryEnabled = false
			c.FailedRetryBatchSize = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSyncSchedulerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSyncScheduler_DispatchesDueJobs(t *testing.T) {
	runner := newFakeRunner()
	s, err := NewSyncScheduler(testSchedulerConfig(), runner, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool {
		return runner.runCount(syncstate.SyncTypeOpenOrders) >= 2 &&
			runner.runCount(syncstate.SyncTypeProcessedOrders) >= 2 &&
			runner.retryCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, 15, runner.intervals[syncstate.SyncTypeOpenOrders])
	assert.Equal(t, 60, runner.intervals[syncstate.SyncTypeProcessedOrders])
}

func TestSyncScheduler_RetryPassCanBeDisabled(t *testing.T) {
	runner := newFakeRunner()
	cfg := testSchedulerConfig()
	cfg.FailedRetryEnabled = false

	s, err := NewSyncScheduler(cfg, runner, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool {
		return runner.runCount(syncstate.SyncTypeOpenOrders) >= 2
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, 0, runner.retryCount())
}

func TestSyncScheduler_InProgressIsNotAnError(t *testing.T) {
	runner := newFakeRunner()
	runner.runErr = syncstate.ErrSyncInProgress

	s, err := NewSyncScheduler(testSchedulerConfig(), runner, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool {
		return runner.runCount(syncstate.SyncTypeOpenOrders) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.NoError(t, s.Stop(context.Background()))
}

func TestSyncScheduler_StartIsIdempotent(t *testing.T) {
	runner := newFakeRunner()
	s, err := NewSyncScheduler(testSchedulerConfig(), runner, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestSyncScheduler_StopWithoutStart(t *testing.T) {
	runner := newFakeRunner()
	s, err := NewSyncScheduler(testSchedulerConfig(), runner, zap.NewNop())
	require.NoError(t, err)

	assert.NoError(t, s.Stop(context.Background()))
}

func TestSyncScheduler_StopHaltsDispatch(t *testing.T) {
	runner := newFakeRunner()
	s, err := NewSyncScheduler(testSchedulerConfig(), runner, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool {
		return runner.runCount(syncstate.SyncTypeOpenOrders) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := runner.runCount(syncstate.SyncTypeOpenOrders)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runner.runCount(syncstate.SyncTypeOpenOrders))
}

func TestNewSyncScheduler_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultSyncSchedulerConfig()
	cfg.PollInterval = 0

	_, err := NewSyncScheduler(cfg, newFakeRunner(), zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
