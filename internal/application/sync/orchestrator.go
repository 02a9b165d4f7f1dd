package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/orderdash/backend/internal/domain/orders"
	"github.com/orderdash/backend/internal/domain/syncstate"
)

// Source is the remote system name stamped onto checkpoints.
const Source = "linnworks"

// OrderFetcher pulls raw order payloads from the remote system. The
// orchestrator never sees pages; the fetcher owns pagination and per-page
// retry.
type OrderFetcher interface {
	FetchAllOpenOrders(ctx context.Context) ([]orders.RawOrder, error)
	FetchAllProcessedOrders(ctx context.Context, from, to time.Time) ([]orders.RawOrder, error)
}

// TokenProvider guarantees a usable remote session before a run fetches
// anything, so an expired credential fails the run up front instead of
// halfway through.
type TokenProvider interface {
	GetValidToken(ctx context.Context) (string, error)
}

// RunSummary reports the outcome of one sync run.
type RunSummary struct {
	SyncType syncstate.SyncType
	Status   syncstate.RunStatus
	Fetched  int
	Created  int
	Updated  int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// Orchestrator drives the full pipeline for one run: gate on the
// checkpoint, fetch, normalize, deduplicate, filter, persist, and record
// the outcome. Failures of individual orders never abort the run; only
// run-level errors (auth, fetch) do.
type Orchestrator struct {
	fetcher        OrderFetcher
	tokens         TokenProvider
	orderRepo      orders.Repository
	checkpointRepo syncstate.CheckpointRepository
	failedRepo     syncstate.FailedSyncRepository
	logRepo        syncstate.SyncLogRepository
	logger         *zap.Logger

	now func() time.Time
}

// NewOrchestrator creates a sync orchestrator.
func NewOrchestrator(
	fetcher OrderFetcher,
	tokens TokenProvider,
	orderRepo orders.Repository,
	checkpointRepo syncstate.CheckpointRepository,
	failedRepo syncstate.FailedSyncRepository,
	logRepo syncstate.SyncLogRepository,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		fetcher:        fetcher,
		tokens:         tokens,
		orderRepo:      orderRepo,
		checkpointRepo: checkpointRepo,
		failedRepo:     failedRepo,
		logRepo:        logRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// RunIfDue runs a sync only when the checkpoint says one is due. A run that
// is not due is not an error and produces no log entry.
func (o *Orchestrator) RunIfDue(ctx context.Context, syncType syncstate.SyncType, intervalMinutes int) (*RunSummary, error) {
	if !syncType.IsValid() {
		return nil, syncstate.ErrInvalidSyncType
	}
	cp, err := o.checkpointRepo.GetOrCreate(ctx, syncType, Source)
	if err != nil {
		return nil, err
	}
	if !cp.ShouldSync(intervalMinutes) {
		return nil, nil
	}
	return o.Run(ctx, syncType)
}

// Run executes one sync run unconditionally, except for the in-progress
// gate: a fresh concurrent run blocks this one with ErrSyncInProgress,
// while a stale one is taken over.
func (o *Orchestrator) Run(ctx context.Context, syncType syncstate.SyncType) (*RunSummary, error) {
	if !syncType.IsValid() {
		return nil, syncstate.ErrInvalidSyncType
	}

	cp, err := o.checkpointRepo.GetOrCreate(ctx, syncType, Source)
	if err != nil {
		return nil, err
	}
	if cp.Status == syncstate.CheckpointStatusInProgress &&
		cp.SyncStartedAt != nil &&
		o.now().Sub(*cp.SyncStartedAt) < syncstate.StalenessWindow {
		return nil, syncstate.ErrSyncInProgress
	}

	runLog := syncstate.NewSyncLog(syncType)
	logger := o.logger.With(
		zap.String("sync_type", syncType.String()),
		zap.String("run_id", runLog.ID.String()))
	logger.Info("sync run starting")

	// The window is captured before StartSync so a completed checkpoint's
	// boundary is still visible.
	from := cp.IncrementalStartDate()
	to := o.now()

	cp.StartSync()
	if err := o.checkpointRepo.Save(ctx, cp); err != nil {
		return nil, err
	}

	// Fail fast on a dead credential before paging anything.
	if _, err := o.tokens.GetValidToken(ctx); err != nil {
		return o.failRun(ctx, cp, runLog, logger, fmt.Errorf("authentication: %w", err))
	}

	raw, err := o.fetch(ctx, syncType, from, to)
	if err != nil {
		return o.failRun(ctx, cp, runLog, logger, fmt.Errorf("fetch: %w", err))
	}

	summary := o.ingest(ctx, syncType, raw, logger)
	summary.SyncType = syncType

	cp.CompleteSync(summary.Fetched, summary.Created, summary.Updated, summary.Failed, map[string]string{
		"window_from": from.UTC().Format(time.RFC3339),
		"window_to":   to.UTC().Format(time.RFC3339),
	})
	if err := o.checkpointRepo.Save(ctx, cp); err != nil {
		logger.Error("failed to save checkpoint", zap.Error(err))
	}

	runLog.Finish(summary.Status, summary.Fetched, summary.Created, summary.Updated, summary.Skipped, summary.Failed, "")
	if err := o.logRepo.Save(ctx, runLog); err != nil {
		logger.Error("failed to save sync log", zap.Error(err))
	}
	summary.Duration = runLog.Duration()

	logger.Info("sync run finished",
		zap.String("status", string(summary.Status)),
		zap.Int("fetched", summary.Fetched),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.String("duration", runLog.DurationString()))

	return summary, nil
}

// fetch pulls the raw batch for the sync type. Open orders are always
// fetched in full since the view is the current state; processed orders are
// fetched incrementally from the checkpoint boundary.
func (o *Orchestrator) fetch(ctx context.Context, syncType syncstate.SyncType, from, to time.Time) ([]orders.RawOrder, error) {
	switch syncType {
	case syncstate.SyncTypeOpenOrders:
		return o.fetcher.FetchAllOpenOrders(ctx)
	case syncstate.SyncTypeProcessedOrders:
		return o.fetcher.FetchAllProcessedOrders(ctx, from, to)
	default:
		return nil, syncstate.ErrInvalidSyncType
	}
}

// ingest runs the in-memory half of the pipeline and persists the
// survivors one order at a time, so one bad order costs exactly one order.
func (o *Orchestrator) ingest(ctx context.Context, syncType syncstate.SyncType, raw []orders.RawOrder, logger *zap.Logger) *RunSummary {
	summary := &RunSummary{Fetched: len(raw)}

	// Normalize everything; reject only orders with no usable identity.
	valid := make([]*orders.CanonicalOrder, 0, len(raw))
	for _, r := range raw {
		order := orders.Normalize(r)
		if !order.HasIdentity() {
			summary.Failed++
			o.recordFailure(ctx, syncType, order, syncstate.FailureReasonValidation, orders.ErrMissingIdentity.Error(), logger)
			continue
		}
		valid = append(valid, order)
	}

	deduped := orders.Deduplicate(valid)
	dedup := orders.DedupStats(valid, deduped)
	summary.Skipped += dedup.Duplicates
	if dedup.Duplicates > 0 {
		logger.Debug("intra-batch duplicates collapsed",
			zap.Int("batch", dedup.Original),
			zap.Int("unique", dedup.Unique),
			zap.Int("duplicates", dedup.Duplicates),
			zap.Float64("duplicate_rate", dedup.DuplicateRate))
	}

	// One batched existence query instead of one lookup per order.
	ids, numbers := orders.BatchKeys(deduped)
	existing, err := o.orderRepo.ExistingKeys(ctx, ids, numbers)
	if err != nil {
		// Degrade to relying on the uniqueness backstop per insert.
		logger.Warn("existence query failed, falling back to per-order inserts", zap.Error(err))
		existing = orders.NewKeySet(nil, nil)
	}

	// Already-stored orders: a processed copy carries fresher state worth
	// folding in; anything else is a pure skip.
	for _, order := range deduped {
		if !existing.Contains(order) {
			continue
		}
		if !order.IsProcessed() {
			summary.Skipped++
			continue
		}
		updated, err := o.orderRepo.MarkProcessed(ctx, order)
		switch {
		case err != nil:
			summary.Failed++
			o.recordFailure(ctx, syncType, order, syncstate.FailureReasonPersistence, err.Error(), logger)
		case updated:
			summary.Updated++
		default:
			// The stored row was already processed; nothing changed.
			summary.Skipped++
		}
	}

	for _, order := range orders.FilterExisting(deduped, existing) {
		if err := o.orderRepo.Save(ctx, order); err != nil {
			if errors.Is(err, orders.ErrOrderExists) {
				summary.Skipped++
				continue
			}
			summary.Failed++
			o.recordFailure(ctx, syncType, order, syncstate.FailureReasonPersistence, err.Error(), logger)
			continue
		}
		summary.Created++
	}

	summary.Status = runStatus(summary)
	return summary
}

// recordFailure isolates one bad order into a failed-sync record carrying
// its raw payload, so it can be replayed without refetching.
func (o *Orchestrator) recordFailure(ctx context.Context, syncType syncstate.SyncType, order *orders.CanonicalOrder, reason syncstate.FailureReason, message string, logger *zap.Logger) {
	record := syncstate.NewFailedSyncRecord(syncType, order.OrderID, order.OrderNumber, reason, message, order.RawData)
	if err := o.failedRepo.Save(ctx, record); err != nil {
		logger.Error("failed to record sync failure",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}
	logger.Warn("order failed to ingest",
		zap.String("order_id", order.OrderID),
		zap.String("reason", string(reason)),
		zap.String("error", message))
}

// runStatus derives the run outcome from the counters.
func runStatus(s *RunSummary) syncstate.RunStatus {
	switch {
	case s.Failed == 0:
		return syncstate.RunStatusCompleted
	case s.Created+s.Updated+s.Skipped > 0:
		return syncstate.RunStatusPartial
	default:
		return syncstate.RunStatusFailed
	}
}

// failRun records a run-level failure on both the checkpoint and the sync
// log, leaving the incremental boundary untouched.
func (o *Orchestrator) failRun(ctx context.Context, cp *syncstate.SyncCheckpoint, runLog *syncstate.SyncLog, logger *zap.Logger, runErr error) (*RunSummary, error) {
	logger.Error("sync run failed", zap.Error(runErr))

	cp.FailSync(runErr.Error())
	if err := o.checkpointRepo.Save(ctx, cp); err != nil {
		logger.Error("failed to save checkpoint", zap.Error(err))
	}

	runLog.Finish(syncstate.RunStatusFailed, 0, 0, 0, 0, 0, runErr.Error())
	if err := o.logRepo.Save(ctx, runLog); err != nil {
		logger.Error("failed to save sync log", zap.Error(err))
	}

	return nil, runErr
}

// ---------------------------------------------------------------------------
// Failed-record retry
// ---------------------------------------------------------------------------

// RetrySummary reports the outcome of one failed-record retry pass.
type RetrySummary struct {
	Attempted int
	Resolved  int
	Deferred  int
}

// RetryFailed replays due failed-sync records from their stored payload
// snapshots. Records that make it into storage (or turn out to already be
// there) are resolved; the rest are pushed further out on the backoff
// schedule.
func (o *Orchestrator) RetryFailed(ctx context.Context, batchSize int) (*RetrySummary, error) {
	records, err := o.failedRepo.FindRetryable(ctx, o.now(), batchSize)
	if err != nil {
		return nil, err
	}

	summary := &RetrySummary{Attempted: len(records)}
	for i := range records {
		record := &records[i]
		if o.retryRecord(ctx, record) {
			record.Resolve()
			summary.Resolved++
		} else {
			summary.Deferred++
		}
		if err := o.failedRepo.Save(ctx, record); err != nil {
			o.logger.Error("failed to save retry outcome",
				zap.String("record_id", record.ID.String()),
				zap.Error(err))
		}
	}

	if summary.Attempted > 0 {
		o.logger.Info("failed-record retry pass finished",
			zap.Int("attempted", summary.Attempted),
			zap.Int("resolved", summary.Resolved),
			zap.Int("deferred", summary.Deferred))
	}
	return summary, nil
}

// retryRecord attempts one record and reports whether it is now resolved.
func (o *Orchestrator) retryRecord(ctx context.Context, record *syncstate.FailedSyncRecord) bool {
	var raw orders.RawOrder
	if err := json.Unmarshal([]byte(record.RawPayload), &raw); err != nil {
		record.RecordAttempt(fmt.Sprintf("payload snapshot unreadable: %v", err))
		return false
	}

	order := orders.Normalize(raw)
	if !order.HasIdentity() {
		// Still invalid; the payload will not grow an identity on its own,
		// but the capped backoff keeps the cost of carrying it negligible.
		record.RecordAttempt(orders.ErrMissingIdentity.Error())
		return false
	}

	err := o.orderRepo.Save(ctx, order)
	if err == nil || errors.Is(err, orders.ErrOrderExists) {
		return true
	}
	record.RecordAttempt(err.Error())
	return false
}
