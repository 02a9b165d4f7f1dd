package syncstate

import (
	"time"

	"github.com/google/uuid"
)

// FailureReason classifies why an order could not be ingested.
type FailureReason string

const (
	// FailureReasonValidation marks orders lacking both identifier and number
	FailureReasonValidation FailureReason = "validation"
	// FailureReasonPersistence marks single-order insert failures
	FailureReasonPersistence FailureReason = "persistence"
)

// retryBackoff is the increasing schedule applied per attempt; records past
// the end of the schedule stay on the final interval.
var retryBackoff = []time.Duration{
	1 * time.Hour,
	6 * time.Hour,
	24 * time.Hour,
}

// FailedSyncRecord captures one order that could not be ingested, with a
// raw payload snapshot so the ingest can be replayed without refetching.
// Attempt count only increases; records are retried only when unresolved
// and their next-retry time has elapsed.
type FailedSyncRecord struct {
	ID               uuid.UUID
	SyncType         SyncType
	OrderID          string
	OrderNumber      *int64
	Reason           FailureReason
	ErrorMessage     string
	RawPayload       string
	ExceptionContext string
	AttemptCount     int
	LastAttemptAt    time.Time
	NextRetryAt      time.Time
	Resolved         bool
	ResolvedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewFailedSyncRecord records a first failed attempt for an order.
func NewFailedSyncRecord(syncType SyncType, orderID string, orderNumber *int64, reason FailureReason, errMessage, rawPayload string) *FailedSyncRecord {
	now := time.Now()
	return &FailedSyncRecord{
		ID:            uuid.New(),
		SyncType:      syncType,
		OrderID:       orderID,
		OrderNumber:   orderNumber,
		Reason:        reason,
		ErrorMessage:  errMessage,
		RawPayload:    rawPayload,
		AttemptCount:  1,
		LastAttemptAt: now,
		NextRetryAt:   now.Add(retryBackoff[0]),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RecordAttempt registers another failed attempt and pushes the next retry
// out along the backoff schedule.
func (r *FailedSyncRecord) RecordAttempt(errMessage string) {
	now := time.Now()
	r.AttemptCount++
	r.ErrorMessage = errMessage
	r.LastAttemptAt = now
	r.NextRetryAt = now.Add(backoffFor(r.AttemptCount))
	r.UpdatedAt = now
}

// Resolve marks the record as successfully ingested.
func (r *FailedSyncRecord) Resolve() {
	now := time.Now()
	r.Resolved = true
	r.ResolvedAt = &now
	r.UpdatedAt = now
}

// EligibleForRetry reports whether the record may be retried at the given
// time.
func (r *FailedSyncRecord) EligibleForRetry(now time.Time) bool {
	return !r.Resolved && !now.Before(r.NextRetryAt)
}

func backoffFor(attempt int) time.Duration {
	idx := attempt - 1
	if idx >= len(retryBackoff) {
		idx = len(retryBackoff) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return retryBackoff[idx]
}
