package dto

import (
	"time"

	"github.com/orderdash/backend/internal/domain/syncstate"
)

// CheckpointResponse represents one sync checkpoint
type CheckpointResponse struct {
	ID              string            `json:"id"`
	SyncType        string            `json:"sync_type"`
	Source          string            `json:"source"`
	Status          string            `json:"status"`
	LastSyncAt      time.Time         `json:"last_sync_at"`
	SyncStartedAt   *time.Time        `json:"sync_started_at,omitempty"`
	SyncCompletedAt *time.Time        `json:"sync_completed_at,omitempty"`
	SyncedCount     int               `json:"synced_count"`
	CreatedCount    int               `json:"created_count"`
	UpdatedCount    int               `json:"updated_count"`
	FailedCount     int               `json:"failed_count"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	ErrorMessage    string            `json:"error_message,omitempty"`
}

// CheckpointFromDomain maps a checkpoint to its API shape.
func CheckpointFromDomain(cp *syncstate.SyncCheckpoint) CheckpointResponse {
	return CheckpointResponse{
		ID:              cp.ID.String(),
		SyncType:        cp.SyncType.String(),
		Source:          cp.Source,
		Status:          string(cp.Status),
		LastSyncAt:      cp.LastSyncAt,
		SyncStartedAt:   cp.SyncStartedAt,
		SyncCompletedAt: cp.SyncCompletedAt,
		SyncedCount:     cp.SyncedCount,
		CreatedCount:    cp.CreatedCount,
		UpdatedCount:    cp.UpdatedCount,
		FailedCount:     cp.FailedCount,
		Metadata:        cp.Metadata,
		ErrorMessage:    cp.ErrorMessage,
	}
}

// SyncLogResponse represents one sync run summary
type SyncLogResponse struct {
	ID           string    `json:"id"`
	SyncType     string    `json:"sync_type"`
	Status       string    `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	Duration     string    `json:"duration"`
	FetchedCount int       `json:"fetched_count"`
	CreatedCount int       `json:"created_count"`
	UpdatedCount int       `json:"updated_count"`
	SkippedCount int       `json:"skipped_count"`
	FailedCount  int       `json:"failed_count"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// SyncLogFromDomain maps a run log to its API shape.
func SyncLogFromDomain(log *syncstate.SyncLog) SyncLogResponse {
	return SyncLogResponse{
		ID:           log.ID.String(),
		SyncType:     log.SyncType.String(),
		Status:       string(log.Status),
		StartedAt:    log.StartedAt,
		CompletedAt:  log.CompletedAt,
		Duration:     log.DurationString(),
		FetchedCount: log.FetchedCount,
		CreatedCount: log.CreatedCount,
		UpdatedCount: log.UpdatedCount,
		SkippedCount: log.SkippedCount,
		FailedCount:  log.FailedCount,
		ErrorMessage: log.ErrorMessage,
	}
}

// FailedRecordResponse represents one failed-sync record
type FailedRecordResponse struct {
	ID            string     `json:"id"`
	SyncType      string     `json:"sync_type"`
	OrderID       string     `json:"order_id,omitempty"`
	OrderNumber   *int64     `json:"order_number,omitempty"`
	Reason        string     `json:"reason"`
	ErrorMessage  string     `json:"error_message"`
	AttemptCount  int        `json:"attempt_count"`
	LastAttemptAt time.Time  `json:"last_attempt_at"`
	NextRetryAt   time.Time  `json:"next_retry_at"`
	Resolved      bool       `json:"resolved"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FailedRecordFromDomain maps a failed record to its API shape. The raw
// payload snapshot is deliberately not exposed.
func FailedRecordFromDomain(r *syncstate.FailedSyncRecord) FailedRecordResponse {
	return FailedRecordResponse{
		ID:            r.ID.String(),
		SyncType:      r.SyncType.String(),
		OrderID:       r.OrderID,
		OrderNumber:   r.OrderNumber,
		Reason:        string(r.Reason),
		ErrorMessage:  r.ErrorMessage,
		AttemptCount:  r.AttemptCount,
		LastAttemptAt: r.LastAttemptAt,
		NextRetryAt:   r.NextRetryAt,
		Resolved:      r.Resolved,
		ResolvedAt:    r.ResolvedAt,
		CreatedAt:     r.CreatedAt,
	}
}

// RunSummaryResponse represents the outcome of a manually triggered run
type RunSummaryResponse struct {
	SyncType string `json:"sync_type"`
	Status   string `json:"status"`
	Fetched  int    `json:"fetched"`
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
	Duration string `json:"duration"`
}

// RetrySummaryResponse represents the outcome of a failed-record retry pass
type RetrySummaryResponse struct {
	Attempted int `json:"attempted"`
	Resolved  int `json:"resolved"`
	Deferred  int `json:"deferred"`
}
