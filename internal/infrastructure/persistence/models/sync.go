package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/orderdash/backend/internal/domain/syncstate"
)

// SyncCheckpointModel is the persistence model for a sync checkpoint. The
// composite unique index guarantees one row per (sync type, source) pair.
type SyncCheckpointModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	SyncType        string     `gorm:"type:varchar(30);not null;uniqueIndex:uq_checkpoints_type_source,priority:1"`
	Source          string     `gorm:"type:varchar(50);not null;uniqueIndex:uq_checkpoints_type_source,priority:2"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending'"`
	LastSyncAt      time.Time  `gorm:"not null"`
	SyncStartedAt   *time.Time ``
	SyncCompletedAt *time.Time ``
	SyncedCount     int        `gorm:"not null;default:0"`
	CreatedCount    int        `gorm:"not null;default:0"`
	UpdatedCount    int        `gorm:"not null;default:0"`
	FailedCount     int        `gorm:"not null;default:0"`
	MetadataJSON    string     `gorm:"type:jsonb;column:metadata"`
	ErrorMessage    string     `gorm:"type:text"`
	CreatedAt       time.Time  `gorm:"not null"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncCheckpointModel) TableName() string {
	return "sync_checkpoints"
}

// ToDomain converts the persistence model to a domain checkpoint.
func (m *SyncCheckpointModel) ToDomain() *syncstate.SyncCheckpoint {
	c := &syncstate.SyncCheckpoint{
		ID:              m.ID,
		SyncType:        syncstate.SyncType(m.SyncType),
		Source:          m.Source,
		Status:          syncstate.CheckpointStatus(m.Status),
		LastSyncAt:      m.LastSyncAt,
		SyncStartedAt:   m.SyncStartedAt,
		SyncCompletedAt: m.SyncCompletedAt,
		SyncedCount:     m.SyncedCount,
		CreatedCount:    m.CreatedCount,
		UpdatedCount:    m.UpdatedCount,
		FailedCount:     m.FailedCount,
		ErrorMessage:    m.ErrorMessage,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.MetadataJSON != "" {
		var meta map[string]string
		if err := json.Unmarshal([]byte(m.MetadataJSON), &meta); err == nil {
			c.Metadata = meta
		}
	}
	return c
}

// FromDomain populates the persistence model from a domain checkpoint.
func (m *SyncCheckpointModel) FromDomain(c *syncstate.SyncCheckpoint) {
	m.ID = c.ID
	m.SyncType = c.SyncType.String()
	m.Source = c.Source
	m.Status = string(c.Status)
	m.LastSyncAt = c.LastSyncAt
	m.SyncStartedAt = c.SyncStartedAt
	m.SyncCompletedAt = c.SyncCompletedAt
	m.SyncedCount = c.SyncedCount
	m.CreatedCount = c.CreatedCount
	m.UpdatedCount = c.UpdatedCount
	m.FailedCount = c.FailedCount
	m.ErrorMessage = c.ErrorMessage
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt

	if len(c.Metadata) > 0 {
		if jsonBytes, err := json.Marshal(c.Metadata); err == nil {
			m.MetadataJSON = string(jsonBytes)
		}
	} else {
		m.MetadataJSON = "{}"
	}
}

// SyncCheckpointModelFromDomain creates a new persistence model from a domain checkpoint.
func SyncCheckpointModelFromDomain(c *syncstate.SyncCheckpoint) *SyncCheckpointModel {
	m := &SyncCheckpointModel{}
	m.FromDomain(c)
	return m
}

// FailedSyncRecordModel is the persistence model for a failed-order record.
type FailedSyncRecordModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key"`
	SyncType         string     `gorm:"type:varchar(30);not null;index"`
	OrderID          string     `gorm:"type:varchar(64);index"`
	OrderNumber      *int64     `gorm:"index"`
	Reason           string     `gorm:"type:varchar(30);not null"`
	ErrorMessage     string     `gorm:"type:text"`
	RawPayload       string     `gorm:"type:jsonb"`
	ExceptionContext string     `gorm:"type:text"`
	AttemptCount     int        `gorm:"not null;default:1"`
	LastAttemptAt    time.Time  `gorm:"not null"`
	NextRetryAt      time.Time  `gorm:"not null;index:idx_failed_sync_retry,priority:2"`
	Resolved         bool       `gorm:"not null;default:false;index:idx_failed_sync_retry,priority:1"`
	ResolvedAt       *time.Time ``
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FailedSyncRecordModel) TableName() string {
	return "failed_sync_records"
}

// ToDomain converts the persistence model to a domain failed record.
func (m *FailedSyncRecordModel) ToDomain() *syncstate.FailedSyncRecord {
	return &syncstate.FailedSyncRecord{
		ID:               m.ID,
		SyncType:         syncstate.SyncType(m.SyncType),
		OrderID:          m.OrderID,
		OrderNumber:      m.OrderNumber,
		Reason:           syncstate.FailureReason(m.Reason),
		ErrorMessage:     m.ErrorMessage,
		RawPayload:       m.RawPayload,
		ExceptionContext: m.ExceptionContext,
		AttemptCount:     m.AttemptCount,
		LastAttemptAt:    m.LastAttemptAt,
		NextRetryAt:      m.NextRetryAt,
		Resolved:         m.Resolved,
		ResolvedAt:       m.ResolvedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain failed record.
func (m *FailedSyncRecordModel) FromDomain(r *syncstate.FailedSyncRecord) {
	m.ID = r.ID
	m.SyncType = r.SyncType.String()
	m.OrderID = r.OrderID
	m.OrderNumber = r.OrderNumber
	m.Reason = string(r.Reason)
	m.ErrorMessage = r.ErrorMessage
	m.RawPayload = r.RawPayload
	m.ExceptionContext = r.ExceptionContext
	m.AttemptCount = r.AttemptCount
	m.LastAttemptAt = r.LastAttemptAt
	m.NextRetryAt = r.NextRetryAt
	m.Resolved = r.Resolved
	m.ResolvedAt = r.ResolvedAt
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
}

// SyncLogModel is the persistence model for one sync run summary.
type SyncLogModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	SyncType     string    `gorm:"type:varchar(30);not null;index"`
	Status       string    `gorm:"type:varchar(20);not null"`
	StartedAt    time.Time `gorm:"not null;index"`
	CompletedAt  time.Time `gorm:"not null"`
	FetchedCount int       `gorm:"not null;default:0"`
	CreatedCount int       `gorm:"not null;default:0"`
	UpdatedCount int       `gorm:"not null;default:0"`
	SkippedCount int       `gorm:"not null;default:0"`
	FailedCount  int       `gorm:"not null;default:0"`
	ErrorMessage string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain sync log.
func (m *SyncLogModel) ToDomain() *syncstate.SyncLog {
	return &syncstate.SyncLog{
		ID:           m.ID,
		SyncType:     syncstate.SyncType(m.SyncType),
		Status:       syncstate.RunStatus(m.Status),
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
		FetchedCount: m.FetchedCount,
		CreatedCount: m.CreatedCount,
		UpdatedCount: m.UpdatedCount,
		SkippedCount: m.SkippedCount,
		FailedCount:  m.FailedCount,
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain sync log.
func (m *SyncLogModel) FromDomain(l *syncstate.SyncLog) {
	m.ID = l.ID
	m.SyncType = l.SyncType.String()
	m.Status = string(l.Status)
	m.StartedAt = l.StartedAt
	m.CompletedAt = l.CompletedAt
	m.FetchedCount = l.FetchedCount
	m.CreatedCount = l.CreatedCount
	m.UpdatedCount = l.UpdatedCount
	m.SkippedCount = l.SkippedCount
	m.FailedCount = l.FailedCount
	m.ErrorMessage = l.ErrorMessage
	m.CreatedAt = l.CreatedAt
}

// RemoteConnectionModel is the persistence model for remote connection state.
type RemoteConnectionModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	AccountID      string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Token          string    `gorm:"type:varchar(255)"`
	Server         string    `gorm:"type:varchar(255)"`
	TokenExpiresAt time.Time ``
	Status         string    `gorm:"type:varchar(20);not null;default:'failed'"`
	LastAuthAt     time.Time ``
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RemoteConnectionModel) TableName() string {
	return "remote_connections"
}

// ToDomain converts the persistence model to a domain connection.
func (m *RemoteConnectionModel) ToDomain() *syncstate.RemoteConnection {
	return &syncstate.RemoteConnection{
		ID:             m.ID,
		AccountID:      m.AccountID,
		Token:          m.Token,
		Server:         m.Server,
		TokenExpiresAt: m.TokenExpiresAt,
		Status:         syncstate.ConnectionStatus(m.Status),
		LastAuthAt:     m.LastAuthAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain connection.
func (m *RemoteConnectionModel) FromDomain(c *syncstate.RemoteConnection) {
	m.ID = c.ID
	m.AccountID = c.AccountID
	m.Token = c.Token
	m.Server = c.Server
	m.TokenExpiresAt = c.TokenExpiresAt
	m.Status = string(c.Status)
	m.LastAuthAt = c.LastAuthAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}
