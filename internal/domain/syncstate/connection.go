package syncstate

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionStatus is the health of the persisted remote connection.
type ConnectionStatus string

const (
	ConnectionStatusActive ConnectionStatus = "active"
	ConnectionStatusFailed ConnectionStatus = "failed"
)

// RemoteConnection is the persisted authentication state against the remote
// system: session token, the API server it is bound to and its expiry. This
// row is the single source of truth for the token; there is no separate
// in-memory cache shared across processes.
type RemoteConnection struct {
	ID             uuid.UUID
	AccountID      string
	Token          string
	Server         string
	TokenExpiresAt time.Time
	Status         ConnectionStatus
	LastAuthAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewRemoteConnection creates connection state for an account.
func NewRemoteConnection(accountID string) *RemoteConnection {
	now := time.Now()
	return &RemoteConnection{
		ID:        uuid.New(),
		AccountID: accountID,
		Status:    ConnectionStatusFailed,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateToken stores a fresh session token with its expiry.
func (c *RemoteConnection) UpdateToken(token, server string, expiresAt time.Time) {
	now := time.Now()
	c.Token = token
	c.Server = server
	c.TokenExpiresAt = expiresAt
	c.Status = ConnectionStatusActive
	c.LastAuthAt = now
	c.UpdatedAt = now
}

// MarkFailed flags the connection after a failed credential exchange.
func (c *RemoteConnection) MarkFailed() {
	c.Status = ConnectionStatusFailed
	c.UpdatedAt = time.Now()
}

// TokenValid reports whether the stored token is usable at the given time,
// keeping a safety margin before the actual expiry.
func (c *RemoteConnection) TokenValid(now time.Time, margin time.Duration) bool {
	if c.Token == "" || c.Status != ConnectionStatusActive {
		return false
	}
	return now.Add(margin).Before(c.TokenExpiresAt)
}
