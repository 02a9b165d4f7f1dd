package linnworks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orderdash/backend/internal/domain/syncstate"
)

// tokenExpiryMargin is subtracted from the stored expiry so a request issued
// just before expiry never travels with a token that dies in flight.
const tokenExpiryMargin = 5 * time.Minute

// Session is an authenticated Linnworks session. Every API call after
// authorization must go to the region server returned here, never to the
// auth server.
type Session struct {
	Token     string
	Server    string
	ExpiresAt time.Time
}

// Valid reports whether the session is usable at the given instant.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" || s.Server == "" {
		return false
	}
	return now.Before(s.ExpiresAt.Add(-tokenExpiryMargin))
}

// SessionManager authorizes against the Linnworks auth server and caches the
// resulting session, re-authorizing only when the cached token is about to
// expire. The session is also mirrored into the connection repository so the
// dashboard can show connection health.
type SessionManager struct {
	config     *LinnworksConfig
	httpClient *http.Client
	repo       syncstate.ConnectionRepository
	logger     *zap.Logger

	mu      sync.Mutex
	session *Session

	now func() time.Time
}

// NewSessionManager creates a session manager. The connection repository may
// be nil, in which case sessions are cached in memory only.
func NewSessionManager(config *LinnworksConfig, repo syncstate.ConnectionRepository, logger *zap.Logger) (*SessionManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}, nil
}

// GetValidSession returns a session that is guaranteed to outlive the expiry
// margin, authorizing a fresh one when needed. Concurrent callers share a
// single authorization round trip.
func (m *SessionManager) GetValidSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.session.Valid(now) {
		return m.session, nil
	}

	// Fall back to a previously persisted session before hitting the
	// auth server again.
	if m.repo != nil {
		if conn, err := m.repo.Get(ctx, m.config.ApplicationID); err == nil && conn != nil {
			if conn.TokenValid(now, tokenExpiryMargin) {
				m.session = &Session{
					Token:     conn.Token,
					Server:    conn.Server,
					ExpiresAt: conn.TokenExpiresAt,
				}
				return m.session, nil
			}
		}
	}

	session, err := m.authorize(ctx)
	if err != nil {
		m.persistFailure(ctx, err)
		return nil, err
	}

	m.session = session
	m.persistSession(ctx, session)
	return session, nil
}

// GetValidToken is a convenience wrapper returning just the token.
func (m *SessionManager) GetValidToken(ctx context.Context) (string, error) {
	session, err := m.GetValidSession(ctx)
	if err != nil {
		return "", err
	}
	return session.Token, nil
}

// Invalidate drops the cached session so the next call re-authorizes.
// Callers use this after a 401 from the API server.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
}

// authorize performs AuthorizeByApplication against the auth server.
func (m *SessionManager) authorize(ctx context.Context) (*Session, error) {
	payload, err := json.Marshal(map[string]string{
		"ApplicationId":     m.config.ApplicationID,
		"ApplicationSecret": m.config.ApplicationSecret,
		"Token":             m.config.InstallToken,
	})
	if err != nil {
		return nil, fmt.Errorf("linnworks: failed to encode auth payload: %w", err)
	}

	endpoint := m.config.AuthBaseURL + "/api/Auth/AuthorizeByApplication"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("linnworks: failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syncstate.ErrAuthenticationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("linnworks: failed to read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", syncstate.ErrAuthenticationFailed, resp.StatusCode, truncate(string(body), 200))
	}

	var auth authResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, fmt.Errorf("%w: failed to parse auth response: %v", syncstate.ErrAuthenticationFailed, err)
	}
	if auth.Token == "" || auth.Server == "" {
		return nil, fmt.Errorf("%w: auth response missing token or server", syncstate.ErrAuthenticationFailed)
	}

	now := m.now()
	session := &Session{
		Token:     auth.Token,
		Server:    auth.Server,
		ExpiresAt: auth.expiresAt(now),
	}

	m.logger.Info("linnworks session authorized",
		zap.String("server", session.Server),
		zap.Time("expires_at", session.ExpiresAt))

	return session, nil
}

// persistSession mirrors a fresh session into the connection repository.
func (m *SessionManager) persistSession(ctx context.Context, session *Session) {
	if m.repo == nil {
		return
	}
	conn, err := m.repo.Get(ctx, m.config.ApplicationID)
	if err != nil || conn == nil {
		conn = syncstate.NewRemoteConnection(m.config.ApplicationID)
	}
	conn.UpdateToken(session.Token, session.Server, session.ExpiresAt)
	if err := m.repo.Save(ctx, conn); err != nil {
		m.logger.Warn("failed to persist linnworks session", zap.Error(err))
	}
}

// persistFailure marks the stored connection as failed after an auth error.
func (m *SessionManager) persistFailure(ctx context.Context, authErr error) {
	if m.repo == nil {
		return
	}
	conn, err := m.repo.Get(ctx, m.config.ApplicationID)
	if err != nil || conn == nil {
		conn = syncstate.NewRemoteConnection(m.config.ApplicationID)
	}
	conn.MarkFailed()
	m.logger.Warn("linnworks authorization failed", zap.Error(authErr))
	if err := m.repo.Save(ctx, conn); err != nil {
		m.logger.Warn("failed to persist linnworks connection failure", zap.Error(err))
	}
}

// truncate shortens a string for log and error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
