package syncstate

import "errors"

var (
	// Run-level errors: these abort the current sync attempt.
	ErrAuthenticationFailed = errors.New("syncstate: remote authentication failed")
	ErrSyncInProgress       = errors.New("syncstate: sync already in progress")
	ErrInvalidSyncType      = errors.New("syncstate: invalid sync type")

	// Fetch errors: transient ones are retried on the fixed backoff
	// schedule before surfacing.
	ErrFetchFailed = errors.New("syncstate: remote fetch failed")
	ErrRateLimited = errors.New("syncstate: remote rate limited")

	// Persistence lookups.
	ErrCheckpointNotFound = errors.New("syncstate: checkpoint not found")
	ErrConnectionNotFound = errors.New("syncstate: remote connection not found")
)
