package syncstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFailedSyncRecord(t *testing.T) {
	rec := NewFailedSyncRecord(SyncTypeOpenOrders, "order-1", nil, FailureReasonPersistence, "insert failed", `{"OrderId":"order-1"}`)

	assert.Equal(t, 1, rec.AttemptCount)
	assert.False(t, rec.Resolved)
	// first retry is one hour out
	assert.WithinDuration(t, time.Now().Add(time.Hour), rec.NextRetryAt, time.Minute)
}

func TestFailedSyncRecord_BackoffSchedule(t *testing.T) {
	rec := NewFailedSyncRecord(SyncTypeOpenOrders, "order-1", nil, FailureReasonPersistence, "err", "{}")

	rec.RecordAttempt("still failing")
	assert.Equal(t, 2, rec.AttemptCount)
	assert.WithinDuration(t, time.Now().Add(6*time.Hour), rec.NextRetryAt, time.Minute)

	rec.RecordAttempt("still failing")
	assert.Equal(t, 3, rec.AttemptCount)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), rec.NextRetryAt, time.Minute)

	// schedule caps at the final interval
	rec.RecordAttempt("still failing")
	assert.Equal(t, 4, rec.AttemptCount)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), rec.NextRetryAt, time.Minute)
}

func TestFailedSyncRecord_EligibleForRetry(t *testing.T) {
	rec := NewFailedSyncRecord(SyncTypeProcessedOrders, "", nil, FailureReasonValidation, "no identity", "{}")

	assert.False(t, rec.EligibleForRetry(time.Now()))
	assert.True(t, rec.EligibleForRetry(time.Now().Add(2*time.Hour)))

	rec.Resolve()
	assert.True(t, rec.Resolved)
	require.NotNil(t, rec.ResolvedAt)
	assert.False(t, rec.EligibleForRetry(time.Now().Add(48*time.Hour)))
}

func TestSyncLog_Duration(t *testing.T) {
	log := NewSyncLog(SyncTypeOpenOrders)
	log.Finish(RunStatusCompleted, 10, 8, 1, 1, 0, "")

	assert.Equal(t, RunStatusCompleted, log.Status)
	assert.Equal(t, 10, log.FetchedCount)
	assert.Equal(t, 8, log.CreatedCount)
	assert.NotEmpty(t, log.DurationString())
}

func TestRemoteConnection_TokenValid(t *testing.T) {
	conn := NewRemoteConnection("app-1")
	assert.False(t, conn.TokenValid(time.Now(), 5*time.Minute))

	conn.UpdateToken("tok", "https://eu1.example.net", time.Now().Add(time.Hour))
	assert.True(t, conn.TokenValid(time.Now(), 5*time.Minute))

	t.Run("expiry margin is honored", func(t *testing.T) {
		conn.UpdateToken("tok", "https://eu1.example.net", time.Now().Add(2*time.Minute))
		assert.False(t, conn.TokenValid(time.Now(), 5*time.Minute))
	})

	t.Run("failed connections are never valid", func(t *testing.T) {
		conn.UpdateToken("tok", "https://eu1.example.net", time.Now().Add(time.Hour))
		conn.MarkFailed()
		assert.False(t, conn.TokenValid(time.Now(), 5*time.Minute))
	})
}
