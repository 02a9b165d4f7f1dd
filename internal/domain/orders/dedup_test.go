package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderWithID(id string) *CanonicalOrder {
	return &CanonicalOrder{OrderID: id}
}

func orderWithNumber(n int64) *CanonicalOrder {
	return &CanonicalOrder{OrderNumber: &n}
}

func processedOrderWithID(id string) *CanonicalOrder {
	now := time.Now()
	return &CanonicalOrder{OrderID: id, ProcessedAt: &now}
}

func TestDeduplicate_ProcessedWinsOverOpen(t *testing.T) {
	open := orderWithID("test-order-1")
	processed := processedOrderWithID("test-order-1")

	t.Run("open first", func(t *testing.T) {
		out := Deduplicate([]*CanonicalOrder{open, processed})
		require.Len(t, out, 1)
		assert.True(t, out[0].IsProcessed())
	})

	t.Run("processed first", func(t *testing.T) {
		out := Deduplicate([]*CanonicalOrder{processed, open})
		require.Len(t, out, 1)
		assert.True(t, out[0].IsProcessed())
	})
}

func TestDeduplicate_Idempotent(t *testing.T) {
	batch := []*CanonicalOrder{
		orderWithID("a"),
		orderWithID("a"),
		orderWithNumber(42),
		orderWithNumber(42),
		orderWithID("b"),
	}

	once := Deduplicate(batch)
	twice := Deduplicate(once)
	assert.Equal(t, once, twice)
}

func TestDeduplicate_PreservesOrderAndInput(t *testing.T) {
	a := orderWithID("a")
	b := orderWithID("b")
	c := orderWithID("c")
	batch := []*CanonicalOrder{a, b, a, c}

	out := Deduplicate(batch)

	require.Len(t, out, 3)
	assert.Equal(t, []*CanonicalOrder{a, b, c}, out)
	// input slice untouched
	assert.Len(t, batch, 4)
}

func TestDeduplicate_IdentifierPreferredOverNumber(t *testing.T) {
	n := int64(100)
	withBoth := &CanonicalOrder{OrderID: "x", OrderNumber: &n}
	numberOnly := orderWithNumber(100)

	// Different keys: one groups by identifier, the other by number.
	out := Deduplicate([]*CanonicalOrder{withBoth, numberOnly})
	assert.Len(t, out, 2)
}

func TestDeduplicate_NoIdentityNeverCollapses(t *testing.T) {
	out := Deduplicate([]*CanonicalOrder{{}, {}})
	assert.Len(t, out, 2)
}

func TestDeduplicate_SyntheticChannelKey(t *testing.T) {
	a := &CanonicalOrder{Source: "EBAY", ChannelReference: "ref-1"}
	b := &CanonicalOrder{Source: "EBAY", ChannelReference: "ref-1"}
	out := Deduplicate([]*CanonicalOrder{a, b})
	assert.Len(t, out, 1)
}

func TestFilterExisting(t *testing.T) {
	existing := NewKeySet([]string{"known-id"}, []int64{12345})

	t.Run("matches on identifier", func(t *testing.T) {
		out := FilterExisting([]*CanonicalOrder{orderWithID("known-id"), orderWithID("new-id")}, existing)
		require.Len(t, out, 1)
		assert.Equal(t, "new-id", out[0].OrderID)
	})

	t.Run("matches on number only", func(t *testing.T) {
		out := FilterExisting([]*CanonicalOrder{orderWithNumber(12345)}, existing)
		assert.Empty(t, out)
	})

	t.Run("empty set keeps everything", func(t *testing.T) {
		batch := []*CanonicalOrder{orderWithID("a"), orderWithNumber(7)}
		out := FilterExisting(batch, NewKeySet(nil, nil))
		assert.Equal(t, batch, out)
	})
}

func TestBatchKeys(t *testing.T) {
	n := int64(55)
	ids, numbers := BatchKeys([]*CanonicalOrder{
		orderWithID("a"),
		{OrderID: "b", OrderNumber: &n},
		{},
	})
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, []int64{55}, numbers)
}

func TestDedupStats(t *testing.T) {
	original := []*CanonicalOrder{orderWithID("a"), orderWithID("a"), orderWithID("b"), orderWithID("b")}
	deduped := Deduplicate(original)

	stats := DedupStats(original, deduped)
	assert.Equal(t, 4, stats.Original)
	assert.Equal(t, 2, stats.Unique)
	assert.Equal(t, 2, stats.Duplicates)
	assert.InDelta(t, 0.5, stats.DuplicateRate, 1e-9)

	t.Run("empty batch has zero rate", func(t *testing.T) {
		stats := DedupStats(nil, nil)
		assert.Zero(t, stats.DuplicateRate)
	})
}

func TestEndToEnd_OpenAndProcessedMerge(t *testing.T) {
	// The same order arrives from both upstream endpoints: the open-orders
	// view (status 0, no processed date) and the processed-orders search
	// (status 1, processed date set). Exactly one survives, processed.
	openRaw := RawOrder{
		"pkOrderID":    "test-order-1",
		"nStatus":      float64(0),
		"ReceivedDate": "2024-06-01T10:00:00Z",
	}
	processedRaw := RawOrder{
		"pkOrderID":     "test-order-1",
		"nStatus":       float64(1),
		"dReceivedDate": "2024-06-01T10:00:00Z",
		"dProcessedOn":  "2024-06-02T09:00:00Z",
	}

	batch := []*CanonicalOrder{Normalize(openRaw), Normalize(processedRaw)}
	out := Deduplicate(batch)

	require.Len(t, out, 1)
	assert.Equal(t, "test-order-1", out[0].OrderID)
	assert.True(t, out[0].IsProcessed())
	assert.True(t, out[0].IsPaid)
}
