package orders

import (
	"strconv"

	"github.com/google/uuid"
)

// dedupKey returns the grouping key for intra-batch deduplication. The
// remote identifier is the more stable remote-assigned key, so it is
// preferred uniformly over the order number; orders with neither fall back
// to a synthetic channel+reference key, or a random key as a last resort so
// they never collapse into each other.
func dedupKey(o *CanonicalOrder) string {
	if o.OrderID != "" {
		return "id:" + o.OrderID
	}
	if o.OrderNumber != nil {
		return "num:" + strconv.FormatInt(*o.OrderNumber, 10)
	}
	if o.Source != "" || o.ChannelReference != "" {
		return "ref:" + o.Source + "|" + o.ChannelReference
	}
	return "rand:" + uuid.NewString()
}

// Deduplicate removes duplicates within a fetched batch. When two entries
// share a key, the processed variant wins over the unprocessed one, since
// the processed-orders API is authoritative over the open-orders view for
// the same order. The input is never mutated and the relative order of
// surviving elements is preserved.
func Deduplicate(batch []*CanonicalOrder) []*CanonicalOrder {
	out := make([]*CanonicalOrder, 0, len(batch))
	index := make(map[string]int, len(batch))

	for _, o := range batch {
		key := dedupKey(o)
		if at, seen := index[key]; seen {
			if o.IsProcessed() && !out[at].IsProcessed() {
				out[at] = o
			}
			continue
		}
		index[key] = len(out)
		out = append(out, o)
	}
	return out
}

// FilterExisting removes batch orders whose identifier or number is already
// persisted. Surviving elements keep their relative order.
func FilterExisting(batch []*CanonicalOrder, existing KeySet) []*CanonicalOrder {
	out := make([]*CanonicalOrder, 0, len(batch))
	for _, o := range batch {
		if existing.Contains(o) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// BatchKeys collects the identifiers and numbers of every order in the
// batch, for the batched existence query.
func BatchKeys(batch []*CanonicalOrder) (ids []string, numbers []int64) {
	for _, o := range batch {
		if o.OrderID != "" {
			ids = append(ids, o.OrderID)
		}
		if o.OrderNumber != nil {
			numbers = append(numbers, *o.OrderNumber)
		}
	}
	return ids, numbers
}

// Stats summarizes a deduplication pass for observability.
type Stats struct {
	Original      int
	Unique        int
	Duplicates    int
	DuplicateRate float64
}

// DedupStats computes counts and the duplicate rate for a pass.
func DedupStats(original, deduplicated []*CanonicalOrder) Stats {
	s := Stats{
		Original:   len(original),
		Unique:     len(deduplicated),
		Duplicates: len(original) - len(deduplicated),
	}
	if s.Original > 0 {
		s.DuplicateRate = float64(s.Duplicates) / float64(s.Original)
	}
	return s
}
