package orders

import "context"

// KeySet is a lookup set of order keys already present in storage. An order
// matches when either its identifier or its number is in the set, since
// either may be the authoritative key depending on which remote API
// produced the stored row.
type KeySet struct {
	ids     map[string]struct{}
	numbers map[int64]struct{}
}

// NewKeySet builds a KeySet from identifier and number slices.
func NewKeySet(ids []string, numbers []int64) KeySet {
	s := KeySet{
		ids:     make(map[string]struct{}, len(ids)),
		numbers: make(map[int64]struct{}, len(numbers)),
	}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	for _, n := range numbers {
		s.numbers[n] = struct{}{}
	}
	return s
}

// Contains reports whether the order's identifier or number is in the set.
func (s KeySet) Contains(o *CanonicalOrder) bool {
	if o.OrderID != "" {
		if _, ok := s.ids[o.OrderID]; ok {
			return true
		}
	}
	if o.OrderNumber != nil {
		if _, ok := s.numbers[*o.OrderNumber]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of keys in the set.
func (s KeySet) Len() int {
	return len(s.ids) + len(s.numbers)
}

// Repository defines the storage contract for canonical orders.
type Repository interface {
	// Save persists one order together with its related records. Returns
	// ErrOrderExists when the uniqueness backstop rejects a duplicate.
	Save(ctx context.Context, order *CanonicalOrder) error

	// ExistingKeys returns the subset of the given identifiers and numbers
	// that are already persisted, resolved in one batched query.
	ExistingKeys(ctx context.Context, ids []string, numbers []int64) (KeySet, error)

	// MarkProcessed updates the stored row matching the order's key with the
	// processed timestamp and paid state of a fresher remote copy. Reports
	// whether a row was updated; false means the stored copy was already
	// processed and nothing changed.
	MarkProcessed(ctx context.Context, order *CanonicalOrder) (bool, error)
}
