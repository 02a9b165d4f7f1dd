package orders

import "errors"

var (
	// ErrOrderExists indicates the order is already persisted; the database
	// uniqueness constraint is the final backstop behind the dedup check.
	ErrOrderExists = errors.New("orders: order already exists")

	// ErrMissingIdentity indicates a normalized order carries neither a
	// remote identifier nor a remote order number.
	ErrMissingIdentity = errors.New("orders: order has neither identifier nor number")
)
