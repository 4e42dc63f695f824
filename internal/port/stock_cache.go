package port

import "context"

// StockCache is a fast shared counter in front of the inventory repository.
type StockCache interface {
	// Reserve atomically decreases cached stock, returning false when the
	// cached quantity is insufficient or the ISBN is unknown to the cache.
	Reserve(ctx context.Context, isbn string, quantity int) (bool, error)

	// Release restores cached stock (remove-from-cart, rollback on a failed
	// persistence step).
	Release(ctx context.Context, isbn string, quantity int) error

	// SetStock overwrites the cached quantity.
	SetStock(ctx context.Context, isbn string, quantity int) error

	// GetStock reads the cached quantity; ok is false when not cached.
	GetStock(ctx context.Context, isbn string) (quantity int, ok bool, err error)

	// SetIdempotency sets a key for idempotency checks, returning false if it
	// already exists.
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency deletes a key set by SetIdempotency so the request
	// may legitimately be retried after a transient failure.
	ReleaseIdempotency(ctx context.Context, key string) error
}
