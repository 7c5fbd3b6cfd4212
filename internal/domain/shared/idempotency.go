package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks request keys that have already been processed so
// that retried charge and refund requests are not applied twice.
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL. Returns true if the key was
	// newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key has already been recorded.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store
	Close() error
}
