package cache

import (
	"context"
	"time"
)

// Store is a generic JSON read-through cache primitive. It has no knowledge
// of key semantics; callers own key construction and TTL policy.
type Store interface {
	// Get reads the JSON payload at key into dest. Returns false on a miss.
	// A payload that fails to parse is treated as a miss: the corrupt key is
	// deleted as a side effect and no parse error reaches the caller.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set writes value as JSON under key. ttl <= 0 stores with no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
