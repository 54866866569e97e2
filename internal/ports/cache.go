package ports

import (
	"context"
	"time"
)

// Cache is a best-effort key-value store used for read projections.
// Adapters may be backed by the SQL store or Redis. A zero ttl means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
