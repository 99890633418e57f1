package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service stores JSON-encoded values under string keys.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Get decodes the stored value into dest; ErrCacheMiss when absent or expired.
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	// TryLock acquires key for ttl if nobody else holds it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
	Close() error
}
