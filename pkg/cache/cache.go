package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encodable values with a TTL.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Remember returns the cached value for key, or calls fn and caches its result.
// Cache failures are not fatal: fn's result is still returned.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var v T
	if c != nil {
		if ok, err := c.Get(ctx, key, &v); err == nil && ok {
			return v, nil
		}
	}
	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	if c != nil {
		_ = c.Set(ctx, key, v, ttl)
	}
	return v, nil
}
