package cache

import (
	"context"
	"time"
)

// Cache interface định nghĩa contract cho cache layer.
// Implementations: Redis (infrastructure/cache) và in-memory (infrastructure/memory).
type Cache interface {
	// Get lấy data từ cache và unmarshal vào dest.
	// found = false khi cache miss, dest không bị thay đổi.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set lưu data vào cache với TTL (0 = không hết hạn)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error

	// Counters (rate limit, failed login tracking)
	Increment(ctx context.Context, key string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// HitFixedWindow increments the counter for key and starts its window on the first hit.
// Returns the number of hits inside the current window.
func HitFixedWindow(ctx context.Context, c Cache, key string, window time.Duration) (int64, error) {
	count, err := c.Increment(ctx, key)
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.Expire(ctx, key, window); err != nil {
			return count, err
		}
	}
	return count, nil
}
