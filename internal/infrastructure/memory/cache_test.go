package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-ecommerce/pkg/cache"
)

func TestCache_SetGetExpire(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCacheWithClock(func() time.Time { return now })
	ctx := context.Background()

	type payload struct {
		Title string `json:"title"`
	}
	require.NoError(t, c.Set(ctx, "book:1", payload{Title: "Go"}, time.Minute))

	var got payload
	found, err := c.Get(ctx, "book:1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Go", got.Title)

	now = now.Add(time.Minute)
	found, err = c.Get(ctx, "book:1", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_IncrementKeepsTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCacheWithClock(func() time.Time { return now })
	ctx := context.Background()

	ttl, err := c.TTL(ctx, "rate")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-2), ttl)

	for i := 1; i <= 3; i++ {
		n, err := cache.HitFixedWindow(ctx, c, "rate", 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, int64(i), n)
		now = now.Add(time.Second)
	}

	ttl, err = c.TTL(ctx, "rate")
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, ttl)

	now = now.Add(7 * time.Second)
	n, err := cache.HitFixedWindow(ctx, c, "rate", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCache_DeleteExists(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1, 0))
	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := c.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)

	require.NoError(t, c.Delete(ctx, "k", "missing"))
	ok, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
