package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	_, err := c.Get(ctx, "page:/projects?")
	assert.ErrorIs(t, err, ErrCacheMiss)

	value := []byte(`{"items":[]}`)
	require.NoError(t, c.Set(ctx, "page:/projects?", value, 0))
	value[0] = 'X'

	got, err := c.Get(ctx, "page:/projects?")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(got))
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Zero(t, c.Len())
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	for _, key := range []string{"page:/projects?", "page:/projects/alpha?", "page:/blog?"} {
		require.NoError(t, c.Set(ctx, key, []byte("x"), 0))
	}

	require.NoError(t, c.DeletePrefix(ctx, "page:/projects"))

	_, err := c.Get(ctx, "page:/projects/alpha?")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "page:/blog?")
	assert.NoError(t, err)
}

func TestMemoryCache_Closed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), ErrCacheClosed)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheClosed)
}

func TestNew_FallsBackToMemory(t *testing.T) {
	c := New(Options{RedisURL: "redis://127.0.0.1:1/0", DefaultTTL: time.Minute})
	defer c.Close()

	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
}

func TestRedisCache_DeletePrefix(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	c, err := NewRedisCacheFromURL(url, "test:portfolio:", time.Minute)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "page:/research?", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "page:/skills?", []byte("b"), 0))
	require.NoError(t, c.DeletePrefix(ctx, "page:/research"))

	_, err = c.Get(ctx, "page:/research?")
	assert.ErrorIs(t, err, ErrCacheMiss)
	got, err := c.Get(ctx, "page:/skills?")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))
}
