// Package cache stores rendered public responses so repeated reads skip the database.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrCacheMiss indicates the key was not found in cache or has expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheClosed indicates the cache was closed.
	ErrCacheClosed = errors.New("cache closed")
)

// Cache is implemented by MemoryCache and RedisCache. All implementations are
// safe for concurrent use.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl. A zero ttl uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

type Options struct {
	RedisURL   string
	Prefix     string
	DefaultTTL time.Duration
}

// New returns a RedisCache when a URL is configured and reachable, and a
// MemoryCache otherwise.
func New(opts Options) Cache {
	if opts.RedisURL != "" {
		rc, err := NewRedisCacheFromURL(opts.RedisURL, opts.Prefix, opts.DefaultTTL)
		if err == nil {
			log.Info().Msg("using redis page cache")
			return rc
		}
		log.Warn().Err(err).Msg("redis unavailable, falling back to in-memory page cache")
	}
	return NewMemoryCache(opts.DefaultTTL)
}
