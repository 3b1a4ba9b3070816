package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by a SnapshotCache when no fresh snapshot exists.
var ErrCacheMiss = errors.New("cache miss")

// SnapshotCache stores raw feed snapshots keyed by sport.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a SnapshotCache backed by Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to the Redis instance at redisURL and pings it.
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisCache{client: client, prefix: "odds:snapshot:"}, nil
}

// Get returns the cached value or ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value with a TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedFeed serves snapshots from a cache before falling through to the
// wrapped feed. Cache errors are logged and never fail a fetch.
type CachedFeed struct {
	feed   Feed
	cache  SnapshotCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedFeed wraps feed with cache.
func NewCachedFeed(feed Feed, cache SnapshotCache, ttl time.Duration, logger *slog.Logger) *CachedFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedFeed{feed: feed, cache: cache, ttl: ttl, logger: logger}
}

// GetOdds implements Feed.
func (f *CachedFeed) GetOdds(ctx context.Context, sport string) ([]Event, error) {
	cached, err := f.cache.Get(ctx, sport)
	switch {
	case err == nil:
		var events []Event
		if err := json.Unmarshal(cached, &events); err == nil {
			return events, nil
		}
		f.logger.Warn("Discarding unreadable odds snapshot", "sport", sport)
	case !errors.Is(err, ErrCacheMiss):
		f.logger.Warn("Odds cache read failed", "sport", sport, "err", err)
	}

	events, err := f.feed.GetOdds(ctx, sport)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(events)
	if err != nil {
		f.logger.Warn("Encoding odds snapshot failed", "sport", sport, "err", err)
		return events, nil
	}
	if err := f.cache.Set(ctx, sport, data, f.ttl); err != nil {
		f.logger.Warn("Odds cache write failed", "sport", sport, "err", err)
	}

	return events, nil
}
