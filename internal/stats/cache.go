package stats

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
)

// Store is a byte cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore is a Store backed by redis.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

// Get returns the cached value for key. A missing key is not an error.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores value under key until ttl elapses.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.Client.Set(ctx, key, value, ttl).Err()
}

// CachedClient caches QueryStats results for a short TTL. Concurrent identical
// queries share one upstream call. Cache failures are logged and bypassed.
type CachedClient struct {
	inner   Client
	store   Store
	ttl     time.Duration
	timeout time.Duration
	log     *zap.Logger
	group   singleflight.Group
}

// NewCachedClient wraps inner with a store-backed cache. timeout bounds the
// shared upstream call, which outlives any single caller's context.
func NewCachedClient(inner Client, store Store, ttl, timeout time.Duration, log *zap.Logger) *CachedClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CachedClient{inner: inner, store: store, ttl: ttl, timeout: timeout, log: log}
}

// RecordHit is never cached.
func (c *CachedClient) RecordHit(ctx context.Context, hit Hit) error {
	return c.inner.RecordHit(ctx, hit)
}

// QueryStats serves q from the store when possible. On a miss, callers asking
// the same question wait on one upstream call.
func (c *CachedClient) QueryStats(ctx context.Context, q Query) ([]ViewStats, error) {
	key := cacheKey(q)

	if raw, found, err := c.store.Get(ctx, key); err != nil {
		c.log.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
	} else if found {
		var cached []ViewStats
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.log.Warn("stats cache entry unreadable", zap.String("key", key))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Waiters share this call, so one caller going away must not cancel it.
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		out, err := c.inner.QueryStats(sharedCtx, q)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(out); err == nil {
			if err := c.store.Set(sharedCtx, key, raw, c.ttl); err != nil {
				c.log.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ViewStats), nil
}

// cacheKey is stable under URI order.
func cacheKey(q Query) string {
	uris := slices.Clone(q.URIs)
	slices.Sort(uris)

	var b strings.Builder
	b.WriteString(q.Start.UTC().Format(model.DateTimeLayout))
	b.WriteByte('|')
	b.WriteString(q.End.UTC().Format(model.DateTimeLayout))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(q.Unique))
	for _, uri := range uris {
		b.WriteByte('|')
		b.WriteString(uri)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return "stats:" + hex.EncodeToString(sum[:])
}
