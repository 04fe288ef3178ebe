// Package cache provides the Redis-backed vendor response cache
// (internal/net/client.Cache) that internal/vendors.Manager hands to every
// provider's HTTP wrapper, plus an in-memory fallback for when Redis isn't
// configured, the same memory/Redis split the teacher's data/cache package
// uses.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/broseidonlordofthebrocean/hedge/internal/config"
)

// entry envelopes a cached value with the time it was stored, msgpack-coded
// before going into Redis so non-vendor readers (a future CLI "cache
// inspect" command, say) don't need to know the wrapped type.
type entry struct {
	Data     []byte    `msgpack:"data"`
	StoredAt time.Time `msgpack:"stored_at"`
}

// Memory is an in-process cache used when no Redis address is configured —
// fine for a single-instance deployment, same role as the teacher's
// zero-dependency fallback.
type Memory struct {
	mu sync.Mutex
	m  map[string]memEntry
}

type memEntry struct {
	b   []byte
	exp time.Time
}

// NewMemory builds an in-process cache.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]memEntry)}
}

func (c *Memory) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok || (!e.exp.IsZero() && time.Now().After(e.exp)) {
		return nil, false
	}
	return e.b, true
}

func (c *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memEntry{b: append([]byte(nil), value...)}
	if ttl > 0 {
		e.exp = time.Now().Add(ttl)
	}
	c.m[key] = e
}

// Redis is a Redis-backed cache for vendor responses, read by every
// provider registered with internal/vendors.Manager.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis builds a Redis-backed cache from config.CacheConfig.
func NewRedis(cfg config.CacheConfig) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: cfg.TTL,
	}
}

// Get fetches and msgpack-decodes a cached value. A Redis error (including
// a cache miss) is reported as ok=false — callers fall through to the
// vendor fetch, same degrade-on-cache-failure posture as the rest of the
// provider-resilience stack.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache entry decode failed, treating as miss")
		return nil, false
	}
	return e.Data, true
}

// Set msgpack-encodes value with its storage timestamp and writes it to
// Redis under ttl (falling back to the configured default TTL when zero).
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	raw, err := msgpack.Marshal(entry{Data: value, StoredAt: time.Now().UTC()})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache entry encode failed, not caching")
		return
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Ping checks Redis connectivity, used by GET /health.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// New builds the configured cache backend: Redis when cfg.Addr is set, an
// in-memory fallback otherwise.
func New(cfg config.CacheConfig) interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
} {
	if cfg.Addr == "" {
		log.Info().Msg("no Redis address configured, using in-memory vendor cache")
		return NewMemory()
	}
	return NewRedis(cfg)
}
