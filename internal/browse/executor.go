package browse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noteoverflow/noteoverflow/internal/platform/cache"
	"github.com/noteoverflow/noteoverflow/internal/question"
	"github.com/noteoverflow/noteoverflow/internal/reference"
)

// Result is the outcome of a confirmed query.
type Result struct {
	Data          []question.Question `json:"data"`
	IsRateLimited bool                `json:"isRateLimited"`
}

// ResultCache stores query results keyed by serialized filter, with a TTL.
type ResultCache interface {
	Get(ctx context.Context, key string) (*Result, bool, error)
	Set(ctx context.Context, key string, r Result, ttl time.Duration) error
}

// MemoryResultCache is an in-memory ResultCache with expiry timestamps.
type MemoryResultCache struct {
	entries map[string]cacheEntry
	now     func() time.Time
	mu      sync.RWMutex
}

type cacheEntry struct {
	result Result
	expiry time.Time
}

// NewMemoryResultCache creates an in-memory result cache.
func NewMemoryResultCache() *MemoryResultCache {
	return &MemoryResultCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// SetClock overrides the cache's clock; tests use it to cross the expiry
// boundary deterministically.
func (c *MemoryResultCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *MemoryResultCache) Get(_ context.Context, key string) (*Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expiry) {
		// Expired entries are misses and are silently replaced on the next
		// Set.
		delete(c.entries, key)
		return nil, false, nil
	}
	r := e.result
	return &r, true, nil
}

func (c *MemoryResultCache) Set(_ context.Context, key string, r Result, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = cacheEntry{result: r, expiry: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// RedisResultCache is a Redis-backed ResultCache using native key TTLs.
type RedisResultCache struct {
	client *redis.Client
}

// NewRedisResultCache creates a Redis-backed result cache.
func NewRedisResultCache(client *redis.Client) *RedisResultCache {
	return &RedisResultCache{client: client}
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (*Result, bool, error) {
	data, err := c.client.Get(ctx, cache.Key("query", key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &r, true, nil
}

func (c *RedisResultCache) Set(ctx context.Context, key string, r Result, ttl time.Duration) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cache.Key("query", key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Limiter tracks per-user query quotas.
type Limiter interface {
	// Over reports whether the user has exceeded their quota for the
	// current window. Each call counts one query.
	Over(ctx context.Context, userID string) (bool, error)
}

// MemoryLimiter is an in-memory fixed-window Limiter.
type MemoryLimiter struct {
	quota   int
	window  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	counts  map[string]int
	resetAt map[string]time.Time
}

// NewMemoryLimiter creates an in-memory query limiter.
func NewMemoryLimiter(quota int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		quota:   quota,
		window:  window,
		now:     time.Now,
		counts:  make(map[string]int),
		resetAt: make(map[string]time.Time),
	}
}

func (l *MemoryLimiter) Over(_ context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if reset, ok := l.resetAt[userID]; !ok || now.After(reset) {
		l.counts[userID] = 0
		l.resetAt[userID] = now.Add(l.window)
	}
	l.counts[userID]++
	return l.counts[userID] > l.quota, nil
}

// RedisLimiter is a Redis-backed fixed-window Limiter.
type RedisLimiter struct {
	client *redis.Client
	quota  int
	window time.Duration
}

// NewRedisLimiter creates a Redis-backed query limiter.
func NewRedisLimiter(client *redis.Client, quota int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, quota: quota, window: window}
}

func (l *RedisLimiter) Over(ctx context.Context, userID string) (bool, error) {
	key := cache.Key("query-quota", userID)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return count > int64(l.quota), nil
}

// rateLimitedMax caps the result size returned to users over quota.
const rateLimitedMax = 10

// ErrInvalidFilter wraps filter validation failures so callers can tell
// them apart from store errors.
var ErrInvalidFilter = errors.New("invalid filter")

// Executor runs confirmed queries through the result cache and the
// question store. Identical in-flight queries are deduplicated by the
// filter's canonical key so re-confirming the same filter never issues a
// second search.
type Executor struct {
	store   question.Store
	ref     *reference.Loader
	cache   ResultCache
	limiter Limiter
	ttl     time.Duration

	mu       sync.Mutex
	inflight map[string]*flight
}

type flight struct {
	done chan struct{}
	res  *Result
	err  error
}

// NewExecutor creates a query executor.
func NewExecutor(store question.Store, ref *reference.Loader, cache ResultCache, limiter Limiter, ttl time.Duration) *Executor {
	return &Executor{
		store:    store,
		ref:      ref,
		cache:    cache,
		limiter:  limiter,
		ttl:      ttl,
		inflight: make(map[string]*flight),
	}
}

// Execute validates the filter, serves a fresh cached result when one
// exists, and otherwise searches the store. Non-empty, non-rate-limited
// results are cached with the configured TTL; failures and empty results
// are not cached, so a transient empty answer is retried on the next
// confirm.
func (e *Executor) Execute(ctx context.Context, userID string, f Filter) (*Result, error) {
	sub, err := f.Validate(e.ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	key := f.Key()
	if cached, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		slog.Warn("result cache get failed", "error", err)
	}

	e.mu.Lock()
	if fl, ok := e.inflight[key]; ok {
		e.mu.Unlock()
		select {
		case <-fl.done:
			return fl.res, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	fl := &flight{done: make(chan struct{})}
	e.inflight[key] = fl
	e.mu.Unlock()

	res, err := e.run(ctx, userID, f, sub, key)

	fl.res, fl.err = res, err
	close(fl.done)
	e.mu.Lock()
	delete(e.inflight, key)
	e.mu.Unlock()

	return res, err
}

func (e *Executor) run(ctx context.Context, userID string, f Filter, sub reference.Subject, key string) (*Result, error) {
	over, err := e.limiter.Over(ctx, userID)
	if err != nil {
		slog.Warn("rate limiter unavailable, allowing query", "error", err)
		over = false
	}

	data, err := e.store.Search(ctx, f.Criteria(sub))
	if err != nil {
		return nil, fmt.Errorf("searching questions: %w", err)
	}

	res := &Result{Data: data}
	if over && len(data) > rateLimitedMax {
		res.Data = data[:rateLimitedMax]
		res.IsRateLimited = true
	}

	if len(res.Data) > 0 && !res.IsRateLimited {
		if err := e.cache.Set(ctx, key, *res, e.ttl); err != nil {
			slog.Warn("result cache set failed", "error", err)
		}
	}
	return res, nil
}
