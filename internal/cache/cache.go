// Package cache provides the byte-bounded response cache with LRU eviction,
// optional TTL and at-most-one producer per key.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"hash/maphash"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
	"golang.org/x/sync/singleflight"

	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/logging"
)

const (
	// DefaultShards is used when Config.Shards is not positive.
	DefaultShards = 16
	// DefaultMaxBytes is the budget used when nothing else is configured.
	DefaultMaxBytes = 64 << 20
)

// Entry is a rendered response.
type Entry struct {
	Body        []byte
	ContentType string
	// ETag is the hex sha256 of Body, without quotes.
	ETag      string
	CreatedAt time.Time
}

// NewEntry builds an Entry for body and computes its ETag.
func NewEntry(body []byte, contentType string) Entry {
	sum := sha256.Sum256(body)
	return Entry{
		Body:        body,
		ContentType: contentType,
		ETag:        hex.EncodeToString(sum[:]),
		CreatedAt:   time.Now(),
	}
}

// Producer computes the entry for a key on a miss. The context it receives
// is never canceled by the caller that triggered it.
type Producer func(ctx context.Context) (Entry, error)

// Config configures a Cache.
type Config struct {
	// MaxBytes bounds the stored bytes. Zero stores nothing.
	MaxBytes int64
	Shards   int
	// TTL expires entries after the given age; zero keeps them until
	// evicted.
	TTL    time.Duration
	Logger logging.Logger
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	// Uncached counts entries served without storing because they exceed
	// the byte budget.
	Uncached int64
	Entries  int
	Bytes    int64
	MaxBytes int64
}

// HitRate is hits over lookups, 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type item struct {
	entry Entry
	cost  int64
}

type shard struct {
	mu     sync.Mutex
	lru    *simplelru.LRU
	flight singleflight.Group
}

// Cache is a sharded response cache. Keys hash to a shard; each shard has
// its own lock, recency list and in-flight group. The byte budget is shared.
type Cache struct {
	shards   []*shard
	seed     maphash.Seed
	maxBytes int64
	ttl      time.Duration
	logger   logging.Logger

	size      atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	uncached  atomic.Int64
}

// New creates a Cache.
func New(cfg Config) *Cache {
	n := cfg.Shards
	if n <= 0 {
		n = DefaultShards
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	c := &Cache{
		shards:   make([]*shard, n),
		seed:     maphash.MakeSeed(),
		maxBytes: max(cfg.MaxBytes, 0),
		ttl:      cfg.TTL,
		logger:   logger.WithComponent("cache"),
	}
	for i := range c.shards {
		lru, err := simplelru.NewLRU(math.MaxInt32, func(_, value any) {
			c.size.Add(-value.(*item).cost)
		})
		if err != nil {
			errors.Invariant(errors.ErrCodeInternalError, "creating shard: %v", err)
		}
		c.shards[i] = &shard{lru: lru}
	}
	return c
}

func (c *Cache) shardIndex(key string) int {
	return int(maphash.String(c.seed, key) % uint64(len(c.shards)))
}

// GetOrCompute returns the entry for key, calling produce on a miss.
// Concurrent callers for the same key share one producer call. A caller
// whose ctx ends stops waiting; the producer still completes and its
// result is stored for the others. Producer errors reach every waiter and
// are never stored.
func (c *Cache) GetOrCompute(ctx context.Context, key string, produce Producer) (Entry, error) {
	idx := c.shardIndex(key)
	s := c.shards[idx]

	if e, ok := c.lookup(s, key); ok {
		c.hits.Add(1)
		return e, nil
	}
	c.misses.Add(1)

	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (any, error) {
		if e, ok := c.lookup(s, key); ok {
			return e, nil
		}
		e, err := runProducer(detached, produce)
		if err != nil {
			return nil, err
		}
		c.store(idx, key, e)
		return e, nil
	})

	select {
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Entry{}, res.Err
		}
		return res.Val.(Entry), nil
	}
}

// runProducer converts a producer panic into an error so that it reaches
// the waiters instead of the flight goroutine.
func runProducer(ctx context.Context, produce Producer) (e Entry, err error) {
	defer errors.Recover(&err)
	return produce(ctx)
}

func (c *Cache) lookup(s *shard, key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.lru.Get(key)
	if !ok {
		return Entry{}, false
	}
	it := v.(*item)
	if c.ttl > 0 && time.Since(it.entry.CreatedAt) > c.ttl {
		s.lru.Remove(key)
		return Entry{}, false
	}
	return it.entry, true
}

func (c *Cache) cost(key string, e Entry) int64 {
	return int64(len(key) + len(e.Body))
}

func (c *Cache) store(idx int, key string, e Entry) {
	cost := c.cost(key, e)
	if cost > c.maxBytes {
		c.uncached.Add(1)
		c.logger.Debug(context.Background(), "Entry exceeds cache capacity, serving uncached",
			"bytes", cost, "max_bytes", c.maxBytes)
		return
	}

	s := c.shards[idx]
	s.mu.Lock()
	s.lru.Remove(key)
	s.lru.Add(key, &item{entry: e, cost: cost})
	c.size.Add(cost)
	s.mu.Unlock()

	c.trim(idx, key)
}

// trim evicts least recently used entries, starting with the home shard,
// until the budget holds. Only one shard lock is held at a time.
func (c *Cache) trim(home int, keep string) {
	for c.size.Load() > c.maxBytes {
		if !c.evictOldest(home, keep) {
			return
		}
	}
}

func (c *Cache) evictOldest(home int, keep string) bool {
	for i := range c.shards {
		s := c.shards[(home+i)%len(c.shards)]
		s.mu.Lock()
		key, _, ok := s.lru.GetOldest()
		if ok && key != keep {
			s.lru.Remove(key)
			s.mu.Unlock()
			c.evictions.Add(1)
			return true
		}
		s.mu.Unlock()
	}
	return false
}

// Get returns a stored entry without producing one.
func (c *Cache) Get(key string) (Entry, bool) {
	e, ok := c.lookup(c.shards[c.shardIndex(key)], key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e, ok
}

// Remove drops key and reports whether it was stored.
func (c *Cache) Remove(key string) bool {
	s := c.shards[c.shardIndex(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Remove(key)
}

// Purge drops every entry. Counters are kept.
func (c *Cache) Purge() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.lru.Purge()
		s.mu.Unlock()
	}
	c.logger.Debug(context.Background(), "Cache purged")
}

// Len is the number of stored entries.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += s.lru.Len()
		s.mu.Unlock()
	}
	return n
}

// Size is the number of stored bytes.
func (c *Cache) Size() int64 { return c.size.Load() }

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Uncached:  c.uncached.Load(),
		Entries:   c.Len(),
		Bytes:     c.size.Load(),
		MaxBytes:  c.maxBytes,
	}
}
