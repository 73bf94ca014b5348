package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/logging"
)

const bucketExpiry = 10 * time.Minute

// RateLimiter implements token bucket rate limiting per client.
type RateLimiter struct {
	buckets     map[string]*TokenBucket
	bucketMutex sync.Mutex
	config      *RateLimitConfig
	logger      logging.Logger
	cleaner     *time.Ticker
	stop        chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

// TokenBucket holds the tokens of one client.
type TokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	lastAccess time.Time
}

// RateLimitResult represents the result of a rate limit check
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// NewRateLimiter creates a limiter and starts its cleanup loop.
func NewRateLimiter(config *RateLimitConfig, logger logging.Logger) *RateLimiter {
	if config == nil {
		config = &RateLimitConfig{RequestsPerMinute: 600, BurstSize: 50, Enabled: true}
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 1
	}
	if logger == nil {
		logger = logging.Nop()
	}

	rl := &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
		logger:  logger,
		cleaner: time.NewTicker(time.Minute),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go rl.cleanupExpiredBuckets()
	return rl
}

// Check consumes one token for key, usually the client IP.
func (rl *RateLimiter) Check(key string) RateLimitResult {
	if !rl.config.Enabled {
		return RateLimitResult{Allowed: true, Remaining: rl.config.BurstSize}
	}

	rl.bucketMutex.Lock()
	defer rl.bucketMutex.Unlock()

	now := rl.now()
	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &TokenBucket{
			tokens:     float64(rl.config.BurstSize),
			capacity:   float64(rl.config.BurstSize),
			refillRate: float64(rl.config.RequestsPerMinute) / 60,
			lastRefill: now,
		}
		rl.buckets[key] = bucket
	}
	bucket.lastAccess = now
	return bucket.consume(now)
}

func (tb *TokenBucket) consume(now time.Time) RateLimitResult {
	tb.refill(now)
	if tb.tokens >= 1 {
		tb.tokens--
		return RateLimitResult{Allowed: true, Remaining: int(tb.tokens)}
	}
	wait := time.Duration((1 - tb.tokens) / tb.refillRate * float64(time.Second))
	return RateLimitResult{RetryAfter: wait}
}

func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now
}

func (rl *RateLimiter) cleanupExpiredBuckets() {
	for {
		select {
		case <-rl.cleaner.C:
			rl.performCleanup()
		case <-rl.stop:
			rl.cleaner.Stop()
			return
		}
	}
}

func (rl *RateLimiter) performCleanup() {
	rl.bucketMutex.Lock()
	defer rl.bucketMutex.Unlock()

	now := rl.now()
	for key, bucket := range rl.buckets {
		if now.Sub(bucket.lastAccess) > bucketExpiry {
			delete(rl.buckets, key)
		}
	}
}

// Stop ends the cleanup loop.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// RateLimitMiddleware answers 429 once a client runs out of tokens.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			result := limiter.Check(clientIP)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.config.RequestsPerMinute))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
			if !result.Allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", max(1, result.RetryAfter.Seconds())))
				limiter.logger.Warn(r.Context(),
					errors.NewValidationError(errors.ErrCodeRateLimited, "rate limit exceeded"),
					"Rate limit exceeded",
					"client_ip", clientIP,
					"path", r.URL.Path)
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
