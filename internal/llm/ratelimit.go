// ratelimit.go implements per-backend rate limiting so shared clients stay
// polite under concurrent requests.
package llm

import (
	"context"
	"sync"
	"time"
)

// Limits defines rate limits for a single backend.
type Limits struct {
	// RequestsPerMinute limits API calls per minute.
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`

	// ConcurrentRequests limits parallel API calls.
	ConcurrentRequests int `yaml:"concurrent_requests" json:"concurrent_requests"`

	// BurstSize allows temporary bursts above the rate limit.
	BurstSize int `yaml:"burst_size" json:"burst_size"`
}

// DefaultLimits returns default rate limits for a backend.
func DefaultLimits(provider string) *Limits {
	switch provider {
	case "conversational":
		return &Limits{
			RequestsPerMinute:  60,
			ConcurrentRequests: 8,
			BurstSize:          10,
		}
	case "reasoning":
		return &Limits{
			RequestsPerMinute:  30,
			ConcurrentRequests: 4,
			BurstSize:          5,
		}
	default:
		return &Limits{
			RequestsPerMinute:  30,
			ConcurrentRequests: 3,
			BurstSize:          5,
		}
	}
}

// RateLimiter manages per-backend token buckets with a concurrency cap.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*tokenBucket
}

// NewRateLimiter creates a rate limiter with default limits for both backends.
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*tokenBucket),
	}
	for _, provider := range []string{"conversational", "reasoning"} {
		rl.SetLimits(provider, DefaultLimits(provider))
	}
	return rl
}

// SetLimits configures rate limits for a backend.
func (r *RateLimiter) SetLimits(provider string, limits *Limits) {
	r.mu.Lock()
	defer r.mu.Unlock()

	maxTokens := float64(limits.BurstSize)
	if maxTokens < 1 {
		maxTokens = float64(limits.RequestsPerMinute) / 6.0
	}

	r.buckets[provider] = &tokenBucket{
		tokens:        maxTokens,
		maxTokens:     maxTokens,
		refillRate:    float64(limits.RequestsPerMinute) / 60.0,
		lastRefill:    time.Now(),
		maxConcurrent: limits.ConcurrentRequests,
	}
}

// Acquire blocks until a slot is available for the backend or the context
// is cancelled. Backends without configured limits are not throttled.
func (r *RateLimiter) Acquire(ctx context.Context, provider string) error {
	r.mu.RLock()
	bucket, exists := r.buckets[provider]
	r.mu.RUnlock()

	if !exists {
		return nil
	}
	return bucket.acquire(ctx)
}

// Release frees a concurrency slot after a request completes.
func (r *RateLimiter) Release(provider string) {
	r.mu.RLock()
	bucket, exists := r.buckets[provider]
	r.mu.RUnlock()

	if exists {
		bucket.release()
	}
}

// tokenBucket implements the token bucket algorithm with a concurrency cap.
type tokenBucket struct {
	mu            sync.Mutex
	tokens        float64
	maxTokens     float64
	refillRate    float64 // tokens per second
	lastRefill    time.Time
	activeCount   int
	maxConcurrent int
}

func (b *tokenBucket) acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		b.refill()

		if b.tokens >= 1 && (b.maxConcurrent <= 0 || b.activeCount < b.maxConcurrent) {
			b.tokens--
			b.activeCount++
			b.mu.Unlock()
			return nil
		}
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (b *tokenBucket) release() {
	b.mu.Lock()
	if b.activeCount > 0 {
		b.activeCount--
	}
	b.mu.Unlock()
}

// refill adds tokens based on elapsed time. Caller must hold b.mu.
func (b *tokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now
}
