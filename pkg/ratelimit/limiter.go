package ratelimit

import (
	"sync"
	"time"
)

const defaultBucketTTL = 10 * time.Minute

// bucket is a token bucket refilled continuously at the limiter's rate
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter keeps one token bucket per key, typically the client address.
// Idle buckets are dropped on a later Allow once they have been unused for
// the bucket TTL, by which point they would be full again anyway.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	capacity  float64
	rate      float64 // tokens per second
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func WithBucketTTL(ttl time.Duration) Option {
	return func(l *Limiter) {
		l.ttl = ttl
	}
}

// NewLimiter allows bursts of capacity requests per key, refilled at
// perMinute requests per minute.
func NewLimiter(capacity, perMinute int, opts ...Option) *Limiter {
	l := &Limiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(capacity),
		rate:     float64(perMinute) / 60,
		ttl:      defaultBucketTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

// Allow takes one token from key's bucket and reports whether there was one
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, lastSeen: now}
		l.buckets[key] = b
	}

	b.tokens = min(l.capacity, b.tokens+now.Sub(b.lastSeen).Seconds()*l.rate)
	b.lastSeen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter is the time one token takes to refill
func (l *Limiter) RetryAfter() time.Duration {
	if l.rate <= 0 {
		return time.Minute
	}
	return time.Duration(float64(time.Second) / l.rate)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweep(now time.Time) {
	if l.ttl <= 0 || now.Sub(l.lastSweep) < l.ttl {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.ttl {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
