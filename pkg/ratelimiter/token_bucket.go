package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket implements RateLimiter with the token bucket algorithm,
// letting traffic burst up to the bucket's capacity while holding the
// long-term rate at `rate` requests per second.
type TokenBucket struct {
	rate       float64 // tokens generated per second
	capacity   float64 // maximum tokens held
	tokens     float64 // tokens currently available
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a full bucket.
// rate: tokens generated per second. capacity: burst size.
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow refills the bucket for the elapsed time and consumes one token if
// available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(tb.lastRefill); elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}
