package ratelimiter

// RateLimiter decides whether an incoming request may proceed.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}
