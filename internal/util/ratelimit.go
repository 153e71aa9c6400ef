package util

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter is an in-memory sliding window limiter keyed by caller
// identifier (client IP for public lead submissions).
type RateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	requests map[string][]time.Time
	now      func() time.Time
}

// NewRateLimiter allows limit requests per key within window. A limit of zero
// or less disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		window:   window,
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow records a request for key, or returns an error describing how long
// the caller must wait.
func (l *RateLimiter) Allow(key string) error {
	if l.limit <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	validRequests := pruneBefore(l.requests[key], now.Add(-l.window))

	if len(validRequests) >= l.limit {
		wait := validRequests[0].Add(l.window).Sub(now)
		l.requests[key] = validRequests
		return fmt.Errorf("rate limit exceeded: maximum %d requests per %v. Please wait %v before trying again", l.limit, l.window, wait.Round(time.Second))
	}

	l.requests[key] = append(validRequests, now)
	return nil
}

// Cleanup drops keys with no requests inside the window.
func (l *RateLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for key, requests := range l.requests {
		validRequests := pruneBefore(requests, cutoff)
		if len(validRequests) == 0 {
			delete(l.requests, key)
		} else {
			l.requests[key] = validRequests
		}
	}
}

// Len returns the number of tracked keys.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

func pruneBefore(requests []time.Time, cutoff time.Time) []time.Time {
	valid := requests[:0:0]
	for _, reqTime := range requests {
		if reqTime.After(cutoff) {
			valid = append(valid, reqTime)
		}
	}
	return valid
}
