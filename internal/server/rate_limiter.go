// Package server implements per-connection throttling that protects the hub
// from abuse.
package server

import (
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter admits up to capacity messages per interval, refilling evenly.
type rateLimiter struct {
	limiter *rate.Limiter
}

func newRateLimiter(capacity int, interval time.Duration) *rateLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}

	every := interval / time.Duration(capacity)
	return &rateLimiter{
		limiter: rate.NewLimiter(rate.Every(every), capacity),
	}
}

func (rl *rateLimiter) allow() bool {
	return rl.limiter.Allow()
}
