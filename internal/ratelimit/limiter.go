// Package ratelimit throttles login attempts. Keys are opaque to the
// limiter; the API layer uses "username|client-ip". Two implementations
// exist: a Redis-backed one for multi-process deployments, with a failsafe
// mode that lets traffic through when Redis is unreachable (availability
// over strictness, matching the breach checker's degrade-don't-block
// policy), and an in-memory one for single-process and test use.
package ratelimit

import (
	"context"
	"time"
)

// Config bounds attempt counting.
type Config struct {
	// MaxAttempts within Window before a lockout is imposed.
	MaxAttempts int
	// Window is the sliding period attempts are counted over.
	Window time.Duration
	// Lockout is how long a key stays blocked after exceeding MaxAttempts.
	Lockout time.Duration
}

// DefaultConfig mirrors the production defaults: 5 attempts per 5 minutes,
// 15-minute lockout.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Window:      5 * time.Minute,
		Lockout:     15 * time.Minute,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Lockout <= 0 {
		c.Lockout = d.Lockout
	}
	return c
}

// Limiter gates attempts per key.
type Limiter interface {
	// Allow records an attempt and returns common.ErrRateLimited when the
	// key has exhausted its budget or is locked out.
	Allow(ctx context.Context, key string) error

	// Reset clears the key's counters after a successful attempt.
	Reset(ctx context.Context, key string)
}
