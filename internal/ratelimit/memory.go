package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/passguard/passguard/internal/common"
)

type memoryEntry struct {
	count       int
	windowEnd   time.Time
	lockedUntil time.Time
}

// MemoryLimiter is a process-local Limiter guarded by a mutex.
type MemoryLimiter struct {
	cfg Config

	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryLimiter builds an in-memory limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:     cfg.normalized(),
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e := m.entries[key]
	if e == nil || (now.After(e.windowEnd) && now.After(e.lockedUntil)) {
		e = &memoryEntry{windowEnd: now.Add(m.cfg.Window)}
		m.entries[key] = e
	}

	if now.Before(e.lockedUntil) {
		return common.ErrRateLimited
	}
	if e.count >= m.cfg.MaxAttempts {
		e.lockedUntil = now.Add(m.cfg.Lockout)
		return common.ErrRateLimited
	}

	e.count++
	return nil
}

func (m *MemoryLimiter) Reset(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}
