// Package ratelimit implements a fixed-window rate limiter with an optional
// lockout period after the window is exceeded.
//
// The limiter is in-process and non-distributed: the cap is exact only per
// process. Horizontally scaled deployments need a shared store behind the
// same interface.
package ratelimit

import (
	"sync"
	"time"
)

// Config describes one limiter policy.
type Config struct {
	// Points is the number of consumptions allowed per window.
	Points int
	// Window is the fixed window duration.
	Window time.Duration
	// Block, when positive, locks the key out for this duration once the
	// window is exceeded. The block takes over as the new barrier; the
	// window itself is not reset by it.
	Block time.Duration
}

// Result reports the outcome of a consumption attempt.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetIn    time.Duration
	RetryAfter time.Duration
}

type record struct {
	count      int
	resetAt    time.Time
	blockUntil time.Time
}

// Limiter holds per-key fixed-window counters. Safe for concurrent use.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	records map[string]*record

	now func() time.Time
}

// New constructs a limiter for one (points, window) policy.
func New(cfg Config) *Limiter {
	return &Limiter{
		cfg:     cfg,
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Consume accounts one request for key and reports whether it is allowed.
func (l *Limiter) Consume(key string) Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]

	// An active block rejects immediately without touching the counter.
	if ok && rec.blockUntil.After(now) {
		return Result{
			RetryAfter: rec.blockUntil.Sub(now),
			ResetIn:    rec.blockUntil.Sub(now),
		}
	}

	if !ok || !rec.resetAt.After(now) {
		rec = &record{count: 1, resetAt: now.Add(l.cfg.Window)}
		l.records[key] = rec
		return Result{
			Allowed:   true,
			Remaining: l.cfg.Points - 1,
			ResetIn:   l.cfg.Window,
		}
	}

	rec.count++
	if rec.count > l.cfg.Points {
		retryAfter := rec.resetAt.Sub(now)
		if l.cfg.Block > 0 {
			rec.blockUntil = now.Add(l.cfg.Block)
			retryAfter = l.cfg.Block
		}
		return Result{
			RetryAfter: retryAfter,
			ResetIn:    retryAfter,
		}
	}
	return Result{
		Allowed:   true,
		Remaining: l.cfg.Points - rec.count,
		ResetIn:   rec.resetAt.Sub(now),
	}
}

// Sweep removes records whose window and block have both expired, and
// returns the number purged. Bounds memory growth from one-shot keys.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	purged := 0
	for key, rec := range l.records {
		if rec.resetAt.After(now) || rec.blockUntil.After(now) {
			continue
		}
		delete(l.records, key)
		purged++
	}
	return purged
}

// Size reports the number of tracked keys.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Points exposes the configured window capacity.
func (l *Limiter) Points() int {
	return l.cfg.Points
}
