// Package ratelimit paces outbound provider calls. The scrape provider
// and the extraction API both meter requests, so the orchestration layer
// waits between calls instead of hammering them.
package ratelimit

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Config tunes the limiter and retry backoff.
type Config struct {
	Delay             time.Duration `yaml:"delay"`
	InitialBackoff    time.Duration `yaml:"initialBackoff"`
	MaxBackoff        time.Duration `yaml:"maxBackoff"`
	BackoffMultiplier float64       `yaml:"backoffMultiplier"`
	MaxRetries        int           `yaml:"maxRetries"`
}

func (c Config) withDefaults() Config {
	if c.Delay <= 0 {
		c.Delay = time.Second
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.BackoffMultiplier <= 1 {
		c.BackoffMultiplier = 2
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	return c
}

// Limiter enforces a fixed delay between consecutive requests.
type Limiter struct {
	cfg  Config
	mu   sync.Mutex
	last time.Time
}

// NewLimiter builds a limiter with defaults applied.
func NewLimiter(cfg Config) *Limiter {
	return &Limiter{cfg: cfg.withDefaults()}
}

// Wait blocks until the delay since the previous request has elapsed or
// the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	wait := l.reserve(time.Now())
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Allow reports whether a request may proceed immediately.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserve(time.Now()) <= 0
}

// RetryAfter computes exponential backoff with +/-25% jitter for the
// given attempt number (1-based).
func (l *Limiter) RetryAfter(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	cfg := l.cfg
	if attempt > cfg.MaxRetries {
		return cfg.MaxBackoff
	}

	base := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffMultiplier, float64(attempt-1))
	if base > float64(cfg.MaxBackoff) {
		base = float64(cfg.MaxBackoff)
	}

	jitter := base * 0.25 * (2*rand.Float64() - 1)
	backoff := base + jitter
	if backoff < 0 {
		backoff = 0
	}
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}

// Reset clears the request history.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = time.Time{}
}

func (l *Limiter) reserve(now time.Time) time.Duration {
	if l.last.IsZero() {
		l.last = now
		return 0
	}
	elapsed := now.Sub(l.last)
	if elapsed >= l.cfg.Delay {
		l.last = now
		return 0
	}
	wait := l.cfg.Delay - elapsed
	l.last = now.Add(wait)
	return wait
}
