package resilience

import (
	"context"
	"sync"
	"time"
)

// Limiter bounds in-flight calls to a target and enforces a minimum interval
// between call starts. Both knobs are optional; a zero limiter admits
// everything immediately.
type Limiter struct {
	sem chan struct{}

	mu          sync.Mutex
	lastStart   time.Time
	minInterval time.Duration
}

// NewLimiter builds a limiter admitting at most maxConcurrent calls at once,
// started at least minInterval apart. maxConcurrent <= 0 means unbounded.
func NewLimiter(maxConcurrent int, minInterval time.Duration) *Limiter {
	l := &Limiter{minInterval: minInterval}
	if maxConcurrent > 0 {
		l.sem = make(chan struct{}, maxConcurrent)
	}
	return l
}

// Acquire blocks until a slot is free and the pacing interval has elapsed,
// or the context is done. Every successful Acquire must be paired with
// Release.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.sem != nil {
		select {
		case l.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if wait := l.reserveStart(); wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			l.Release()
			return ctx.Err()
		}
	}
	return nil
}

// Release frees the slot taken by Acquire.
func (l *Limiter) Release() {
	if l.sem != nil {
		<-l.sem
	}
}

// reserveStart claims the next start time and returns how long the caller
// must wait before it. Claiming up front keeps concurrent acquirers spaced
// out instead of all waking at once.
func (l *Limiter) reserveStart() time.Duration {
	if l.minInterval <= 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	next := l.lastStart.Add(l.minInterval)
	if next.Before(now) {
		next = now
	}
	l.lastStart = next
	return next.Sub(now)
}
