package core

// limiter.go caps how many imports run at once in a long-lived process.
//
// A buffered channel acts as a semaphore. Callers that cannot get a slot
// within maxWait fail with ErrTooManyImports; WaitForDrain lets a server
// finish in-flight imports before shutting down.

import (
	"context"
	"errors"
	"time"
)

// ErrTooManyImports is returned when every import slot stays busy for the
// whole wait period.
var ErrTooManyImports = errors.New("too many concurrent imports")

const (
	DefaultMaxConcurrentImports = 4
	DefaultMaxWait              = 10 * time.Second
)

// ImportLimiter bounds concurrent imports.
type ImportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
}

// NewImportLimiter creates a limiter with maxConcurrent slots. Non-positive
// arguments fall back to the defaults.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &ImportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most the limiter's maxWait. Every
// successful Acquire must be paired with Release.
func (l *ImportLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyImports
	}
}

// Release frees a slot taken by Acquire.
func (l *ImportLimiter) Release() { <-l.slots }

// Active returns the number of slots in use.
func (l *ImportLimiter) Active() int { return len(l.slots) }

// Capacity returns the maximum number of concurrent imports.
func (l *ImportLimiter) Capacity() int { return cap(l.slots) }

// WaitForDrain blocks until no import holds a slot or ctx is done.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
