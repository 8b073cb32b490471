package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyBulk means every bulk slot stayed taken for the limiter's wait
// budget.
var ErrTooManyBulk = errors.New("too many bulk creations in progress, please try again later")

const (
	DefaultMaxConcurrentBulk = 2
	DefaultBulkMaxWait       = 10 * time.Second
)

// BulkLimiter caps the number of bulk creations holding a transaction. Each
// batch pins one pooled connection until it commits, so the cap keeps
// single-card traffic from starving behind large imports.
type BulkLimiter struct {
	free    chan struct{} // one token per free slot
	maxWait time.Duration

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed while active == 0
}

// NewBulkLimiter returns a limiter with maxConcurrent slots. Acquire gives
// up after maxWait. Non-positive arguments select the defaults.
func NewBulkLimiter(maxConcurrent int, maxWait time.Duration) *BulkLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentBulk
	}
	if maxWait <= 0 {
		maxWait = DefaultBulkMaxWait
	}

	l := &BulkLimiter{
		free:    make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    make(chan struct{}),
	}
	for i := 0; i < maxConcurrent; i++ {
		l.free <- struct{}{}
	}
	close(l.idle)
	return l
}

// Acquire takes a slot. It returns ctx.Err() if ctx ends first and
// ErrTooManyBulk if no slot frees up within the wait budget. Every
// successful Acquire must be paired with Release.
func (l *BulkLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case <-l.free:
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyBulk
	}

	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
	return nil
}

// Release gives back a slot taken by Acquire.
func (l *BulkLimiter) Release() {
	l.mu.Lock()
	if l.active == 0 {
		l.mu.Unlock()
		panic("core: BulkLimiter.Release without Acquire")
	}
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	l.free <- struct{}{}
}

// ActiveCount returns how many slots are held.
func (l *BulkLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Available returns how many slots are free right now.
func (l *BulkLimiter) Available() int {
	return len(l.free)
}

// WaitForDrain returns once no slot is held, or with ctx.Err() if ctx ends
// first. Batches admitted after it returns are not waited for.
func (l *BulkLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
