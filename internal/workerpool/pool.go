// Package workerpool bounds concurrent CPU-bound stage work (ASR
// invocation, hiragana normalization, translation) to a small fixed
// number of slots, so a burst of sessions cannot spawn unbounded
// goroutines against the same external model process.
package workerpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool limits concurrent execution of Do calls to a fixed weight.
type Pool struct {
	sem *semaphore.Weighted
}

// DefaultWorkers is the recommended worker count: ≤2 to protect memory
// on the machine running the external ASR/translation models.
const DefaultWorkers = 2

// New returns a Pool that admits at most n concurrent Do calls. n <= 0 is
// treated as DefaultWorkers.
func New(n int) *Pool {
	if n <= 0 {
		n = DefaultWorkers
	}
	return &Pool{sem: semaphore.NewWeighted(int64(n))}
}

// Do acquires a slot, runs fn, and releases the slot. It returns ctx.Err()
// without running fn if ctx is cancelled before a slot is acquired.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
