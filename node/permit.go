package node

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// permitCounter is a resizable counting semaphore. It
// wraps golang.org/x/sync/semaphore.Weighted, which already gives FIFO-fair
// blocking acquire with context cancellation and a non-blocking TryAcquire
// — exactly the two admission modes getConnection needs.
//
// x/sync/semaphore has no native "reduce capacity" primitive, so shrinking
// is implemented by acquiring the delta permanently
// into a "shadow" hold that is never released back to callers. Growing
// releases the delta immediately, which is symmetric with a plain
// Semaphore.release(n).
type permitCounter struct {
	sem *semaphore.Weighted

	mu     sync.Mutex
	max    int64
	shadow int64 // permits held on our own behalf to represent a shrink
}

func newPermitCounter(max int) *permitCounter {
	if max <= 0 {
		max = 1<<31 - 1 // treat 0/negative as effectively unbounded
	}
	return &permitCounter{
		sem: semaphore.NewWeighted(int64(max)),
		max: int64(max),
	}
}

// tryAcquire attempts a non-blocking acquire of one permit.
func (p *permitCounter) tryAcquire() bool {
	return p.sem.TryAcquire(1)
}

// acquire blocks until a permit is available or ctx is cancelled. Waiters
// are served FIFO by the underlying semaphore.
func (p *permitCounter) acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// release returns one permit to the pool.
func (p *permitCounter) release() {
	p.sem.Release(1)
}

// available returns the number of permits currently obtainable without
// blocking. Best-effort: computed by trying to drain and immediately
// restoring, so it briefly perturbs fairness for concurrent waiters; used
// only for diagnostics/tests, never on a hot path.
func (p *permitCounter) available() int {
	p.mu.Lock()
	max := p.max
	p.mu.Unlock()

	var got int64
	for got < max && p.sem.TryAcquire(1) {
		got++
	}
	if got > 0 {
		p.sem.Release(got)
	}
	return int(got)
}

func (p *permitCounter) maxPermits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.max)
}

// setMax adjusts capacity on a running counter. Growing releases the
// difference immediately (increasing availability without touching
// outstanding-permit accounting); shrinking acquires the difference into a
// shadow hold that is never released, so it silently reduces how many
// permits can ever be checked out again without corrupting the count of
// permits already outstanding to callers.
func (p *permitCounter) setMax(newMax int) {
	if newMax <= 0 {
		newMax = 1<<31 - 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	diff := int64(newMax) - p.max
	if diff == 0 {
		return
	}

	if diff > 0 {
		p.sem.Release(diff)
	} else {
		delta := -diff
		go p.shrink(delta)
	}
	p.max = int64(newMax)
}

// shrink acquires delta permits on a background goroutine and never
// releases them; a shrink can block behind currently-outstanding permits,
// which is fine since it just delays how soon the new, lower ceiling
// becomes visible to callers.
func (p *permitCounter) shrink(delta int64) {
	_ = p.sem.Acquire(context.Background(), delta)
	p.mu.Lock()
	p.shadow += delta
	p.mu.Unlock()
}
