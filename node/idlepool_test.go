package node

import (
	"testing"
	"time"
)

func TestIdlePoolLIFOOrder(t *testing.T) {
	p := newIdlePool()
	a := connRecord{since: time.Now()}
	b := connRecord{since: time.Now()}
	p.offerFirst(a)
	p.offerFirst(b)

	got, ok := p.poll()
	if !ok || got.since != b.since {
		t.Fatal("poll should return the most recently offered record first (LIFO)")
	}
	got, ok = p.poll()
	if !ok || got.since != a.since {
		t.Fatal("second poll should return the earlier record")
	}
	if _, ok := p.poll(); ok {
		t.Fatal("pool should be empty")
	}
}

func TestIdlePoolReapEvictableRespectsMinKeep(t *testing.T) {
	p := newIdlePool()
	old := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		p.offerFirst(connRecord{since: old})
	}

	evicted := p.reapEvictable(time.Minute, 2)
	if len(evicted) != 3 {
		t.Fatalf("evicted %d records, want 3 (keep 2 of 5)", len(evicted))
	}
	if got := p.len(); got != 2 {
		t.Fatalf("pool len after reap = %d, want 2", got)
	}
}

func TestIdlePoolReapEvictableStopsAtFreshRecord(t *testing.T) {
	p := newIdlePool()
	// Oldest at the tail, freshest at the head: offerFirst always inserts at
	// the head, so insert oldest first.
	p.offerFirst(connRecord{since: time.Now().Add(-time.Hour)})
	p.offerFirst(connRecord{since: time.Now()})

	evicted := p.reapEvictable(time.Minute, 0)
	if len(evicted) != 1 {
		t.Fatalf("evicted %d records, want 1 (only the stale one)", len(evicted))
	}
	if got := p.len(); got != 1 {
		t.Fatalf("pool len after reap = %d, want 1", got)
	}
}

func TestIdlePoolDrainAll(t *testing.T) {
	p := newIdlePool()
	for i := 0; i < 3; i++ {
		p.offerFirst(connRecord{since: time.Now()})
	}
	drained := p.drainAll()
	if len(drained) != 3 {
		t.Fatalf("drained %d records, want 3", len(drained))
	}
	if got := p.len(); got != 0 {
		t.Fatalf("pool len after drain = %d, want 0", got)
	}
}
