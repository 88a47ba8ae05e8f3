package node

import (
	"container/list"
	"sync"
	"time"
)

// idlePool is a LIFO deque of idle connections: hot connections stay hot,
// because offerFirst always pushes to the head and poll always pops from
// the head, so a small set of connections gets reused repeatedly while
// older idle entries accumulate at the tail where the reaper looks first.
//
// container/list gives O(1) push-front, pop-front and mid-list removal,
// which the reaper needs when it evicts a specific element found while
// walking from the tail.
type idlePool struct {
	mu   sync.Mutex
	list *list.List // element.Value is connRecord
}

func newIdlePool() *idlePool {
	return &idlePool{list: list.New()}
}

// offerFirst pushes a record onto the head of the deque.
func (p *idlePool) offerFirst(cr connRecord) {
	p.mu.Lock()
	p.list.PushFront(cr)
	p.mu.Unlock()
}

// poll removes and returns the head record, if any.
func (p *idlePool) poll() (connRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.list.Front()
	if e == nil {
		return connRecord{}, false
	}
	p.list.Remove(e)
	return e.Value.(connRecord), true
}

func (p *idlePool) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.list.Len()
}

// drainAll removes and returns every record currently in the pool, in
// head-to-tail (hottest-first) order. Used at shutdown to close everything.
func (p *idlePool) drainAll() []connRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]connRecord, 0, p.list.Len())
	for e := p.list.Front(); e != nil; {
		next := e.Next()
		out = append(out, e.Value.(connRecord))
		p.list.Remove(e)
		e = next
	}
	return out
}

// reapEvictable walks the deque oldest-first (from the tail, since
// offerFirst always inserts at the head) and removes every record whose
// idle time exceeds idleTimeout, stopping as soon as either a record is
// found that hasn't aged out yet (everything closer to the head is
// fresher, by LIFO construction) or minKeep entries remain. It returns the
// evicted records so the caller can close them outside the lock.
func (p *idlePool) reapEvictable(idleTimeout time.Duration, minKeep int) []connRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	var evicted []connRecord
	cutoff := time.Now().Add(-idleTimeout)

	for e := p.list.Back(); e != nil && p.list.Len() > minKeep; {
		cr := e.Value.(connRecord)
		if cr.since.After(cutoff) {
			break
		}
		prev := e.Prev()
		p.list.Remove(e)
		evicted = append(evicted, cr)
		e = prev
	}
	return evicted
}
