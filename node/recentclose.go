package node

import (
	"container/list"
	"sync"
	"time"
)

// recentCloseLog is a sliding-window FIFO of recent connection closures: appended to
// on every unexpected disconnect, purged lazily by the health monitor.
type recentCloseLog struct {
	mu   sync.Mutex
	list *list.List // element.Value is time.Time (only the close instant matters)
}

func newRecentCloseLog() *recentCloseLog {
	return &recentCloseLog{list: list.New()}
}

// add appends a close entry stamped with the current time.
func (l *recentCloseLog) add() {
	l.mu.Lock()
	l.list.PushBack(time.Now())
	l.mu.Unlock()
}

// purgeOlderThan drops every entry older than the window, then returns the
// remaining count.
func (l *recentCloseLog) purgeOlderThan(window time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-window)
	for e := l.list.Front(); e != nil; {
		next := e.Next()
		if e.Value.(time.Time).After(cutoff) {
			break
		}
		l.list.Remove(e)
		e = next
	}
	return l.list.Len()
}

func (l *recentCloseLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.list.Len()
}
