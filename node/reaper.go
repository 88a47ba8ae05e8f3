package node

import (
	"time"

	"go.uber.org/zap"
)

const (
	reaperInitialDelay = 1 * time.Second
	reaperPeriod       = 5 * time.Second
)

// runReaper is the idle reaper: it trims the idle pool
// toward minConnections by evicting the oldest idle connections past the
// idle timeout, stopping at the first record still within the timeout
// since LIFO ordering guarantees everything closer to the head is fresher.
func (n *Node) runReaper() {
	defer n.tasksDone.Done()

	timer := time.NewTimer(reaperInitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-n.reaperStop:
			return
		case <-timer.C:
			n.reapIdleConnections()
			timer.Reset(reaperPeriod)
		}
	}
}

func (n *Node) reapIdleConnections() {
	n.mu.Lock()
	min := n.minConnections
	idleTimeout := n.idleTimeout
	n.mu.Unlock()

	inFlight := n.inFlight.len()
	current := inFlight + n.idle.len()
	if current <= min {
		return
	}

	// The idle pool alone must not be trimmed below (min - inFlight): that
	// is the floor actually enforced on |idle|+|in-flight|.
	idleFloor := min - inFlight
	if idleFloor < 0 {
		idleFloor = 0
	}

	evicted := n.idle.reapEvictable(idleTimeout, idleFloor)
	for _, rec := range evicted {
		n.logger.Debug("idle connection reaped", zap.Uint64("conn", rec.conn.ID()))
		n.closeConnection(rec.conn)
	}
}
