package node

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kvnode/transport"
)

// Start transitions a CREATED node to RUNNING: it opens up to
// minConnections connections (tolerating individual failures), starts the
// idle reaper and health monitor, and notifies state listeners.
func (n *Node) Start() error {
	n.mu.Lock()
	if n.state != Created {
		state := n.state
		n.mu.Unlock()
		return fmt.Errorf("%w: required CREATED, current %s", ErrIllegalState, state)
	}
	n.runCtx, n.runCancel = context.WithCancel(context.Background())
	n.reaperStop = make(chan struct{})
	n.healthStop = make(chan struct{})
	min := n.minConnections
	dialer := n.dialerLocked()
	n.mu.Unlock()

	for i := 0; i < min; i++ {
		c, err := dialer.Dial(n)
		if err != nil {
			n.logger.Debug("initial connection failed", zap.Error(err))
			continue
		}
		c.SetCloseListener(func(cause error) { n.onIdleClose(c, cause) })
		n.idle.offerFirst(newConnRecord(c))
	}

	n.mu.Lock()
	n.state = Running
	n.mu.Unlock()

	n.tasksDone.Add(2)
	go n.runReaper()
	go n.runHealthMonitor()

	n.logger.Info("node started")
	n.listeners.notify(n, Running)
	return nil
}

// ShutdownHandle is a waitable completion handle returned
// from Shutdown, mirroring a Java Future<Boolean> without the cancel
// semantics (Cancel is always a no-op; shutdown is not cancellable once
// started).
type ShutdownHandle struct {
	done chan struct{}
}

// Wait blocks until shutdown completes.
func (h *ShutdownHandle) Wait() {
	<-h.done
}

// WaitTimeout blocks until shutdown completes or the timeout elapses,
// reporting which happened.
func (h *ShutdownHandle) WaitTimeout(d time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(d):
		return false
	}
}

// Cancel is a no-op: shutdown is not cancellable once started. It always
// reports false.
func (h *ShutdownHandle) Cancel() bool { return false }

// IsDone reports whether shutdown has completed.
func (h *ShutdownHandle) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Shutdown moves {RUNNING, HEALTH_CHECKING} to SHUTTING_DOWN: it cancels
// the reaper and health monitor, drains and closes every idle connection,
// then waits in the background for in-flight operations to finish before
// transitioning to SHUTDOWN.
func (n *Node) Shutdown() (*ShutdownHandle, error) {
	n.mu.Lock()
	state := n.state
	if state != Running && state != HealthChecking {
		n.mu.Unlock()
		return nil, fmt.Errorf("%w: required RUNNING or HEALTH_CHECKING, current %s", ErrIllegalState, state)
	}
	n.state = ShuttingDown
	n.mu.Unlock()

	n.logger.Info("node shutting down")
	n.listeners.notify(n, ShuttingDown)

	close(n.reaperStop)
	close(n.healthStop)
	if n.runCancel != nil {
		n.runCancel()
	}

	for _, rec := range n.idle.drainAll() {
		n.closeConnection(rec.conn)
	}

	handle := &ShutdownHandle{done: make(chan struct{})}
	go n.drainAndFinish(handle)
	return handle, nil
}

// drainAndFinish waits for the reaper and health monitor to exit and for
// in-flight operations to complete, then transitions to SHUTDOWN,
// signalling handle.
func (n *Node) drainAndFinish(handle *ShutdownHandle) {
	n.tasksDone.Wait() // reaper and health-monitor goroutines have exited

	for n.inFlight.len() > 0 {
		time.Sleep(10 * time.Millisecond)
	}

	n.mu.Lock()
	n.state = Shutdown
	n.mu.Unlock()

	n.logger.Info("node shut down")
	n.listeners.notify(n, Shutdown)
	close(handle.done)
}

// ensure Node satisfies transport.ResponseListener at compile time.
var _ transport.ResponseListener = (*Node)(nil)
