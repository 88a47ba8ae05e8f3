// Package node implements the per-endpoint connection pool and request
// dispatcher: THE CORE of SPEC_FULL.md. A Node owns a bounded pool of
// long-lived TCP connections to one remote key-value database endpoint,
// gates concurrent in-flight operations with a permit counter, reaps idle
// connections, watches for a burst of unexpected disconnects to drive a
// passive health check, and correlates each outgoing write with the
// connection that carries it so the response (or failure) reaches the
// right Operation.
package node

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"kvnode/transport"
)

// Node is a per-endpoint connection pool and dispatcher. Its identity is
// the (remote address, port) pair.
type Node struct {
	remoteAddress string
	remotePort    int

	logger *zap.Logger

	// mu guards state and the mutable configuration fields below it, plus
	// the lifecycle transitions in lifecycle.go. It is deliberately not
	// held across blocking I/O (permit acquire, dial, drain waits).
	mu                    sync.Mutex
	state                 State
	minConnections        int
	idleTimeout           time.Duration
	connectTimeout        time.Duration
	blockOnMaxConnections bool

	permits      *permitCounter
	idle         *idlePool
	recentClosed *recentCloseLog
	inFlight     *inFlightMap
	listeners    stateListeners

	dialer *transport.Dialer

	runCtx    context.Context
	runCancel context.CancelFunc

	reaperStop chan struct{}
	healthStop chan struct{}
	tasksDone  sync.WaitGroup
}

// GetRemoteAddress returns the endpoint's IP address or hostname.
func (n *Node) GetRemoteAddress() string { return n.remoteAddress }

// GetPort returns the endpoint's TCP port.
func (n *Node) GetPort() int { return n.remotePort }

// GetNodeState returns the current lifecycle state.
func (n *Node) GetNodeState() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// AddStateListener subscribes l to future state transitions.
func (n *Node) AddStateListener(l StateListener) {
	n.listeners.add(l)
}

// RemoveStateListener unsubscribes l, returning whether it was found.
func (n *Node) RemoveStateListener(l StateListener) bool {
	return n.listeners.remove(l)
}

// AvailablePermits returns the number of connections that could currently
// be checked out without blocking. Diagnostic only.
func (n *Node) AvailablePermits() (int, error) {
	if err := n.stateCheck(Created, Running, HealthChecking); err != nil {
		return 0, err
	}
	return n.permits.available(), nil
}

// stateCheck raises ErrIllegalState if the node isn't in one of allowed.
func (n *Node) stateCheck(allowed ...State) error {
	n.mu.Lock()
	state := n.state
	n.mu.Unlock()

	for _, s := range allowed {
		if s == state {
			return nil
		}
	}
	return fmt.Errorf("%w: required one of %v, current %s", ErrIllegalState, allowed, state)
}

// getNumInProgress exposes the in-flight count for tests.
func (n *Node) getNumInProgress() int {
	return n.inFlight.len()
}
