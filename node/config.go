package node

import (
	"fmt"
	"time"
)

// SetMaxConnections adjusts the pool cap on a running or not-yet-started
// node. Shrinking below the current
// in-flight count neither reaps nor rejects; the overage drains naturally.
func (n *Node) SetMaxConnections(max int) error {
	if err := n.stateCheck(Created, Running, HealthChecking); err != nil {
		return err
	}
	if max > 0 && max < n.getMinConnectionsUnchecked() {
		return fmt.Errorf("%w: max connections (%d) less than min connections (%d)",
			ErrIllegalArgument, max, n.getMinConnectionsUnchecked())
	}
	n.permits.setMax(max)
	return nil
}

// GetMaxConnections returns the current pool cap (0 means unbounded).
func (n *Node) GetMaxConnections() (int, error) {
	if err := n.stateCheck(Created, Running, HealthChecking); err != nil {
		return 0, err
	}
	max := n.permits.maxPermits()
	if max == 1<<31-1 {
		return 0, nil
	}
	return max, nil
}

// SetMinConnections adjusts the keep-alive floor.
func (n *Node) SetMinConnections(min int) error {
	if err := n.stateCheck(Created, Running, HealthChecking); err != nil {
		return err
	}
	maxConns, _ := n.GetMaxConnections()
	if maxConns > 0 && min > maxConns {
		return fmt.Errorf("%w: min connections (%d) greater than max connections (%d)",
			ErrIllegalArgument, min, maxConns)
	}
	n.mu.Lock()
	n.minConnections = min
	n.mu.Unlock()
	return nil
}

// GetMinConnections returns the current keep-alive floor.
func (n *Node) GetMinConnections() (int, error) {
	if err := n.stateCheck(Created, Running, HealthChecking); err != nil {
		return 0, err
	}
	return n.getMinConnectionsUnchecked(), nil
}

func (n *Node) getMinConnectionsUnchecked() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.minConnections
}

// SetBlockOnMaxConnections toggles fail-fast vs. blocking admission.
func (n *Node) SetBlockOnMaxConnections(block bool) {
	n.mu.Lock()
	n.blockOnMaxConnections = block
	n.mu.Unlock()
}

// GetBlockOnMaxConnections reports the current admission mode.
func (n *Node) GetBlockOnMaxConnections() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.blockOnMaxConnections
}

// SetIdleTimeout adjusts the idle-reap threshold.
func (n *Node) SetIdleTimeout(ms int) error {
	if err := n.stateCheck(Created, Running, HealthChecking); err != nil {
		return err
	}
	n.mu.Lock()
	n.idleTimeout = time.Duration(ms) * time.Millisecond
	n.mu.Unlock()
	return nil
}

// GetIdleTimeout returns the idle-reap threshold in milliseconds.
func (n *Node) GetIdleTimeout() (int, error) {
	if err := n.stateCheck(Created, Running, HealthChecking); err != nil {
		return 0, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return int(n.idleTimeout / time.Millisecond), nil
}

// SetConnectionTimeout adjusts the TCP connect timeout.
func (n *Node) SetConnectionTimeout(ms int) error {
	if err := n.stateCheck(Created, Running, HealthChecking); err != nil {
		return err
	}
	n.mu.Lock()
	n.connectTimeout = time.Duration(ms) * time.Millisecond
	if n.dialer != nil {
		n.dialer.Timeout = n.connectTimeout
	}
	n.mu.Unlock()
	return nil
}

// GetConnectionTimeout returns the TCP connect timeout in milliseconds.
func (n *Node) GetConnectionTimeout() (int, error) {
	if err := n.stateCheck(Created, Running, HealthChecking); err != nil {
		return 0, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return int(n.connectTimeout / time.Millisecond), nil
}
