package node

import (
	"time"

	"go.uber.org/zap"
)

const (
	healthInitialDelay = 1 * time.Second
	healthPeriod       = 500 * time.Millisecond
	healthWindow       = 3 * time.Second
	healthThreshold    = 5
)

// runHealthMonitor is the health monitor: it ages out the
// recent-close log and drives the node between RUNNING and
// HEALTH_CHECKING based on the sliding-window closure count and active
// probe results.
func (n *Node) runHealthMonitor() {
	defer n.tasksDone.Done()

	timer := time.NewTimer(healthInitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-n.healthStop:
			return
		case <-timer.C:
			n.healthTick()
			timer.Reset(healthPeriod)
		}
	}
}

func (n *Node) healthTick() {
	count := n.recentClosed.purgeOlderThan(healthWindow)

	n.mu.Lock()
	state := n.state
	n.mu.Unlock()

	shouldProbe := (state == Running && count >= healthThreshold) || state == HealthChecking
	if shouldProbe {
		n.checkHealth()
	}
}

// checkHealth runs the active probe: it dials a fresh
// connection using the same path the dispatcher uses (outside the permit
// system) and immediately closes it. Success/failure while in each state
// drives the RUNNING <-> HEALTH_CHECKING transition.
func (n *Node) checkHealth() {
	n.mu.Lock()
	dialer := n.dialerLocked()
	n.mu.Unlock()

	c, err := dialer.Dial(n)

	n.mu.Lock()
	state := n.state
	n.mu.Unlock()

	if err == nil {
		n.closeConnection(c)
		if state == HealthChecking {
			n.transitionTo(Running, "recovered")
		}
		return
	}

	if state == Running {
		n.logger.Error("node offline; health checking", zap.Error(err))
		n.transitionTo(HealthChecking, "probe failed")
	} else {
		n.logger.Error("failed health check while already health-checking", zap.Error(err))
	}
}

// transitionTo moves the node into newState and notifies listeners,
// guarding against a state change that raced ahead of us (e.g. shutdown
// started while a probe was in flight).
func (n *Node) transitionTo(newState State, reason string) {
	n.mu.Lock()
	current := n.state
	if current != Running && current != HealthChecking {
		n.mu.Unlock()
		return
	}
	n.state = newState
	n.mu.Unlock()

	n.logger.Info("node state changed", zap.String("state", newState.String()), zap.String("reason", reason))
	n.listeners.notify(n, newState)
}
