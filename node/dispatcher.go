package node

import (
	"fmt"

	"go.uber.org/zap"

	"kvnode/transport"
)

// Execute submits op to be run on this node. It returns true if the
// operation was accepted (a connection was found or opened and the write
// was started), false if no connection was available — the caller may
// retry on another node. Execute never blocks waiting for the response;
// completion is delivered asynchronously through the reactor in reactor.go.
func (n *Node) Execute(op Operation) (bool, error) {
	if err := n.stateCheck(Running, HealthChecking); err != nil {
		return false, err
	}

	op.SetLastNode(n)

	c, err := n.getConnection()
	if err != nil {
		n.logger.Debug("operation not executed; no connection available", zap.Error(err))
		return false, nil
	}

	n.inFlight.put(c, op)

	c.WriteAsync(op.Request(), func(werr error) {
		n.onWriteComplete(c, op, werr)
	})

	n.logger.Debug("operation dispatched")
	return true, nil
}

// getConnection acquires a permit, then either reuses an idle
// connection or synchronously dials a new one. On every exit path either a
// permit is held and a live connection is returned, or no permit is held
// and an error is returned.
func (n *Node) getConnection() (*transport.Conn, error) {
	if err := n.stateCheck(Running, HealthChecking); err != nil {
		return nil, err
	}

	if !n.acquirePermit() {
		return nil, fmt.Errorf("%w: no permit available", ErrConnectionFailed)
	}

	c, err := n.dequeueOrDial()
	if err != nil {
		n.permits.release()
		return nil, err
	}

	// The connection is no longer idle; detach the idle-close listener.
	// The in-progress-close listener is installed by onWriteComplete on a
	// successful write.
	c.SetCloseListener(nil)

	return c, nil
}

// acquirePermit implements the blocking/non-blocking split,
// driven by blockOnMaxConnections.
func (n *Node) acquirePermit() bool {
	n.mu.Lock()
	block := n.blockOnMaxConnections
	ctx := n.runCtx
	n.mu.Unlock()

	if !block {
		return n.permits.tryAcquire()
	}

	if n.permits.tryAcquire() {
		return true
	}
	n.logger.Info("all connections in use; waiting for one")
	if ctx == nil {
		return n.permits.tryAcquire()
	}
	if err := n.permits.acquire(ctx); err != nil {
		return false
	}
	return true
}

// dequeueOrDial drains the idle pool head-to-tail until an open connection
// is found (closed entries are discarded, which doubles as a purge path
// during health checks), or dials a new one using the configured connect
// timeout.
func (n *Node) dequeueOrDial() (*transport.Conn, error) {
	for {
		rec, ok := n.idle.poll()
		if !ok {
			break
		}
		if rec.conn.IsOpen() {
			return rec.conn, nil
		}
		// Closed connection pulled from the pool: discard and keep
		// draining.
	}

	n.mu.Lock()
	dialer := n.dialerLocked()
	n.mu.Unlock()

	c, err := dialer.Dial(n)
	if err != nil {
		n.logger.Error("connection attempt failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return c, nil
}

func (n *Node) dialerLocked() *transport.Dialer {
	if n.dialer == nil {
		n.dialer = transport.NewDialer("tcp", fmt.Sprintf("%s:%d", n.remoteAddress, n.remotePort), n.connectTimeout)
		n.dialer.Logger = n.logger
	}
	return n.dialer
}
