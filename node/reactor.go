package node

import (
	"go.uber.org/zap"

	"kvnode/transport"
	"kvnode/wire"
)

// onWriteComplete is the write-completion handler,
// installed by Execute on every dispatch.
func (n *Node) onWriteComplete(c *transport.Conn, op Operation, werr error) {
	if werr != nil {
		n.logger.Error("write failed", zap.Uint64("conn", c.ID()), zap.Error(werr))
		if inProgress, ok := n.inFlight.remove(c); ok {
			c.Close()
			n.returnConnection(c)
			n.recentClosed.add()
			inProgress.SetException(wrapErr(ErrWriteFailed, werr))
		}
		return
	}

	// A successful write means the connection now carries a live
	// in-flight operation; install the in-progress close listener so a
	// mid-operation disconnect is detected.
	c.SetCloseListener(func(cause error) {
		n.onInProgressClose(c, cause)
	})
}

// OnSuccess implements transport.ResponseListener. It is the "message
// received" event.
func (n *Node) OnSuccess(c *transport.Conn, msg *wire.Message) {
	op, ok := n.inFlight.get(c)
	if !ok {
		// Lost the race with a close event; drop the message.
		return
	}

	op.SetResponse(msg)

	if op.IsDone() {
		if _, ok := n.inFlight.remove(c); ok {
			n.returnConnection(c)
		}
	}
}

// OnRiakErrorResponse implements transport.ResponseListener: a
// protocol-level error reply from the server. The connection is still
// usable and goes back to the idle pool.
func (n *Node) OnRiakErrorResponse(c *transport.Conn, msg *wire.Message) {
	op, ok := n.inFlight.remove(c)
	if !ok {
		return
	}
	op.SetException(&ProtocolError{Code: msg.Code, Message: msg.Message})
	n.returnConnection(c)
}

// OnException implements transport.ResponseListener: a generic transport
// exception. The connection typically closes shortly afterwards; that
// close event will find no in-flight entry and be a no-op.
func (n *Node) OnException(c *transport.Conn, err error) {
	op, ok := n.inFlight.remove(c)
	if !ok {
		return
	}
	n.logger.Error("transport exception", zap.Uint64("conn", c.ID()), zap.Error(err))
	op.SetException(err)
	n.returnConnection(c)
}

// onInProgressClose fires when a connection with an active operation
// closes. It is the "in-progress close" listener variant.
func (n *Node) onInProgressClose(c *transport.Conn, cause error) {
	inProgress, ok := n.inFlight.remove(c)
	if !ok {
		return
	}
	n.logger.Error("channel closed while operation in progress", zap.Uint64("conn", c.ID()))

	n.returnConnection(c)
	n.recentClosed.add()

	inProgress.SetException(wrapErr(ErrUnexpectedClose, cause))
}

// onIdleClose fires when a connection sitting in the idle pool closes
// (peer half-close, keepalive failure, etc). The closed record is left in
// the pool; the next poll() or a reaper pass discards it.
func (n *Node) onIdleClose(c *transport.Conn, cause error) {
	n.recentClosed.add()
	n.logger.Error("idle channel closed", zap.Uint64("conn", c.ID()))
}

// returnConnection is called on every terminal path for an in-flight
// operation. Its behavior depends on the node's lifecycle state.
func (n *Node) returnConnection(c *transport.Conn) {
	n.mu.Lock()
	state := n.state
	n.mu.Unlock()

	switch state {
	case ShuttingDown, Shutdown:
		n.closeConnection(c)
		n.permits.release()
		return
	}

	if c.IsOpen() {
		c.SetCloseListener(func(cause error) { n.onIdleClose(c, cause) })
		n.idle.offerFirst(newConnRecord(c))
	}
	n.permits.release()
}

// closeConnection removes both close listeners before closing so an
// explicit close does not pollute the recent-close log.
func (n *Node) closeConnection(c *transport.Conn) {
	c.SetCloseListener(nil)
	c.Close()
}

func wrapErr(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return &wrappedErr{sentinel: sentinel, cause: cause}
}

type wrappedErr struct {
	sentinel error
	cause    error
}

func (e *wrappedErr) Error() string { return e.sentinel.Error() + ": " + e.cause.Error() }
func (e *wrappedErr) Unwrap() []error { return []error{e.sentinel, e.cause} }

// ProtocolError is the exception delivered to an operation when the server
// sends back an error reply.
type ProtocolError struct {
	Code    uint16
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "protocol error"
}
