// Package transport is the I/O layer: it owns raw
// TCP connections and delivers the three reactor callbacks (message
// received, protocol-level error reply, transport exception) plus a
// once-only close notification to whatever ResponseListener is registered
// for a connection — the Go analogue of a Netty channel pipeline built
// around a single ChannelInboundHandler.
//
// Adapted from the teacher's transport.ClientTransport read loop: instead
// of multiplexing many in-flight requests over one connection via a
// sequence-number map, each Conn carries at most one in-flight operation at
// a time.
package transport

import (
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"kvnode/wire"
)

// ResponseListener is implemented by the node and invoked by a Conn's read
// loop.
type ResponseListener interface {
	OnSuccess(c *Conn, msg *wire.Message)
	OnRiakErrorResponse(c *Conn, msg *wire.Message)
	OnException(c *Conn, err error)
}

var connSeq uint64

// Conn wraps a net.Conn with a dedicated read loop and a single swappable
// close listener, standing in for Netty's Channel + ChannelFuture.
type Conn struct {
	id       uint64
	raw      net.Conn
	listener ResponseListener
	logger   *zap.Logger

	mu            sync.Mutex
	closeListener func(error)
	closed        bool
	closeOnce     sync.Once

	writeMu sync.Mutex // serializes concurrent WriteAsync calls on the same conn
}

// newConn wraps raw and starts its read loop. The read loop runs until the
// connection is closed or a frame fails to decode. A nil logger is
// replaced with a no-op logger.
func newConn(raw net.Conn, listener ResponseListener, logger *zap.Logger) *Conn {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Conn{
		id:       atomic.AddUint64(&connSeq, 1),
		raw:      raw,
		listener: listener,
		logger:   logger,
	}
	go c.readLoop()
	return c
}

// ID returns an identifier stable for the lifetime of the connection,
// useful for log correlation; it carries no other meaning.
func (c *Conn) ID() uint64 { return c.id }

func (c *Conn) readLoop() {
	for {
		msg, err := wire.ReadFrame(c.raw)
		if err != nil {
			c.logger.Debug("read loop terminated", zap.Uint64("conn", c.id), zap.Error(err))
			// notifyClosed runs first so the close listener installed for
			// this connection (in-progress or idle) sees it before
			// OnException does; OnException only finds work left to do in
			// the narrow window before a write completes, when no close
			// listener has been installed yet but the operation is
			// already in the in-flight map.
			c.notifyClosed(err)
			c.listener.OnException(c, err)
			return
		}

		if msg.IsError() {
			c.listener.OnRiakErrorResponse(c, msg)
		} else {
			c.listener.OnSuccess(c, msg)
		}
	}
}

// WriteAsync writes msg on a background goroutine and invokes done with the
// result once the write completes (or fails). This mirrors a Netty
// writeAndFlush + ChannelFutureListener: the caller is not blocked waiting
// for the bytes to hit the wire.
func (c *Conn) WriteAsync(msg *wire.Message, done func(error)) {
	go func() {
		c.writeMu.Lock()
		err := wire.WriteFrame(c.raw, msg)
		c.writeMu.Unlock()
		done(err)
	}()
}

// SetCloseListener replaces the callback invoked the moment this
// connection is observed closed. Passing nil detaches any listener,
// mirroring closeConnection's "remove both close listeners before closing"
// so an explicit close does not pollute the recent-close log.
func (c *Conn) SetCloseListener(fn func(error)) {
	c.mu.Lock()
	c.closeListener = fn
	c.mu.Unlock()
}

// IsOpen reports whether the connection has not yet been observed closed.
func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Close closes the underlying socket. If a close listener is attached it
// fires with a nil cause (an explicit, intentional close), unless the read
// loop races it and reports the real cause first.
func (c *Conn) Close() error {
	err := c.raw.Close()
	c.notifyClosed(nil)
	return err
}

func (c *Conn) notifyClosed(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		l := c.closeListener
		c.mu.Unlock()
		if l != nil {
			l(err)
		}
	})
}
