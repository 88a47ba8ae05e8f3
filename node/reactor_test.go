package node

import (
	"fmt"
	"testing"
	"time"

	"kvnode/wire"
)

// TestReturnConnectionAfterClose exercises redesign flag (b): the
// write-failure path in onWriteComplete closes the channel and then calls
// returnConnection, which must notice the channel is already closed, skip
// re-offering it to the idle pool, and still release the permit exactly
// once. A duplicate onWriteComplete callback for the same connection (the
// in-flight entry already removed) must be a no-op, not a second release.
func TestReturnConnectionAfterClose(t *testing.T) {
	srv := newTestServer(t)
	defer srv.stop()
	host, port := splitHostPort(srv.addr())

	n := mustBuild(t, testBuilder(host, port).WithMaxConnections(2))
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer n.Shutdown()

	c, err := n.getConnection()
	if err != nil {
		t.Fatalf("getConnection: %v", err)
	}
	op := NewFutureOperation(&wire.Message{Op: wire.OpPing})
	n.inFlight.put(c, op)

	n.onWriteComplete(c, op, fmt.Errorf("simulated write failure"))

	if _, opErr := waitFuture(t, op, time.Second); opErr == nil {
		t.Fatal("expected the operation to fail after a write error")
	}
	if _, ok := n.inFlight.get(c); ok {
		t.Fatal("in-flight entry should have been removed on write failure")
	}
	if c.IsOpen() {
		t.Fatal("connection should be closed after a write failure")
	}

	avail, err := n.AvailablePermits()
	if err != nil {
		t.Fatalf("AvailablePermits: %v", err)
	}
	if avail != 2 {
		t.Fatalf("available permits after write failure = %d, want 2 (permit released exactly once)", avail)
	}

	// A second, duplicate callback for the same connection must find no
	// in-flight entry left and release nothing further.
	n.onWriteComplete(c, op, fmt.Errorf("duplicate callback"))
	avail, err = n.AvailablePermits()
	if err != nil {
		t.Fatalf("AvailablePermits: %v", err)
	}
	if avail != 2 {
		t.Fatalf("available permits after duplicate write-failure callback = %d, want 2 (no double release)", avail)
	}
}
