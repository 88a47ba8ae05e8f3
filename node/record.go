package node

import (
	"time"

	"kvnode/transport"
)

// connRecord pairs a live connection with the monotonic instant it entered
// the idle pool. The timestamp is set once at construction and never
// updated while idle.
type connRecord struct {
	conn  *transport.Conn
	since time.Time
}

func newConnRecord(c *transport.Conn) connRecord {
	return connRecord{conn: c, since: time.Now()}
}
