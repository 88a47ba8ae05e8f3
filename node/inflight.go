package node

import (
	"sync"

	"kvnode/transport"
)

// inFlightMap is the concurrent connection→operation assignment table.
// Every reactor handler removes-and-tests atomically so the inherent race
// between "response received" and "peer closed" on the same connection
// resolves to exactly one winner; the loser finds nothing and is a no-op.
type inFlightMap struct {
	m sync.Map // *transport.Conn -> Operation
}

func (m *inFlightMap) put(c *transport.Conn, op Operation) {
	m.m.Store(c, op)
}

// get looks up the operation for c without removing it, used by
// onSuccess for streaming responses that may arrive more than once.
func (m *inFlightMap) get(c *transport.Conn) (Operation, bool) {
	v, ok := m.m.Load(c)
	if !ok {
		return nil, false
	}
	return v.(Operation), true
}

// remove atomically takes the operation for c out of the map, if present.
// This is the primitive every terminal handler uses so only the first
// event to observe a connection wins the race to finish its operation.
func (m *inFlightMap) remove(c *transport.Conn) (Operation, bool) {
	v, ok := m.m.LoadAndDelete(c)
	if !ok {
		return nil, false
	}
	return v.(Operation), true
}

func (m *inFlightMap) len() int {
	n := 0
	m.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
