// Package cluster composes multiple node.Node instances behind a single
// entry point: a Balancer picks which node serves a given operation, a
// middleware chain wraps that pick with cross-cutting concerns (logging,
// ingress rate limiting, timeouts), and a state-listener callback on every
// node keeps a live view of which nodes are healthy enough to receive
// traffic.
package cluster

import "kvnode/node"

// NodeEntry pairs a pool with the weight it carries for weighted
// selection strategies; weight is otherwise meaningless to the node
// subsystem itself.
type NodeEntry struct {
	Node   *node.Node
	Weight int
}

// Balancer selects one node to serve a request. key is the operation's
// routing key when one exists (used for cache-affinity strategies) and is
// ignored by strategies that don't need it.
type Balancer interface {
	Pick(key string, nodes []*NodeEntry) (*node.Node, error)
	Name() string
}
