package cluster

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"kvnode/node"
)

// Cluster fans requests out across a set of node.Node pools, excluding any
// node currently HEALTH_CHECKING from selection. It has no notion of
// reconnection or cross-node retry: a rejected or failed dispatch is
// handed back to the caller to resubmit, exactly as node.Node.Execute
// does for a single pool.
type Cluster struct {
	balancer Balancer
	logger   *zap.Logger

	mu      sync.RWMutex
	entries map[*node.Node]*NodeEntry
	healthy map[*node.Node]bool

	middlewares []Middleware
	execute     ExecFunc
}

// New returns an empty Cluster using balancer for node selection.
func New(balancer Balancer, logger *zap.Logger) *Cluster {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cluster{
		balancer: balancer,
		logger:   logger,
		entries:  make(map[*node.Node]*NodeEntry),
		healthy:  make(map[*node.Node]bool),
	}
	c.rebuild()
	return c
}

// Use appends a middleware and rebuilds the dispatch chain. The chain does
// not depend on the node set, so Use may come before or after AddNode, but
// concurrent Use calls (or Use concurrent with Execute) require external
// synchronization.
func (c *Cluster) Use(mw Middleware) {
	c.mu.Lock()
	c.middlewares = append(c.middlewares, mw)
	c.mu.Unlock()
	c.rebuild()
}

// AddNode registers n with the given selection weight and starts tracking
// its health via a state listener; n must already be started.
func (c *Cluster) AddNode(n *node.Node, weight int) {
	c.mu.Lock()
	c.entries[n] = &NodeEntry{Node: n, Weight: weight}
	c.healthy[n] = n.GetNodeState() == node.Running
	c.mu.Unlock()

	listener := node.StateListenerFunc(func(n *node.Node, newState node.State) {
		c.mu.Lock()
		c.healthy[n] = newState == node.Running
		c.mu.Unlock()
	})
	n.AddStateListener(&listener)
}

// RemoveNode drops n from selection entirely.
func (c *Cluster) RemoveNode(n *node.Node) {
	c.mu.Lock()
	delete(c.entries, n)
	delete(c.healthy, n)
	c.mu.Unlock()
}

func (c *Cluster) rebuild() {
	c.mu.Lock()
	chain := Chain(c.middlewares...)
	c.mu.Unlock()
	c.execute = chain(c.dispatch)
}

// Execute picks a healthy node for op's routing key and runs it through
// the middleware chain, ultimately calling node.Node.Execute.
func (c *Cluster) Execute(op node.Operation, key string) (bool, error) {
	c.mu.RLock()
	exec := c.execute
	c.mu.RUnlock()
	return exec(withKey(op, key))
}

func (c *Cluster) dispatch(op node.Operation) (bool, error) {
	key := keyOf(op)

	c.mu.RLock()
	candidates := make([]*NodeEntry, 0, len(c.entries))
	for n, e := range c.entries {
		if c.healthy[n] {
			candidates = append(candidates, e)
		}
	}
	c.mu.RUnlock()

	// Map iteration order is random; sort so order-based balancers such as
	// round robin see the same sequence on every call.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].Node, candidates[j].Node
		if a.GetRemoteAddress() != b.GetRemoteAddress() {
			return a.GetRemoteAddress() < b.GetRemoteAddress()
		}
		return a.GetPort() < b.GetPort()
	})

	if len(candidates) == 0 {
		return false, fmt.Errorf("cluster: no healthy nodes available")
	}

	n, err := c.balancer.Pick(key, candidates)
	if err != nil {
		return false, err
	}
	return n.Execute(op)
}

// keyedOperation lets Cluster attach a routing key to an Operation without
// changing node.Operation's contract; the node subsystem never sees it.
type keyedOperation struct {
	node.Operation
	key string
}

func withKey(op node.Operation, key string) node.Operation {
	if key == "" {
		return op
	}
	return &keyedOperation{Operation: op, key: key}
}

func keyOf(op node.Operation) string {
	if k, ok := op.(*keyedOperation); ok {
		return k.key
	}
	return ""
}
