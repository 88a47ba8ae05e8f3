package cluster

import (
	"fmt"
	"sync/atomic"

	"kvnode/node"
)

// RoundRobinBalancer distributes requests evenly across all healthy nodes
// in order. The atomic counter gives lock-free, goroutine-safe cycling.
type RoundRobinBalancer struct {
	counter int64
}

func (b *RoundRobinBalancer) Pick(_ string, nodes []*NodeEntry) (*node.Node, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("cluster: no nodes available")
	}
	index := atomic.AddInt64(&b.counter, 1) % int64(len(nodes))
	return nodes[index].Node, nil
}

func (b *RoundRobinBalancer) Name() string { return "RoundRobin" }
