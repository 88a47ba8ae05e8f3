package cluster

import (
	"fmt"
	"math/rand"

	"kvnode/node"
)

// WeightedRandomBalancer picks a node with probability proportional to its
// weight, for heterogeneous nodes with different capacities.
type WeightedRandomBalancer struct{}

func (b *WeightedRandomBalancer) Pick(_ string, nodes []*NodeEntry) (*node.Node, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("cluster: no nodes available")
	}

	total := 0
	for _, e := range nodes {
		total += weightOrOne(e.Weight)
	}

	r := rand.Intn(total)
	for _, e := range nodes {
		r -= weightOrOne(e.Weight)
		if r < 0 {
			return e.Node, nil
		}
	}
	return nodes[len(nodes)-1].Node, nil
}

func (b *WeightedRandomBalancer) Name() string { return "WeightedRandom" }

func weightOrOne(w int) int {
	if w <= 0 {
		return 1
	}
	return w
}
