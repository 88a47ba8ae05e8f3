package cluster

import (
	"fmt"
	"hash/crc32"
	"sort"

	"kvnode/node"
)

// ConsistentHashBalancer maps a routing key to the same node on every call
// (until the node set changes), giving cache affinity for stateful access
// patterns. Each node gets 100 virtual points on the ring so three or four
// real nodes still spread evenly.
type ConsistentHashBalancer struct {
	replicas int
}

// NewConsistentHashBalancer returns a balancer with 100 virtual nodes per
// real node.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{replicas: 100}
}

func (b *ConsistentHashBalancer) Pick(key string, nodes []*NodeEntry) (*node.Node, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("cluster: no nodes available")
	}

	ring := make([]uint32, 0, len(nodes)*b.replicas)
	byHash := make(map[uint32]*node.Node, len(nodes)*b.replicas)
	for _, e := range nodes {
		id := fmt.Sprintf("%s:%d", e.Node.GetRemoteAddress(), e.Node.GetPort())
		for i := 0; i < b.replicas; i++ {
			h := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%s#%d", id, i)))
			ring = append(ring, h)
			byHash[h] = e.Node
		}
	}
	sort.Slice(ring, func(i, j int) bool { return ring[i] < ring[j] })

	hash := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(ring), func(i int) bool { return ring[i] >= hash })
	if idx == len(ring) {
		idx = 0
	}
	return byHash[ring[idx]], nil
}

func (b *ConsistentHashBalancer) Name() string { return "ConsistentHash" }
