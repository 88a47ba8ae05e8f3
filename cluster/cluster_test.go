package cluster

import (
	"net"
	"strconv"
	"testing"

	"kvnode/kvserver"
	"kvnode/node"
	"kvnode/wire"
)

func startNode(t *testing.T) (*node.Node, *kvserver.Server) {
	t.Helper()
	srv := kvserver.New(kvserver.NewMapStore(), nil)
	if err := srv.Listen("tcp", "127.0.0.1:0"); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go srv.Run()

	host, portStr, _ := net.SplitHostPort(srv.Addr().String())
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	n, err := node.NewBuilder().
		WithRemoteAddress(host).
		WithRemotePort(port).
		WithMinConnections(0).
		WithMaxConnections(4).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return n, srv
}

func TestClusterRoundRobinDistributesAcrossNodes(t *testing.T) {
	n1, s1 := startNode(t)
	n2, s2 := startNode(t)
	defer func() { n1.Shutdown(); n2.Shutdown(); s1.Shutdown(); s2.Shutdown() }()

	c := New(&RoundRobinBalancer{}, nil)
	c.AddNode(n1, 1)
	c.AddNode(n2, 1)

	seen := map[*node.Node]bool{}
	for i := 0; i < 4; i++ {
		op := node.NewFutureOperation(&wire.Message{Op: wire.OpPing})
		accepted, err := c.Execute(op, "")
		if err != nil || !accepted {
			t.Fatalf("Execute %d: accepted=%v err=%v", i, accepted, err)
		}
		seen[op.LastNode()] = true
	}
	if len(seen) != 2 {
		t.Fatalf("round robin should have used both nodes, used %d", len(seen))
	}
}

func TestClusterExcludesUnhealthyNode(t *testing.T) {
	n1, s1 := startNode(t)
	defer func() { n1.Shutdown(); s1.Shutdown() }()

	c := New(&RoundRobinBalancer{}, nil)
	c.AddNode(n1, 1)

	c.mu.Lock()
	c.healthy[n1] = false
	c.mu.Unlock()

	op := node.NewFutureOperation(&wire.Message{Op: wire.OpPing})
	accepted, err := c.Execute(op, "")
	if err == nil {
		t.Fatal("Execute should fail when the only node is marked unhealthy")
	}
	if accepted {
		t.Fatal("unhealthy dispatch should not be accepted")
	}
}

func TestClusterConsistentHashSameKeySameNode(t *testing.T) {
	n1, s1 := startNode(t)
	n2, s2 := startNode(t)
	defer func() { n1.Shutdown(); n2.Shutdown(); s1.Shutdown(); s2.Shutdown() }()

	c := New(NewConsistentHashBalancer(), nil)
	c.AddNode(n1, 1)
	c.AddNode(n2, 1)

	var first *node.Node
	for i := 0; i < 5; i++ {
		op := node.NewFutureOperation(&wire.Message{Op: wire.OpPing})
		if _, err := c.Execute(op, "user-123"); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if first == nil {
			first = op.LastNode()
		} else if op.LastNode() != first {
			t.Fatal("same key should consistently route to the same node")
		}
	}
}

func TestClusterRateLimitMiddleware(t *testing.T) {
	n1, s1 := startNode(t)
	defer func() { n1.Shutdown(); s1.Shutdown() }()

	c := New(&RoundRobinBalancer{}, nil)
	c.AddNode(n1, 1)
	c.Use(RateLimitMiddleware(1, 1))

	op1 := node.NewFutureOperation(&wire.Message{Op: wire.OpPing})
	if accepted, err := c.Execute(op1, ""); err != nil || !accepted {
		t.Fatalf("first request should pass: accepted=%v err=%v", accepted, err)
	}

	op2 := node.NewFutureOperation(&wire.Message{Op: wire.OpPing})
	if _, err := c.Execute(op2, ""); err == nil {
		t.Fatal("second immediate request should be rate limited")
	}
}
