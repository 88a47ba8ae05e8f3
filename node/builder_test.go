package node

import "testing"

func TestBuilderDefaults(t *testing.T) {
	n, err := NewBuilder().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n.GetRemoteAddress() != DefaultRemoteAddress {
		t.Fatalf("remote address = %q, want %q", n.GetRemoteAddress(), DefaultRemoteAddress)
	}
	if n.GetPort() != DefaultRemotePort {
		t.Fatalf("port = %d, want %d", n.GetPort(), DefaultRemotePort)
	}
	if n.GetNodeState() != Created {
		t.Fatalf("state = %s, want CREATED", n.GetNodeState())
	}
	max, err := n.GetMaxConnections()
	if err != nil || max != 0 {
		t.Fatalf("max connections = %d, err %v, want 0 (unbounded)", max, err)
	}
}

func TestBuilderRejectsMinGreaterThanMax(t *testing.T) {
	_, err := NewBuilder().WithMinConnections(5).WithMaxConnections(2).Build()
	if err == nil {
		t.Fatal("Build should reject min > max")
	}
}

func TestBuilderRejectsNegativeMin(t *testing.T) {
	_, err := NewBuilder().WithMinConnections(-1).Build()
	if err == nil {
		t.Fatal("Build should reject a negative min")
	}
}

func TestConfigSetMaxConnectionsRejectsBelowMin(t *testing.T) {
	n, err := NewBuilder().WithMinConnections(3).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := n.SetMaxConnections(2); err == nil {
		t.Fatal("SetMaxConnections should reject a cap below the current min")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	n, err := NewBuilder().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := n.SetIdleTimeout(250); err != nil {
		t.Fatalf("SetIdleTimeout: %v", err)
	}
	got, err := n.GetIdleTimeout()
	if err != nil || got != 250 {
		t.Fatalf("GetIdleTimeout = %d, err %v, want 250", got, err)
	}

	n.SetBlockOnMaxConnections(true)
	if !n.GetBlockOnMaxConnections() {
		t.Fatal("GetBlockOnMaxConnections should reflect the value just set")
	}
}
