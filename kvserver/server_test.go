package kvserver

import (
	"net"
	"testing"

	"kvnode/wire"
)

func startTestServer(t *testing.T) (*Server, func()) {
	t.Helper()
	srv := New(NewMapStore(), nil)
	if err := srv.Listen("tcp", "127.0.0.1:0"); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go srv.Run()
	return srv, func() { srv.Shutdown() }
}

func roundTrip(t *testing.T, addr string, req *wire.Message) *wire.Message {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := wire.WriteFrame(conn, req); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	resp, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	return resp
}

func TestServerPutThenGet(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()
	addr := srv.Addr().String()

	putResp := roundTrip(t, addr, &wire.Message{Op: wire.OpPut, Key: []byte("k"), Value: []byte("v")})
	if putResp.IsError() {
		t.Fatalf("PUT returned an error response: %s", putResp.Message)
	}

	getResp := roundTrip(t, addr, &wire.Message{Op: wire.OpGet, Key: []byte("k")})
	if getResp.IsError() {
		t.Fatalf("GET returned an error response: %s", getResp.Message)
	}
	if string(getResp.Value) != "v" {
		t.Fatalf("GET value = %q, want %q", getResp.Value, "v")
	}
}

func TestServerGetMissingKeyIsError(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	resp := roundTrip(t, srv.Addr().String(), &wire.Message{Op: wire.OpGet, Key: []byte("missing")})
	if !resp.IsError() {
		t.Fatal("GET on a missing key should return an error response")
	}
}

func TestServerDeleteRemovesKey(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()
	addr := srv.Addr().String()

	roundTrip(t, addr, &wire.Message{Op: wire.OpPut, Key: []byte("k"), Value: []byte("v")})

	delResp := roundTrip(t, addr, &wire.Message{Op: wire.OpDelete, Key: []byte("k")})
	if delResp.IsError() {
		t.Fatalf("DELETE returned an error response: %s", delResp.Message)
	}

	getResp := roundTrip(t, addr, &wire.Message{Op: wire.OpGet, Key: []byte("k")})
	if !getResp.IsError() {
		t.Fatal("GET after DELETE should return an error response")
	}
}

func TestServerPing(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()

	resp := roundTrip(t, srv.Addr().String(), &wire.Message{Op: wire.OpPing})
	if resp.IsError() || resp.Op != wire.OpPing {
		t.Fatalf("PING response = %+v, want a plain OpPing echo", resp)
	}
}

func TestServerParallelRequestsOnOneConnection(t *testing.T) {
	srv, stop := startTestServer(t)
	defer stop()
	addr := srv.Addr().String()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	const n = 20
	for i := 0; i < n; i++ {
		key := []byte{byte(i)}
		if err := wire.WriteFrame(conn, &wire.Message{Op: wire.OpPut, Key: key, Value: key}); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	for i := 0; i < n; i++ {
		if _, err := wire.ReadFrame(conn); err != nil {
			t.Fatalf("ReadFrame %d: %v", i, err)
		}
	}
}
