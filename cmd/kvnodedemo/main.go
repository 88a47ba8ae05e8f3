// Command kvnodedemo brings up an in-process key-value server and a
// node.Node pool talking to it, runs a handful of PUT/GET/DELETE
// operations end to end, and shuts everything down cleanly. It exists as
// a runnable demonstration of the wiring, not as a deployment target.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"kvnode/kvserver"
	"kvnode/node"
	"kvnode/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "kvnodedemo:", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "127.0.0.1:0", "address for the embedded key-value server to listen on")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	srv := kvserver.New(kvserver.NewMapStore(), logger.Named("kvserver"))
	if err := srv.Listen("tcp", *addr); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	go srv.Run()
	defer srv.Shutdown()

	host, port, err := splitHostPort(srv.Addr().String())
	if err != nil {
		return err
	}
	logger.Info("kvserver listening", zap.String("addr", srv.Addr().String()))

	n, err := node.NewBuilder().
		WithRemoteAddress(host).
		WithRemotePort(port).
		WithMinConnections(1).
		WithMaxConnections(8).
		WithLogger(logger.Named("node")).
		Build()
	if err != nil {
		return fmt.Errorf("build node: %w", err)
	}
	if err := n.Start(); err != nil {
		return fmt.Errorf("start node: %w", err)
	}

	if err := putGetDelete(n); err != nil {
		return err
	}

	handle, err := n.Shutdown()
	if err != nil {
		return fmt.Errorf("shutdown node: %w", err)
	}
	if !handle.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("node shutdown did not complete in time")
	}
	logger.Info("done")
	return nil
}

func putGetDelete(n *node.Node) error {
	put := node.NewFutureOperation(&wire.Message{Op: wire.OpPut, Key: []byte("greeting"), Value: []byte("hello")})
	if accepted, err := n.Execute(put); err != nil || !accepted {
		return fmt.Errorf("PUT not accepted: accepted=%v err=%w", accepted, err)
	}
	if _, err := put.Wait(); err != nil {
		return fmt.Errorf("PUT failed: %w", err)
	}

	get := node.NewFutureOperation(&wire.Message{Op: wire.OpGet, Key: []byte("greeting")})
	if accepted, err := n.Execute(get); err != nil || !accepted {
		return fmt.Errorf("GET not accepted: accepted=%v err=%w", accepted, err)
	}
	resp, err := get.Wait()
	if err != nil {
		return fmt.Errorf("GET failed: %w", err)
	}
	fmt.Printf("GET greeting => %s\n", resp.Value)

	del := node.NewFutureOperation(&wire.Message{Op: wire.OpDelete, Key: []byte("greeting")})
	if accepted, err := n.Execute(del); err != nil || !accepted {
		return fmt.Errorf("DELETE not accepted: accepted=%v err=%w", accepted, err)
	}
	if _, err := del.Wait(); err != nil {
		return fmt.Errorf("DELETE failed: %w", err)
	}
	return nil
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}
