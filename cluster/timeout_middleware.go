package cluster

import (
	"fmt"
	"time"

	"kvnode/node"
)

// TimeoutMiddleware bounds how long a single dispatch attempt (balancer
// pick plus node.Execute, not the operation's eventual response) may take.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next ExecFunc) ExecFunc {
		return func(op node.Operation) (bool, error) {
			type result struct {
				accepted bool
				err      error
			}
			done := make(chan result, 1)
			go func() {
				accepted, err := next(op)
				done <- result{accepted, err}
			}()

			select {
			case r := <-done:
				return r.accepted, r.err
			case <-time.After(timeout):
				return false, fmt.Errorf("cluster: dispatch timed out after %s", timeout)
			}
		}
	}
}
