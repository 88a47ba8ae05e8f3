package cluster

import (
	"fmt"

	"golang.org/x/time/rate"

	"kvnode/node"
)

// RateLimitMiddleware caps ingress throughput using a token bucket shared
// across every call through this chain.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next ExecFunc) ExecFunc {
		return func(op node.Operation) (bool, error) {
			if !limiter.Allow() {
				return false, fmt.Errorf("cluster: ingress rate limit exceeded")
			}
			return next(op)
		}
	}
}
