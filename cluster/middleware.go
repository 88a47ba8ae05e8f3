package cluster

import "kvnode/node"

// ExecFunc dispatches op to some node and reports whether it was accepted,
// mirroring node.Node.Execute's own signature so middleware can wrap it
// transparently.
type ExecFunc func(op node.Operation) (bool, error)

// Middleware wraps an ExecFunc with cross-cutting behavior.
type Middleware func(next ExecFunc) ExecFunc

// Chain composes middlewares into one, applied outermost-first:
// Chain(A, B, C)(handler) runs A, then B, then C, then handler.
func Chain(middlewares ...Middleware) Middleware {
	return func(next ExecFunc) ExecFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
