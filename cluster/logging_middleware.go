package cluster

import (
	"time"

	"go.uber.org/zap"

	"kvnode/node"
)

// LoggingMiddleware logs every dispatch attempt with its outcome and
// latency.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next ExecFunc) ExecFunc {
		return func(op node.Operation) (bool, error) {
			start := time.Now()
			accepted, err := next(op)
			logger.Debug("operation dispatched",
				zap.Bool("accepted", accepted),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
			return accepted, err
		}
	}
}
