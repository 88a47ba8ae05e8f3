package node

import "errors"

// Error kinds returned by the node subsystem. Connection, write and
// unexpected-close failures are wrapped with these sentinels so callers can
// errors.Is against them. IllegalState/IllegalArgument are wrapped the same
// way with detail and returned to the caller, since they are programmer
// errors raised at the call site, never stored on an operation.
var (
	// ErrConnectionFailed is returned by getConnection (and surfaces as a
	// false return from Execute) when a TCP connect times out, is refused,
	// or is interrupted.
	ErrConnectionFailed = errors.New("kvnode: connection failed")

	// ErrWriteFailed is set on an operation when the transport reports a
	// failed write.
	ErrWriteFailed = errors.New("kvnode: write failed")

	// ErrUnexpectedClose is set on an operation whose connection closed
	// while it was in flight. The underlying read error, if any, is
	// wrapped alongside it.
	ErrUnexpectedClose = errors.New("kvnode: connection closed unexpectedly")

	// ErrIllegalState is returned when a public operation is invoked in a
	// node state that disallows it.
	ErrIllegalState = errors.New("kvnode: illegal state")

	// ErrIllegalArgument is returned for invalid configuration, e.g.
	// min > max, or re-setting an already-set resource.
	ErrIllegalArgument = errors.New("kvnode: illegal argument")
)
