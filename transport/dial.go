package transport

import (
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// Dialer opens new connections to a single fixed endpoint. It is the Go
// analogue of the Netty Bootstrap the original design cloned per node.
type Dialer struct {
	Network string
	Address string
	// Timeout is the TCP connect timeout. Zero means no deadline (net.Dial
	// rather than net.DialTimeout).
	Timeout time.Duration
	// Logger receives dial failures and per-connection read-loop
	// termination events. A nil Logger is treated as a no-op logger.
	Logger *zap.Logger
}

// NewDialer builds a Dialer for the given endpoint.
func NewDialer(network, address string, timeout time.Duration) *Dialer {
	return &Dialer{Network: network, Address: address, Timeout: timeout}
}

// Dial synchronously establishes a new connection and wires it to listener.
// The dispatcher blocks on this call; there is no async connect path.
func (d *Dialer) Dial(listener ResponseListener) (*Conn, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var raw net.Conn
	var err error
	if d.Timeout > 0 {
		raw, err = net.DialTimeout(d.Network, d.Address, d.Timeout)
	} else {
		raw, err = net.Dial(d.Network, d.Address)
	}
	if err != nil {
		logger.Debug("dial failed", zap.String("address", d.Address), zap.Error(err))
		return nil, fmt.Errorf("transport: dial %s: %w", d.Address, err)
	}
	return newConn(raw, listener, logger), nil
}
