package node

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Builder defaults.
const (
	DefaultRemoteAddress           = "127.0.0.1"
	DefaultRemotePort              = 8087
	DefaultMinConnections          = 1
	DefaultMaxConnections          = 0 // 0 means unbounded
	DefaultIdleTimeoutMillis       = 1000
	DefaultConnectionTimeoutMillis = 0 // 0 means infinite
)

// Builder constructs a Node using a fluent, chainable configuration API:
// every option has a sane default, and Build validates the combination
// before returning a CREATED node.
type Builder struct {
	remoteAddress           string
	remotePort              int
	minConnections          int
	maxConnections          int
	idleTimeoutMillis       int
	connectionTimeoutMillis int
	blockOnMaxConnections   bool
	logger                  *zap.Logger
}

// NewBuilder returns a Builder pre-populated with default settings.
func NewBuilder() *Builder {
	return &Builder{
		remoteAddress:           DefaultRemoteAddress,
		remotePort:              DefaultRemotePort,
		minConnections:          DefaultMinConnections,
		maxConnections:          DefaultMaxConnections,
		idleTimeoutMillis:       DefaultIdleTimeoutMillis,
		connectionTimeoutMillis: DefaultConnectionTimeoutMillis,
	}
}

func (b *Builder) WithRemoteAddress(addr string) *Builder {
	b.remoteAddress = addr
	return b
}

func (b *Builder) WithRemotePort(port int) *Builder {
	b.remotePort = port
	return b
}

func (b *Builder) WithMinConnections(n int) *Builder {
	b.minConnections = n
	return b
}

func (b *Builder) WithMaxConnections(n int) *Builder {
	b.maxConnections = n
	return b
}

func (b *Builder) WithIdleTimeoutMillis(ms int) *Builder {
	b.idleTimeoutMillis = ms
	return b
}

func (b *Builder) WithConnectionTimeoutMillis(ms int) *Builder {
	b.connectionTimeoutMillis = ms
	return b
}

func (b *Builder) WithBlockOnMaxConnections(block bool) *Builder {
	b.blockOnMaxConnections = block
	return b
}

// WithLogger supplies a base zap.Logger; the node adds its own
// remote_addr/remote_port fields on top. Defaults to zap.NewNop() if unset.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and returns a CREATED Node.
func (b *Builder) Build() (*Node, error) {
	if b.maxConnections > 0 && b.minConnections > b.maxConnections {
		return nil, fmt.Errorf("%w: min connections (%d) greater than max connections (%d)",
			ErrIllegalArgument, b.minConnections, b.maxConnections)
	}
	if b.minConnections < 0 {
		return nil, fmt.Errorf("%w: min connections must be >= 0", ErrIllegalArgument)
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("remote_addr", b.remoteAddress), zap.Int("remote_port", b.remotePort))

	n := &Node{
		remoteAddress:         b.remoteAddress,
		remotePort:            b.remotePort,
		minConnections:        b.minConnections,
		blockOnMaxConnections: b.blockOnMaxConnections,
		idleTimeout:           time.Duration(b.idleTimeoutMillis) * time.Millisecond,
		connectTimeout:        time.Duration(b.connectionTimeoutMillis) * time.Millisecond,
		state:                 Created,
		permits:               newPermitCounter(b.maxConnections),
		idle:                  newIdlePool(),
		recentClosed:          newRecentCloseLog(),
		inFlight:              &inFlightMap{},
		logger:                logger,
	}
	return n, nil
}
