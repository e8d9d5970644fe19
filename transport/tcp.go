package transport

import (
	"context"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultDialTimeout caps connection attempts against servers that
// silently drop SYNs instead of refusing them.
const DefaultDialTimeout = 10 * time.Second

// Dialer opens TCP connections to game servers. The protocol client
// depends only on this open-by-host/port surface and the net.Conn it
// returns, so tests can substitute a dialer pointed at a local fake.
type Dialer struct {
	dialTimeout time.Duration
	keepAlive   time.Duration

	log *zap.Logger
}

func NewDialer(options Options) *Dialer {
	dialTimeout := options.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = DefaultDialTimeout
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Dialer{
		dialTimeout: dialTimeout,
		keepAlive:   options.KeepAlive,
		log:         log,
	}
}

// Dial opens a TCP connection to host:port. Errors are returned as the
// net package produced them; classification into protocol error kinds
// is the caller's concern.
func (d *Dialer) Dial(ctx context.Context, host string, port int) (net.Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	d.log.Debug("Dialing server", zap.String("addr", addr))

	nd := net.Dialer{
		Timeout:   d.dialTimeout,
		KeepAlive: d.keepAlive,
	}

	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		d.log.Debug("Dial failed", zap.String("addr", addr), zap.Error(err))
		return nil, err
	}

	return conn, nil
}
