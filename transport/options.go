package transport

import (
	"time"

	"go.uber.org/zap"
)

type Options struct {
	// DialTimeout bounds how long a single connection attempt may take.
	// Zero selects DefaultDialTimeout.
	DialTimeout time.Duration

	// KeepAlive configures TCP keep-alive probes on established
	// connections. Zero leaves the stdlib default in place.
	KeepAlive time.Duration

	Log *zap.Logger
}
