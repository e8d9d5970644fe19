package storage

import "context"

// Store tracks per-server command execution statistics. Servers are
// keyed by "host:port".
type Store interface {
	RecordCommand(ctx context.Context, server string, failed bool) error
	Stats(ctx context.Context, server string) ([]byte, error)

	Restore(values []byte) error
	Backup() ([]byte, error)

	ListenToUpdates() <-chan *Update

	Close() error
}

// Update notifies listeners that one server's counters changed.
type Update struct {
	Server string
	Value  []byte
}
