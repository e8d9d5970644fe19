package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// InmemoryStore keeps the statistics document as a single JSON blob,
// read with gjson and modified with sjson. Counters live under one key
// per server:
//
//   {"10.0.0.1:27015": {"commands": 4, "errors": 1}}
type InmemoryStore struct {
	mu          sync.Mutex
	values      []byte
	updateChans []chan *Update

	// stop will be closed when Close() is called
	stop chan struct{}
}

func NewInmemoryStore() *InmemoryStore {
	return &InmemoryStore{
		values:      []byte(""),
		stop:        make(chan struct{}),
		updateChans: make([]chan *Update, 0),
	}
}

func (i *InmemoryStore) Close() error {
	if i.isRunning() {
		close(i.stop)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	for _, updateChan := range i.updateChans {
		close(updateChan)
	}
	i.updateChans = nil

	return nil
}

// RecordCommand increments the server's command counter, and its error
// counter when failed is true.
func (i *InmemoryStore) RecordCommand(ctx context.Context, server string, failed bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	path := escapePath(server)

	commands := gjson.GetBytes(i.values, path+".commands").Int()
	values, err := sjson.SetBytes(i.values, path+".commands", commands+1)
	if err != nil {
		return err
	}

	if failed {
		failures := gjson.GetBytes(values, path+".errors").Int()
		values, err = sjson.SetBytes(values, path+".errors", failures+1)
		if err != nil {
			return err
		}
	}

	i.values = values

	if i.isRunning() {
		value := []byte(gjson.GetBytes(i.values, path).Raw)

		for _, updateChan := range i.updateChans {
			updateChan <- &Update{
				Server: server,
				Value:  value,
			}
		}
	}

	return nil
}

// Stats returns the raw JSON object holding one server's counters, or
// nothing when the server has never been recorded.
func (i *InmemoryStore) Stats(ctx context.Context, server string) ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	result := gjson.GetBytes(i.values, escapePath(server))
	if !result.Exists() {
		return nil, nil
	}

	return []byte(result.Raw), nil
}

func (i *InmemoryStore) ListenToUpdates() <-chan *Update {
	i.mu.Lock()
	defer i.mu.Unlock()

	updateChan := make(chan *Update, 255)
	i.updateChans = append(i.updateChans, updateChan)

	return updateChan
}

func (i *InmemoryStore) Restore(values []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.values = values
	return nil
}

func (i *InmemoryStore) Backup() ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.values) == 0 {
		return []byte("{}"), nil
	}

	return i.values, nil
}

// isRunning returns true if Close has not been called
func (i *InmemoryStore) isRunning() bool {
	select {
	case <-i.stop:
		return false

	default:
		return true
	}
}

// escapePath escapes the dots in a host:port key so gjson/sjson treat
// it as one path element rather than nested objects.
func escapePath(server string) string {
	return strings.ReplaceAll(server, ".", `\.`)
}

var _ Store = (*InmemoryStore)(nil)
