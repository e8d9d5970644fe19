package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/rcontf/beta-serverless-api/protocol"
	"github.com/rcontf/beta-serverless-api/transport"
)

type Options struct {
	// Dialer opens the underlying transport. Nil selects a default TCP
	// dialer.
	Dialer *transport.Dialer

	Log *zap.Logger
}

// Client manages a single authenticated connection to one game server.
// The transport opens lazily on the first command and is reused for
// every command after that. Clients are safe for concurrent use;
// commands issued concurrently are multiplexed over the one connection
// by request id.
type Client struct {
	host     string
	port     int
	password string

	dialer *transport.Dialer
	log    *zap.Logger

	mu      sync.Mutex
	conn    net.Conn
	auth    *authSlot
	pending map[int32]*pendingRequest
}

// pendingRequest is an outstanding command awaiting its sentinel
// fragment. body accumulates response fragments in arrival order; done
// is buffered so the read loop never blocks on a caller that gave up.
type pendingRequest struct {
	body []byte
	done chan commandResult
}

type commandResult struct {
	body string
	err  error
}

// authSlot is the one-shot completion slot for the handshake. There is
// a single slot per connection, not one per request.
type authSlot struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newAuthSlot() *authSlot {
	return &authSlot{done: make(chan struct{})}
}

func (a *authSlot) complete(err error) {
	a.once.Do(func() {
		a.err = err
		close(a.done)
	})
}

func (a *authSlot) wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.err

	case <-ctx.Done():
		return ctx.Err()
	}
}

func New(host string, port int, password string, options Options) *Client {
	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	dialer := options.Dialer
	if dialer == nil {
		dialer = transport.NewDialer(transport.Options{Log: log.Named("transport")})
	}

	return &Client{
		host:     host,
		port:     port,
		password: password,
		dialer:   dialer,
		log:      log,
		pending:  make(map[int32]*pendingRequest),
	}
}

// Connect opens the transport and completes the authentication
// handshake. It is idempotent: when a connection is already open, the
// call waits on the outcome of the handshake already in flight instead
// of opening a second connection.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		auth := c.auth
		c.mu.Unlock()
		return auth.wait(ctx)
	}

	conn, err := c.dialer.Dial(ctx, c.host, c.port)
	if err != nil {
		c.mu.Unlock()

		if isUnreachable(err) {
			return fmt.Errorf("%v: %w", err, ErrHostUnreachable)
		}

		c.log.Error("Failed to open transport", zap.Error(err))
		return err
	}

	auth := newAuthSlot()
	c.conn = conn
	c.auth = auth
	c.mu.Unlock()

	go c.readLoop(conn)

	// Auth success echoes id 0, so the handshake request carries id 0.
	frame := protocol.Encode(protocol.Packet{
		ID:   0,
		Type: protocol.PacketTypeAuth,
		Body: []byte(c.password),
	})

	if _, err := conn.Write(frame); err != nil {
		werr := fmt.Errorf("failed to send auth request: %w", err)
		auth.complete(werr)
		c.teardown(conn, werr)
		return werr
	}

	return auth.wait(ctx)
}

// SendCmd executes cmd on the server and returns its full output,
// reassembled across however many response packets the server used.
// Cancelling ctx abandons the wait but leaves the request outstanding
// until its sentinel arrives or the connection closes.
func (c *Client) SendCmd(ctx context.Context, cmd string) (string, error) {
	if err := c.Connect(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return "", fmt.Errorf("connection closed before command could be sent: %w", ErrConnectionClosed)
	}

	id := c.nextRequestID()
	entry := &pendingRequest{done: make(chan commandResult, 1)}
	c.pending[id] = entry
	c.mu.Unlock()

	// The command frame is chased by an empty response-value frame with
	// the same id. The server echoes it with the sentinel body after the
	// last output fragment, marking the end of the response.
	frame := protocol.Encode(protocol.Packet{
		ID:   id,
		Type: protocol.PacketTypeExecCommand,
		Body: []byte(cmd),
	})
	frame = append(frame, protocol.Encode(protocol.Packet{
		ID:   id,
		Type: protocol.PacketTypeResponseValue,
	})...)

	if _, err := conn.Write(frame); err != nil {
		// A failed write abandons this request only; the connection and
		// any other outstanding requests are left alone.
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()

		c.log.Warn("Failed to write command", zap.Error(err))
		return "", err
	}

	select {
	case res := <-entry.done:
		return res.body, res.err

	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Disconnect closes the transport unconditionally and rejects every
// outstanding request. It does not wait for the read loop to observe
// the closure.
func (c *Client) Disconnect() error {
	conn := c.clearState(fmt.Errorf("read EOF: %w", ErrConnectionClosed))
	if conn == nil {
		return nil
	}

	return conn.Close()
}

func (c *Client) readLoop(conn net.Conn) {
	log := c.log.Named("readLoop")

	var rsm protocol.Reassembler
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if ferr := rsm.Feed(buf[:n], c.dispatch); ferr != nil {
				log.Warn("Undecodable byte stream, dropping connection", zap.Error(ferr))
				err = ferr
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug("Read loop terminating", zap.Error(err))
			}

			c.teardown(conn, fmt.Errorf("connection closed unexpectedly: %w", ErrConnectionClosed))
			conn.Close()
			return
		}
	}
}

// dispatch routes one decoded packet to the authentication slot or a
// pending command entry.
func (c *Client) dispatch(pkt protocol.Packet) {
	// id -1 is the bad-password signal, regardless of packet type.
	if pkt.ID == -1 {
		c.mu.Lock()
		auth := c.auth
		c.mu.Unlock()

		if auth != nil {
			auth.complete(ErrAuthenticationRejected)
		}
		return
	}

	if pkt.ID == 0 && pkt.Type == protocol.PacketTypeAuthResponse {
		c.mu.Lock()
		auth := c.auth
		c.mu.Unlock()

		if auth != nil {
			auth.complete(nil)
		}
		return
	}

	if pkt.Type != protocol.PacketTypeResponseValue {
		return
	}

	c.mu.Lock()
	entry, ok := c.pending[pkt.ID]
	if !ok {
		// Unknown ids are dropped; the request may have failed its write
		// or this could be a stray packet from a previous connection.
		c.mu.Unlock()
		return
	}

	if !pkt.IsSentinel() {
		entry.body = append(entry.body, pkt.Body...)
		c.mu.Unlock()
		return
	}

	delete(c.pending, pkt.ID)
	c.mu.Unlock()

	entry.done <- commandResult{body: string(entry.body)}
}

// teardown rejects all outstanding work if conn is still the current
// transport. A conn superseded by Disconnect or a reconnect touches
// nothing: its state has already been handed over.
func (c *Client) teardown(conn net.Conn, reason error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	auth, pending := c.detachLocked()
	c.mu.Unlock()

	reject(auth, pending, reason)
}

// clearState detaches the current transport and rejects all
// outstanding work with reason. It returns the detached conn for the
// caller to close.
func (c *Client) clearState(reason error) net.Conn {
	c.mu.Lock()
	conn := c.conn
	auth, pending := c.detachLocked()
	c.mu.Unlock()

	reject(auth, pending, reason)
	return conn
}

func (c *Client) detachLocked() (*authSlot, map[int32]*pendingRequest) {
	auth := c.auth
	pending := c.pending
	c.conn = nil
	c.auth = nil
	c.pending = make(map[int32]*pendingRequest)
	return auth, pending
}

func reject(auth *authSlot, pending map[int32]*pendingRequest, reason error) {
	if auth != nil {
		auth.complete(reason)
	}

	for _, entry := range pending {
		entry.done <- commandResult{err: reason}
	}
}

// nextRequestID draws a random id for a new command, re-rolling while
// it collides with an outstanding request. Int31 never produces a
// negative value, and 0 is skipped because it is the handshake id.
// Caller holds mu.
func (c *Client) nextRequestID() int32 {
	for {
		id := rand.Int31()
		if id == 0 {
			continue
		}

		if _, taken := c.pending[id]; taken {
			continue
		}

		return id
	}
}
