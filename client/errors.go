package client

import (
	"errors"
	"net"
	"syscall"
)

// Error kinds exposed by the client. Callers classify with errors.Is;
// the HTTP adapter maps each kind to a status code without inspecting
// error text. Anything not wrapped in one of these is unclassified and
// should be treated as an internal failure.
var (
	// ErrHostUnreachable wraps dial failures where the target refused or
	// reset the connection, or the host could not be resolved.
	ErrHostUnreachable = errors.New("rcon: host unreachable")

	// ErrAuthenticationRejected is returned when the server answers the
	// handshake with request id -1, the protocol's bad-password signal.
	ErrAuthenticationRejected = errors.New("rcon: authentication rejected")

	// ErrConnectionClosed rejects outstanding work when the transport
	// stream ends, whether by the peer or by an explicit Disconnect.
	ErrConnectionClosed = errors.New("rcon: connection closed")
)

// isUnreachable reports whether a dial error should be classified as
// ErrHostUnreachable: refused, reset, or an unresolvable host.
func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
