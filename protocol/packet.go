package protocol

import "bytes"

// Packet type values defined by the protocol. PacketTypeAuthResponse
// and PacketTypeExecCommand share a value; the direction of travel
// distinguishes them.
const (
	PacketTypeAuth          int32 = 3
	PacketTypeAuthResponse  int32 = 2
	PacketTypeExecCommand   int32 = 2
	PacketTypeResponseValue int32 = 0
)

// WrapperSize is the number of non-body bytes covered by a packet's
// size field: the id (4), the type (4), the body's null terminator and
// the packet's trailing null.
const WrapperSize = 8 + 2

// SentinelBody is the body the server echoes for the empty
// PacketTypeResponseValue packet a client mirrors after each command.
// Its arrival marks the end of a possibly multi-packet response.
var SentinelBody = []byte{0x00, 0x01, 0x00, 0x00}

// Packet is a single RCON frame, in either direction.
type Packet struct {
	// ID correlates responses with requests. The server echoes the id of
	// the request it is answering. Two values are reserved: 0 is used
	// for the authentication handshake and -1 signals a rejected
	// password.
	ID int32

	// Type is one of the PacketType values above.
	Type int32

	// Body carries the password, the command text, or a fragment of
	// command output. It may be empty.
	Body []byte
}

// IsSentinel reports whether the packet body is the end-of-response
// marker echoed by the server.
func (p Packet) IsSentinel() bool {
	return bytes.Equal(p.Body, SentinelBody)
}
