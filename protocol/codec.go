package protocol

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrNeedMoreData indicates the buffer does not yet hold a complete
	// packet. The caller should keep the unconsumed bytes and retry once
	// more data arrives.
	ErrNeedMoreData = errors.New("rcon: need more data")

	// ErrPacketTooSmall indicates a size prefix smaller than the fixed
	// wrapper, which no well-formed packet can declare.
	ErrPacketTooSmall = errors.New("rcon: declared packet size too small")
)

// Encode serialises p into its wire form: a little-endian size prefix
// equal to len(body)+10, the id and type as little-endian signed 32bit
// integers, the raw body bytes, then the body's null terminator
// followed by the packet's trailing null.
func Encode(p Packet) []byte {
	size := int32(len(p.Body) + WrapperSize)

	buf := make([]byte, 0, 4+size)
	buf = appendInt32(buf, size)
	buf = appendInt32(buf, p.ID)
	buf = appendInt32(buf, p.Type)
	buf = append(buf, p.Body...)
	buf = append(buf, 0, 0)

	return buf
}

// DecodeOne slices one packet off the front of buf. It returns the
// packet and the remaining unconsumed bytes, or ErrNeedMoreData when
// buf does not yet hold a complete packet. A zero size prefix is
// treated as "no complete packet yet"; this also guards reads against
// an empty buffer.
func DecodeOne(buf []byte) (Packet, []byte, error) {
	if len(buf) < 4 {
		return Packet{}, buf, ErrNeedMoreData
	}

	size := int32(binary.LittleEndian.Uint32(buf[:4]))
	if size == 0 {
		return Packet{}, buf, ErrNeedMoreData
	}

	if size < WrapperSize {
		return Packet{}, buf, ErrPacketTooSmall
	}

	if int64(len(buf)) < 4+int64(size) {
		return Packet{}, buf, ErrNeedMoreData
	}

	p := Packet{
		ID:   int32(binary.LittleEndian.Uint32(buf[4:8])),
		Type: int32(binary.LittleEndian.Uint32(buf[8:12])),
	}

	// The body sits between the header and the two trailing nulls.
	// Copy it out so the packet does not alias the caller's buffer.
	if body := buf[12 : 4+size-2]; len(body) > 0 {
		p.Body = append([]byte(nil), body...)
	}

	return p, buf[4+size:], nil
}

func appendInt32(buf []byte, v int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return append(buf, b[:]...)
}
