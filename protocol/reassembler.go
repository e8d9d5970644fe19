package protocol

import "errors"

// Reassembler reconstructs discrete packets from an arbitrarily chunked
// byte stream. Bytes that do not yet form a complete packet are carried
// over to the next Feed call, so the same stream produces the same
// packet sequence no matter where the transport split it.
//
// A Reassembler is not safe for concurrent use; a connection owns
// exactly one and feeds it from a single read loop.
type Reassembler struct {
	carry []byte
}

// Feed consumes one raw chunk from the transport and invokes dispatch
// for every complete packet it uncovers, in arrival order. Whatever
// remains undecoded is retained for the next call.
func (r *Reassembler) Feed(chunk []byte, dispatch func(Packet)) error {
	buf := chunk
	if len(r.carry) > 0 {
		buf = append(r.carry, chunk...)
	}

	for {
		p, rest, err := DecodeOne(buf)
		if errors.Is(err, ErrNeedMoreData) {
			// The chunk belongs to the transport's read buffer, so the
			// carry-over must be an independent copy.
			r.carry = append([]byte(nil), buf...)
			return nil
		}

		if err != nil {
			return err
		}

		buf = rest
		dispatch(p)
	}
}

// Pending returns the number of carried-over bytes awaiting more data.
func (r *Reassembler) Pending() int {
	return len(r.carry)
}
