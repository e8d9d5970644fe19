package protocol_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/rcontf/beta-serverless-api/protocol"
)

var _ = Describe("Reassembler", func() {
	stream := func(packets ...protocol.Packet) []byte {
		var b []byte
		for _, p := range packets {
			b = append(b, protocol.Encode(p)...)
		}
		return b
	}

	collect := func(r *protocol.Reassembler, chunks ...[]byte) []protocol.Packet {
		var got []protocol.Packet
		for _, chunk := range chunks {
			Expect(r.Feed(chunk, func(p protocol.Packet) {
				got = append(got, p)
			})).To(Succeed())
		}
		return got
	}

	packets := []protocol.Packet{
		{ID: 10, Type: protocol.PacketTypeResponseValue, Body: []byte("first fragment ")},
		{ID: 10, Type: protocol.PacketTypeResponseValue, Body: []byte("second fragment")},
		{ID: 11, Type: protocol.PacketTypeAuthResponse},
		{ID: 10, Type: protocol.PacketTypeResponseValue, Body: protocol.SentinelBody},
	}

	It("decodes a whole stream fed as one chunk", func() {
		got := collect(&protocol.Reassembler{}, stream(packets...))

		Expect(got).To(HaveLen(len(packets)))
		for i, p := range packets {
			Expect(got[i].ID).To(Equal(p.ID))
			Expect(got[i].Type).To(Equal(p.Type))
		}
	})

	It("produces the identical packet sequence for every split point", func() {
		whole := stream(packets...)
		want := collect(&protocol.Reassembler{}, whole)

		for split := 1; split < len(whole); split++ {
			got := collect(&protocol.Reassembler{}, whole[:split], whole[split:])
			Expect(got).To(Equal(want), "split at byte %d", split)
		}
	})

	It("produces the identical packet sequence when fed byte by byte", func() {
		whole := stream(packets...)
		want := collect(&protocol.Reassembler{}, whole)

		r := &protocol.Reassembler{}
		var got []protocol.Packet
		for _, b := range whole {
			Expect(r.Feed([]byte{b}, func(p protocol.Packet) {
				got = append(got, p)
			})).To(Succeed())
		}

		Expect(got).To(Equal(want))
		Expect(r.Pending()).To(BeZero())
	})

	It("carries incomplete trailing bytes between reads", func() {
		whole := stream(packets[0])

		r := &protocol.Reassembler{}
		Expect(collect(r, whole[:7])).To(BeEmpty())
		Expect(r.Pending()).To(Equal(7))

		got := collect(r, whole[7:])
		Expect(got).To(HaveLen(1))
		Expect(got[0].Body).To(Equal([]byte("first fragment ")))
		Expect(r.Pending()).To(BeZero())
	})

	It("does not let a reused chunk buffer corrupt carried-over bytes", func() {
		whole := stream(packets[1])
		buf := make([]byte, 8)

		r := &protocol.Reassembler{}
		copy(buf, whole[:8])
		Expect(collect(r, buf)).To(BeEmpty())

		// Clobber the read buffer the way a transport loop would.
		copy(buf, whole[8:16])
		got := collect(r, buf)

		if len(whole) > 16 {
			Expect(got).To(BeEmpty())
			got = collect(r, whole[16:])
		}

		Expect(got).To(HaveLen(1))
		Expect(got[0].Body).To(Equal([]byte("second fragment")))
	})

	It("surfaces malformed size prefixes", func() {
		r := &protocol.Reassembler{}
		err := r.Feed([]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00}, func(protocol.Packet) {
			Fail("no packet should be dispatched from a malformed stream")
		})
		Expect(err).To(MatchError(protocol.ErrPacketTooSmall))
	})
})
