package transport_test

import (
	"context"
	"net"
	"syscall"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/rcontf/beta-serverless-api/transport"
)

var _ = Describe("transport", func() {
	Describe("Dialer", func() {
		It("connects to a listening server", func() {
			listener, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).To(Succeed())
			defer listener.Close()

			port := listener.Addr().(*net.TCPAddr).Port

			d := transport.NewDialer(transport.Options{})
			conn, err := d.Dial(context.Background(), "127.0.0.1", port)
			Expect(err).To(Succeed())
			Expect(conn.Close()).To(Succeed())
		})

		It("surfaces a refused connection as the net package reports it", func() {
			// Grab a port that nothing is listening on.
			listener, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).To(Succeed())
			port := listener.Addr().(*net.TCPAddr).Port
			Expect(listener.Close()).To(Succeed())

			d := transport.NewDialer(transport.Options{
				DialTimeout: 2 * time.Second,
			})

			_, err = d.Dial(context.Background(), "127.0.0.1", port)
			Expect(err).To(MatchError(syscall.ECONNREFUSED))
		})

		It("honours context cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			d := transport.NewDialer(transport.Options{})
			_, err := d.Dial(ctx, "127.0.0.1", 1)
			Expect(err).To(HaveOccurred())
		})
	})
})
