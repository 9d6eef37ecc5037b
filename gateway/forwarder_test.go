package gateway_test

import (
	"net"
	"strconv"
	"time"

	"github.com/chwellgo/netcore/gateway"
	"github.com/chwellgo/netcore/netconn"
	"github.com/chwellgo/netcore/wire"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// echoBackend listens on an ephemeral port and echoes every decoded frame
// back to whoever sent it, simulating a minimal logic-server backend.
func echoBackend() (addr string, stop func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())

	done := make(chan struct{})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				p := &wire.Parser{}
				buf := make([]byte, 4096)
				for {
					n, err := c.Read(buf)
					if err != nil {
						return
					}
					for _, f := range p.Feed(buf[:n]) {
						out, _ := wire.EncodeFrame(f)
						c.Write(out)
					}
				}
			}(conn)
		}
	}()
	go func() {
		<-done
		ln.Close()
	}()
	return ln.Addr().String(), func() { close(done) }
}

func clientPipe() *netconn.Connection {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	defer ln.Close()

	clientDone := make(chan net.Conn, 1)
	go func() {
		c, _ := net.Dial("tcp", ln.Addr().String())
		clientDone <- c
	}()
	server, err := ln.Accept()
	Expect(err).NotTo(HaveOccurred())
	<-clientDone
	return netconn.New(server)
}

var _ = Describe("Forwarder", func() {
	It("relays a frame to the backend and the reply back to the client", func() {
		addr, stopBackend := echoBackend()
		defer stopBackend()

		host, portStr, err := net.SplitHostPort(addr)
		Expect(err).NotTo(HaveOccurred())
		port, err := strconv.Atoi(portStr)
		Expect(err).NotTo(HaveOccurred())

		fwd := gateway.New(host, port)
		clientConn := clientPipe()

		received := make(chan []byte, 1)
		clientConn.OnMessage(func(_ *netconn.Connection, chunk []byte) {
			received <- chunk
		})
		go clientConn.Start()

		fwd.Forward(clientConn, wire.Frame{Cmd: 1, Body: []byte("ping")})
		Expect(fwd.HasBackend(clientConn)).To(BeTrue())

		Eventually(received, 2*time.Second).Should(Receive(Equal([]byte{0, 1, 0, 4, 'p', 'i', 'n', 'g'})))
	})

	It("tears down the backend when the client disconnects", func() {
		addr, stopBackend := echoBackend()
		defer stopBackend()

		host, portStr, _ := net.SplitHostPort(addr)
		port, _ := strconv.Atoi(portStr)

		fwd := gateway.New(host, port)
		clientConn := clientPipe()
		go clientConn.Start()

		fwd.Forward(clientConn, wire.Frame{Cmd: 1, Body: []byte("x")})
		Expect(fwd.HasBackend(clientConn)).To(BeTrue())

		fwd.OnDisconnect(clientConn)
		Expect(fwd.HasBackend(clientConn)).To(BeFalse())
	})
})
