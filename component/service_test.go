package component_test

import (
	"net"
	"sync"
	"time"

	"github.com/chwellgo/netcore/component"
	"github.com/chwellgo/netcore/netconn"
	"github.com/chwellgo/netcore/wire"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// recordingComponent counts the events it's fanned and remembers the order
// its OnRegister was called in, for asserting registration-order dispatch.
type recordingComponent struct {
	name string
	log  *[]string

	mu          sync.Mutex
	messages    int
	disconnects int
}

func (c *recordingComponent) Name() string { return c.name }

func (c *recordingComponent) OnRegister(*component.Service) {
	*c.log = append(*c.log, c.name)
}

func (c *recordingComponent) OnMessage(*netconn.Connection, []byte) {
	c.mu.Lock()
	c.messages++
	c.mu.Unlock()
}

func (c *recordingComponent) OnDisconnect(*netconn.Connection) {
	c.mu.Lock()
	c.disconnects++
	c.mu.Unlock()
}

func (c *recordingComponent) count() (messages, disconnects int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages, c.disconnects
}

var _ = Describe("Service", func() {
	It("registers components in order and fans out OnRegister", func() {
		svc := component.New(0, 1)
		var order []string

		a := component.AddComponent[*recordingComponent](svc, &recordingComponent{name: "a", log: &order})
		b := component.AddComponent[*recordingComponent](svc, &recordingComponent{name: "b", log: &order})

		Expect(order).To(Equal([]string{"a", "b"}))
		Expect(a.Name()).To(Equal("a"))
		Expect(b.Name()).To(Equal("b"))
	})

	It("GetComponent finds a registered component by type, and reports false when absent", func() {
		svc := component.New(0, 1)
		var order []string
		component.AddComponent[*recordingComponent](svc, &recordingComponent{name: "only", log: &order})

		found, ok := component.GetComponent[*recordingComponent](svc)
		Expect(ok).To(BeTrue())
		Expect(found.Name()).To(Equal("only"))

		_, ok = component.GetComponent[*recordingComponent](component.New(0, 1))
		Expect(ok).To(BeFalse())
	})

	It("dispatches accepted connections' messages and disconnects to every component", func() {
		svc := component.New(0, 2)
		var order []string
		rc := component.AddComponent[*recordingComponent](svc, &recordingComponent{name: "rc", log: &order})

		Expect(svc.Start()).To(Succeed())
		defer svc.Stop()

		conn, err := net.Dial("tcp", svc.Addr().String())
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		frame, err := wire.EncodeFrame(wire.Frame{Cmd: 1, Body: []byte("hi")})
		Expect(err).NotTo(HaveOccurred())
		_, err = conn.Write(frame)
		Expect(err).NotTo(HaveOccurred())

		Eventually(func() int {
			msgs, _ := rc.count()
			return msgs
		}, 2*time.Second).Should(BeNumerically(">=", 1))

		conn.Close()

		Eventually(func() int {
			_, discs := rc.count()
			return discs
		}, 2*time.Second).Should(BeNumerically(">=", 1))
	})

	It("Track and Untrack add and remove a connection from the active set closed by Stop", func() {
		svc := component.New(0, 1)
		Expect(svc.Start()).To(Succeed())

		before := svc.ActiveConnections()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()
		clientDone := make(chan net.Conn, 1)
		go func() {
			c, _ := net.Dial("tcp", ln.Addr().String())
			clientDone <- c
		}()
		serverSide, err := ln.Accept()
		Expect(err).NotTo(HaveOccurred())
		<-clientDone
		conn := netconn.New(serverSide)

		svc.Track(conn)
		Expect(svc.ActiveConnections()).To(Equal(before + 1))

		svc.Untrack(conn)
		Expect(svc.ActiveConnections()).To(Equal(before))

		svc.Stop()
	})
})
