package rpc_test

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/chwellgo/netcore/rpc"
	"github.com/chwellgo/netcore/wire"
)

// echoServer decodes each frame, echoes the body back verbatim (including
// the caller's trailing request ID), simulating a minimal RPC backend.
func echoServer(t *testing.T) (port int, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
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

	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ = strconv.Atoi(portStr)
	return port, func() { close(done) }
}

func TestCallCorrelatesResponseByRequestID(t *testing.T) {
	port, stop := echoServer(t)
	defer stop()

	client, err := rpc.Dial("127.0.0.1", port)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	type result struct {
		cmd  uint16
		body []byte
	}
	results := make(chan result, 2)

	if err := client.Call(1, []byte("first"), func(cmd uint16, body []byte) {
		results <- result{cmd, body}
	}); err != nil {
		t.Fatalf("Call 1: %v", err)
	}
	if err := client.Call(2, []byte("second"), func(cmd uint16, body []byte) {
		results <- result{cmd, body}
	}); err != nil {
		t.Fatalf("Call 2: %v", err)
	}

	seen := make(map[string]uint16)
	for i := 0; i < 2; i++ {
		select {
		case r := <-results:
			seen[string(r.body)] = r.cmd
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for responses")
		}
	}

	if seen["first"] != 1 || seen["second"] != 2 {
		t.Fatalf("response correlation mismatch: %v", seen)
	}
}

func TestCallSyncIsNotImplemented(t *testing.T) {
	port, stop := echoServer(t)
	defer stop()

	client, err := rpc.Dial("127.0.0.1", port)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if _, err := client.CallSync(1, []byte("x")); err == nil {
		t.Fatal("expected CallSync to return an error")
	}
}
