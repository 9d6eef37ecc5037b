package app_test

import (
	"net"
	"testing"
	"time"

	"github.com/chwellgo/netcore/app"
	"github.com/chwellgo/netcore/netconn"
	"github.com/chwellgo/netcore/router"
	"github.com/chwellgo/netcore/session"
	"github.com/chwellgo/netcore/wire"
)

// wiredPair dials a loopback connection, wires conn's reads through r, and
// returns the server-side Connection plus a channel of decoded replies
// read off the client socket.
func wiredPair(t *testing.T, r *router.Router) (*netconn.Connection, chan wire.Frame) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	clientCh := make(chan net.Conn, 1)
	go func() {
		c, _ := net.Dial("tcp", ln.Addr().String())
		clientCh <- c
	}()
	serverRaw, err := ln.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	client := <-clientCh

	serverConn := netconn.New(serverRaw)
	serverConn.OnMessage(r.OnMessage)
	go serverConn.Start()

	replies := make(chan wire.Frame, 8)
	go func() {
		p := &wire.Parser{}
		buf := make([]byte, 4096)
		for {
			n, err := client.Read(buf)
			if err != nil {
				return
			}
			for _, f := range p.Feed(buf[:n]) {
				replies <- f
			}
		}
	}()

	return serverConn, replies
}

func send(t *testing.T, r *router.Router, conn *netconn.Connection, cmd uint16, body string) {
	t.Helper()
	// The handlers dispatch synchronously off r.OnMessage, called here
	// directly rather than through a second socket write, to avoid a
	// second round trip through the kernel per assertion.
	frame, err := wire.EncodeFrame(wire.Frame{Cmd: cmd, Body: []byte(body)})
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	r.OnMessage(conn, frame)
}

func expectReply(t *testing.T, replies chan wire.Frame, wantCmd uint16, wantBody string) {
	t.Helper()
	select {
	case f := <-replies:
		if f.Cmd != wantCmd || string(f.Body) != wantBody {
			t.Fatalf("reply = (cmd=%d, body=%q), want (cmd=%d, body=%q)", f.Cmd, f.Body, wantCmd, wantBody)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestEchoRoundTrip(t *testing.T) {
	r := router.New()
	app.RegisterEcho(r)
	conn, replies := wiredPair(t, r)

	send(t, r, conn, app.Cmd.Echo, "hi")
	expectReply(t, replies, app.Cmd.Echo, "Echo: hi")
}

func TestChatRequiresLogin(t *testing.T) {
	r := router.New()
	sess := session.New()
	app.RegisterChat(r, sess)
	app.RegisterLogin(r, sess)
	conn, replies := wiredPair(t, r)

	send(t, r, conn, app.Cmd.Chat, "hello")
	expectReply(t, replies, app.Cmd.Chat, "[Server] please login first")

	send(t, r, conn, app.Cmd.Login, "p1")
	expectReply(t, replies, app.Cmd.Login, "login ok: p1")

	send(t, r, conn, app.Cmd.Chat, "hello")
	expectReply(t, replies, app.Cmd.Chat, "[Server] hello")
}

func TestLoginRejectsEmptyPlayerID(t *testing.T) {
	r := router.New()
	sess := session.New()
	app.RegisterLogin(r, sess)
	conn, replies := wiredPair(t, r)

	send(t, r, conn, app.Cmd.Login, "")
	expectReply(t, replies, app.Cmd.Login, "login failed: empty player_id")
	if sess.IsLoggedIn(conn) {
		t.Fatal("expected empty player_id login to be rejected")
	}
}

func TestJoinRoomRosterLeaveRoom(t *testing.T) {
	r := router.New()
	sess := session.New()
	app.RegisterLogin(r, sess)
	app.RegisterJoinRoom(r, sess)
	app.RegisterLeaveRoom(r, sess)
	app.RegisterRoomRoster(r, sess)
	conn, replies := wiredPair(t, r)

	send(t, r, conn, app.Cmd.Login, "p1")
	expectReply(t, replies, app.Cmd.Login, "login ok: p1")

	send(t, r, conn, app.Cmd.JoinRoom, "room-1")
	expectReply(t, replies, app.Cmd.JoinRoom, "joined room-1")

	send(t, r, conn, app.Cmd.RoomRoster, "room-1")
	expectReply(t, replies, app.Cmd.RoomRoster, "p1")

	send(t, r, conn, app.Cmd.LeaveRoom, "")
	expectReply(t, replies, app.Cmd.LeaveRoom, "left room-1")
}

func TestHeartbeatRepliesPong(t *testing.T) {
	r := router.New()
	app.RegisterHeartbeat(r)
	conn, replies := wiredPair(t, r)

	send(t, r, conn, app.Cmd.Heartbeat, "")
	expectReply(t, replies, app.Cmd.Heartbeat, "pong")
}
