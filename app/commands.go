// Package app wires the example command handlers shared by the backend
// and gateway daemons: ECHO, CHAT, HEARTBEAT, LOGIN, LOGOUT, and the
// room-roster commands JOIN_ROOM/LEAVE_ROOM/ROOM_ROSTER the distillation
// dropped but original_source's session_manager.h supports. Grounded on
// original_source/examples/protocol_server.cpp and
// original_source/examples/gateway_server.cpp.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package app

import (
	"strings"

	"github.com/chwellgo/netcore/cmn/cos"
	"github.com/chwellgo/netcore/cmn/nlog"
	"github.com/chwellgo/netcore/netconn"
	"github.com/chwellgo/netcore/router"
	"github.com/chwellgo/netcore/session"
	"github.com/chwellgo/netcore/wire"
)

// Cmd holds the reserved command identifiers used by the example handlers.
var Cmd = struct {
	Echo        uint16
	Chat        uint16
	Heartbeat   uint16
	Login       uint16
	Logout      uint16
	JoinRoom    uint16
	LeaveRoom   uint16
	RoomRoster  uint16
}{
	Echo:       1,
	Chat:       2,
	Heartbeat:  3,
	Login:      10,
	Logout:     11,
	JoinRoom:   20,
	LeaveRoom:  21,
	RoomRoster: 22,
}

func reply(conn *netconn.Connection, cmd uint16, body string) {
	router.SendMessage(conn, wire.Frame{Cmd: cmd, Body: []byte(body)})
}

// RegisterEcho installs the ECHO handler: replies "Echo: <body>".
func RegisterEcho(r *router.Router) {
	r.RegisterHandler(Cmd.Echo, func(conn *netconn.Connection, f wire.Frame) {
		text := string(f.Body)
		nlog.Debugf("app: echo received %q", text)
		reply(conn, Cmd.Echo, "Echo: "+text)
	})
}

// RegisterChat installs the CHAT handler, gated on the session being
// logged in.
func RegisterChat(r *router.Router, sess *session.Session) {
	r.RegisterHandler(Cmd.Chat, func(conn *netconn.Connection, f wire.Frame) {
		if !sess.IsLoggedIn(conn) {
			reply(conn, Cmd.Chat, "[Server] please login first")
			return
		}
		reply(conn, Cmd.Chat, "[Server] "+string(f.Body))
	})
}

// RegisterHeartbeat installs the HEARTBEAT handler: replies "pong".
func RegisterHeartbeat(r *router.Router) {
	r.RegisterHandler(Cmd.Heartbeat, func(conn *netconn.Connection, _ wire.Frame) {
		reply(conn, Cmd.Heartbeat, "pong")
	})
}

// RegisterLogin installs the LOGIN handler: the frame body is the
// player_id verbatim. Empty player_id is rejected here, at the caller —
// session.Login itself does not validate (spec.md §4.F).
func RegisterLogin(r *router.Router, sess *session.Session) {
	r.RegisterHandler(Cmd.Login, func(conn *netconn.Connection, f wire.Frame) {
		playerID := string(f.Body)
		if playerID == "" {
			reply(conn, Cmd.Login, "login failed: empty player_id")
			return
		}
		sess.Login(conn, playerID)
		reply(conn, Cmd.Login, "login ok: "+playerID)
	})
}

// RegisterLogout installs the LOGOUT handler.
func RegisterLogout(r *router.Router, sess *session.Session) {
	r.RegisterHandler(Cmd.Logout, func(conn *netconn.Connection, _ wire.Frame) {
		if !sess.IsLoggedIn(conn) {
			reply(conn, Cmd.Logout, "not logged in")
			return
		}
		playerID := sess.GetPlayerID(conn)
		sess.Logout(conn)
		reply(conn, Cmd.Logout, "logout ok: "+playerID)
	})
}

// RegisterJoinRoom installs JOIN_ROOM: body is the room_id.
func RegisterJoinRoom(r *router.Router, sess *session.Session) {
	r.RegisterHandler(Cmd.JoinRoom, func(conn *netconn.Connection, f wire.Frame) {
		if !sess.IsLoggedIn(conn) {
			reply(conn, Cmd.JoinRoom, "join failed: please login first")
			return
		}
		roomID := string(f.Body)
		if roomID == "" {
			reply(conn, Cmd.JoinRoom, "join failed: empty room_id")
			return
		}
		if !cos.IsAlphaNice(roomID) {
			reply(conn, Cmd.JoinRoom, "join failed: room_id must be alphanumeric (with interior -/_), up to 32 chars")
			return
		}
		sess.JoinRoom(conn, roomID)
		reply(conn, Cmd.JoinRoom, "joined "+roomID)
	})
}

// RegisterLeaveRoom installs LEAVE_ROOM.
func RegisterLeaveRoom(r *router.Router, sess *session.Session) {
	r.RegisterHandler(Cmd.LeaveRoom, func(conn *netconn.Connection, _ wire.Frame) {
		roomID := sess.GetRoomID(conn)
		sess.LeaveRoom(conn)
		reply(conn, Cmd.LeaveRoom, "left "+roomID)
	})
}

// RegisterRoomRoster installs ROOM_ROSTER: body is the room_id, reply is
// the newline-joined list of player IDs currently in that room.
func RegisterRoomRoster(r *router.Router, sess *session.Session) {
	r.RegisterHandler(Cmd.RoomRoster, func(conn *netconn.Connection, f wire.Frame) {
		roomID := string(f.Body)
		players := sess.PlayersInRoom(roomID)
		reply(conn, Cmd.RoomRoster, strings.Join(players, "\n"))
	})
}
