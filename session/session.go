// Package session implements the Session component (spec.md §4.F):
// connection→player binding, with safe cleanup under disconnect races.
// Supplemented with room/gateway binding from
// original_source/include/chwell/service/session_manager.h, which the
// spec.md distillation dropped.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package session

import (
	"sync"
	"time"

	"github.com/chwellgo/netcore/cmn/cos"
	"github.com/chwellgo/netcore/cmn/debug"
	"github.com/chwellgo/netcore/cmn/nlog"
	"github.com/chwellgo/netcore/component"
	"github.com/chwellgo/netcore/netconn"
)

// Info is the per-connection session record.
type Info struct {
	PlayerID     string
	RoomID       string
	GatewayID    string
	Authed       bool
	LastActive   time.Time
	SessionToken string // cos.GenUUID(), minted on Login, opaque to the client
}

// Session is the Session component: map connection identity → Info.
type Session struct {
	mu       sync.RWMutex
	sessions map[*netconn.Connection]*Info
}

func New() *Session {
	return &Session{sessions: make(map[*netconn.Connection]*Info)}
}

func (s *Session) Name() string { return "Session" }

func (s *Session) OnRegister(*component.Service) {}

func (s *Session) OnMessage(*netconn.Connection, []byte) {}

// OnDisconnect erases the session record for conn, if present — spec.md §3
// invariant: "after on_disconnect returns, no session record exists for
// that connection."
func (s *Session) OnDisconnect(conn *netconn.Connection) {
	s.mu.Lock()
	info, ok := s.sessions[conn]
	if ok {
		delete(s.sessions, conn)
	}
	_, stillPresent := s.sessions[conn]
	s.mu.Unlock()
	debug.Assert(!stillPresent, "session record survives OnDisconnect")
	if ok {
		nlog.Infof("session: removed on disconnect, player_id=%s room_id=%s", info.PlayerID, info.RoomID)
	}
}

// Login upserts a record with authed=true. playerID must be non-empty —
// callers (example handlers) enforce this and reply with an error frame,
// per spec.md §4.F.
func (s *Session) Login(conn *netconn.Connection, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.sessions[conn]
	if !ok {
		info = &Info{}
		s.sessions[conn] = info
	}
	info.PlayerID = playerID
	info.Authed = true
	info.LastActive = time.Now()
	info.SessionToken = cos.GenUUID()
	nlog.Infof("session: login, player_id=%s, session_token=%s", playerID, info.SessionToken)
}

// GetSessionToken returns the opaque token minted for conn's current
// session, or "" if conn has no session.
func (s *Session) GetSessionToken(conn *netconn.Connection) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if info, ok := s.sessions[conn]; ok {
		return info.SessionToken
	}
	return ""
}

// Logout erases the session record if present.
func (s *Session) Logout(conn *netconn.Connection) {
	s.mu.Lock()
	info, ok := s.sessions[conn]
	if ok {
		delete(s.sessions, conn)
	}
	s.mu.Unlock()
	if ok {
		nlog.Infof("session: logout, player_id=%s", info.PlayerID)
	}
}

// IsLoggedIn is a non-mutating query.
func (s *Session) IsLoggedIn(conn *netconn.Connection) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.sessions[conn]
	return ok && info.Authed
}

// GetPlayerID is a non-mutating query; returns "" if not logged in.
func (s *Session) GetPlayerID(conn *netconn.Connection) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.sessions[conn]
	if !ok || !info.Authed {
		return ""
	}
	return info.PlayerID
}

// JoinRoom binds conn's session to roomID, a no-op if conn has no session.
func (s *Session) JoinRoom(conn *netconn.Connection, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.sessions[conn]
	if !ok {
		return
	}
	info.RoomID = roomID
	info.LastActive = time.Now()
	nlog.Infof("session: player %s joined room %s", info.PlayerID, roomID)
}

// LeaveRoom clears conn's room binding, a no-op if conn has no session.
func (s *Session) LeaveRoom(conn *netconn.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.sessions[conn]
	if !ok {
		return
	}
	room := info.RoomID
	info.RoomID = ""
	info.LastActive = time.Now()
	nlog.Infof("session: player %s left room %s", info.PlayerID, room)
}

// SetGateway records which gateway node brokered conn, for multi-node setups.
func (s *Session) SetGateway(conn *netconn.Connection, gatewayID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if info, ok := s.sessions[conn]; ok {
		info.GatewayID = gatewayID
		info.LastActive = time.Now()
	}
}

// GetRoomID is a non-mutating query; returns "" if conn has no session or
// is not in a room.
func (s *Session) GetRoomID(conn *netconn.Connection) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if info, ok := s.sessions[conn]; ok {
		return info.RoomID
	}
	return ""
}

// PlayersInRoom returns the player IDs of every authed session currently
// bound to roomID.
func (s *Session) PlayersInRoom(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var players []string
	for _, info := range s.sessions {
		if info.Authed && info.RoomID == roomID {
			players = append(players, info.PlayerID)
		}
	}
	return players
}

// UpdateActiveTime stamps conn's last-active time, a no-op if conn has no
// session. The session-mutating operations above set LastActive themselves.
func (s *Session) UpdateActiveTime(conn *netconn.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if info, ok := s.sessions[conn]; ok {
		info.LastActive = time.Now()
	}
}

// Has reports whether conn currently has a session record at all — used by
// tests to verify the disconnect-cleanup invariant.
func (s *Session) Has(conn *netconn.Connection) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[conn]
	return ok
}
