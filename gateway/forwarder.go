// Package gateway implements the Gateway Forwarder component (spec.md §4.G):
// it relays frames from a client connection to a backend connection it
// dials lazily, and relays backend replies back to the client. Grounded on
// original_source/src/gateway/gateway_forwarder.cpp and
// original_source/include/chwell/gateway/gateway_forwarder.h.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package gateway

import (
	"fmt"
	"net"
	"sync"

	"github.com/chwellgo/netcore/cmn/cos"
	"github.com/chwellgo/netcore/cmn/debug"
	"github.com/chwellgo/netcore/cmn/nlog"
	"github.com/chwellgo/netcore/component"
	"github.com/chwellgo/netcore/netconn"
	"github.com/chwellgo/netcore/wire"
)

// Forwarder is the Gateway Forwarder component.
type Forwarder struct {
	backendHost string
	backendPort int
	svc         *component.Service

	mu              sync.Mutex
	clientToBackend map[*netconn.Connection]*netconn.Connection
	backendToClient map[*netconn.Connection]*netconn.Connection
	backendSession  map[*netconn.Connection]string // cos.GenUUID(), for log correlation
}

// New constructs a Forwarder that dials backendHost:backendPort on demand.
func New(backendHost string, backendPort int) *Forwarder {
	return &Forwarder{
		backendHost:     backendHost,
		backendPort:     backendPort,
		clientToBackend: make(map[*netconn.Connection]*netconn.Connection),
		backendToClient: make(map[*netconn.Connection]*netconn.Connection),
		backendSession:  make(map[*netconn.Connection]string),
	}
}

func (f *Forwarder) Name() string { return "GatewayForwarder" }

func (f *Forwarder) OnRegister(svc *component.Service) { f.svc = svc }

// OnMessage is a no-op: the forwarder is driven explicitly via Forward, not
// by raw byte dispatch — the Router decodes frames and calls Forward.
func (f *Forwarder) OnMessage(*netconn.Connection, []byte) {}

// OnDisconnect tears down the client's paired backend connection, if any —
// spec.md §4.G invariant: client disconnect, backend close, and explicit
// shutdown all converge on the same teardown path, and it is idempotent.
func (f *Forwarder) OnDisconnect(clientConn *netconn.Connection) {
	f.teardown(clientConn, nil)
}

// HasBackend reports whether clientConn currently has a paired backend
// connection established.
func (f *Forwarder) HasBackend(clientConn *netconn.Connection) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.clientToBackend[clientConn]
	return ok
}

// Forward relays frame to clientConn's backend, dialing the backend lazily
// on first use. On dial failure, an error frame with the same cmd is sent
// back to the client (matching gateway_forwarder.cpp's error-reply path).
func (f *Forwarder) Forward(clientConn *netconn.Connection, frame wire.Frame) {
	f.mu.Lock()
	backend, ok := f.clientToBackend[clientConn]
	f.mu.Unlock()

	if !ok {
		var err error
		backend, err = f.connectBackend(clientConn)
		if err != nil {
			nlog.Errorf("gateway: failed to connect backend: %v", err)
			reply, encErr := wire.EncodeFrame(wire.Frame{Cmd: frame.Cmd, Body: []byte("gateway: backend unavailable")})
			if encErr == nil {
				clientConn.Send(reply)
			}
			return
		}
	}

	data, err := wire.EncodeFrame(frame)
	if err != nil {
		nlog.Errorf("gateway: failed to encode frame for backend: %v", err)
		return
	}
	backend.Send(data)
}

func (f *Forwarder) connectBackend(clientConn *netconn.Connection) (*netconn.Connection, error) {
	raw, err := net.Dial("tcp", fmt.Sprintf("%s:%d", f.backendHost, f.backendPort))
	if err != nil {
		return nil, err
	}

	backend := netconn.New(raw)
	backend.OnMessage(func(conn *netconn.Connection, chunk []byte) {
		f.onBackendMessage(conn, chunk)
	})
	backend.OnClose(f.onBackendClose)

	base := cos.GenUUID()
	debug.Assert(cos.IsValidUUID(base), "gateway: minted session id does not look like a GenUUID output")
	// GenTie disambiguates two backend sessions established in the same
	// process tick, where two GenUUID calls could otherwise collide in a
	// log grep.
	sessionID := base + "-" + cos.GenTie()

	f.mu.Lock()
	f.clientToBackend[clientConn] = backend
	f.backendToClient[backend] = clientConn
	f.backendSession[backend] = sessionID
	f.mu.Unlock()

	if f.svc != nil {
		f.svc.Track(backend)
		f.svc.Post(backend.Start)
	} else {
		go backend.Start()
	}

	nlog.Infof("gateway: connected to backend %s:%d, session=%s", f.backendHost, f.backendPort, sessionID)
	return backend, nil
}

// onBackendMessage relays a raw chunk from the backend straight back to the
// paired client, unparsed — the backend speaks the same framing, so bytes
// pass through untouched.
func (f *Forwarder) onBackendMessage(backendConn *netconn.Connection, chunk []byte) {
	f.mu.Lock()
	clientConn, ok := f.backendToClient[backendConn]
	f.mu.Unlock()
	if ok {
		clientConn.Send(chunk)
	}
}

func (f *Forwarder) onBackendClose(backendConn *netconn.Connection) {
	f.teardown(nil, backendConn)
}

// teardown removes the clientConn/backendConn pair from both maps, closing
// whichever side did not already close. Exactly one of clientConn,
// backendConn is non-nil on any call; idempotent because map deletion is
// the single source of truth.
func (f *Forwarder) teardown(clientConn, backendConn *netconn.Connection) {
	fromBackend := clientConn == nil
	f.mu.Lock()
	if clientConn != nil {
		backendConn = f.clientToBackend[clientConn]
	}
	if backendConn == nil {
		f.mu.Unlock()
		return
	}
	if clientConn == nil {
		clientConn = f.backendToClient[backendConn]
		if clientConn == nil {
			f.mu.Unlock()
			return
		}
	}
	debug.Assert(f.clientToBackend[clientConn] == backendConn && f.backendToClient[backendConn] == clientConn,
		"gateway: clientToBackend/backendToClient maps are not mutually inverse")
	sessionID := f.backendSession[backendConn]
	delete(f.clientToBackend, clientConn)
	delete(f.backendToClient, backendConn)
	delete(f.backendSession, backendConn)
	f.mu.Unlock()

	backendConn.Close()
	if fromBackend {
		clientConn.Close()
	}
	if f.svc != nil {
		f.svc.Untrack(backendConn)
	}
	nlog.Infof("gateway: torn down client/backend pair, session=%s", sessionID)
}
