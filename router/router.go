// Package router implements the Protocol Router component (spec.md §4.E):
// per-connection parser state plus a cmd→handler table, dispatching decoded
// frames synchronously from the dispatch goroutine. Grounded on
// original_source/src/service/protocol_router.cpp.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package router

import (
	"sync"

	"github.com/chwellgo/netcore/cmn/atomic"
	"github.com/chwellgo/netcore/cmn/nlog"
	"github.com/chwellgo/netcore/component"
	"github.com/chwellgo/netcore/netconn"
	"github.com/chwellgo/netcore/wire"
)

// Handler processes one decoded frame for one connection. Handlers run
// synchronously on the connection's dispatch goroutine and may call
// SendMessage to reply.
type Handler func(conn *netconn.Connection, frame wire.Frame)

// Limiter gates a connection ahead of handler dispatch. Satisfied by
// *reliability.ConnectionLimiter; kept as a narrow interface here so router
// doesn't import reliability (spec.md §5: the rate limiter is wired into
// the router as an optional pre-dispatch gate).
type Limiter interface {
	Allow(conn *netconn.Connection) bool
}

// Router is the Protocol Router component.
type Router struct {
	// handlersMu protects handlers against concurrent registration during
	// serving. spec.md §4.E: "implementations should either freeze the map
	// after start() or protect it with a read-mostly lock" — this takes
	// the lock option so late registration (e.g. a gateway wiring its own
	// handler in on_register) stays safe.
	handlersMu sync.RWMutex
	handlers   map[uint16]Handler

	parsersMu sync.Mutex
	parsers   map[*netconn.Connection]*wire.Parser

	limiterMu sync.RWMutex
	limiter   Limiter

	droppedCmds atomic.Uint32
}

func New() *Router {
	return &Router{
		handlers: make(map[uint16]Handler),
		parsers:  make(map[*netconn.Connection]*wire.Parser),
	}
}

func (r *Router) Name() string { return "Router" }

func (r *Router) OnRegister(*component.Service) {}

// RegisterHandler installs the handler for cmd. Last registration wins.
func (r *Router) RegisterHandler(cmd uint16, h Handler) {
	r.handlersMu.Lock()
	r.handlers[cmd] = h
	r.handlersMu.Unlock()
}

// SetLimiter installs (or, passed nil, removes) the pre-dispatch rate
// limiter. A connection that fails limiter.Allow gets a local "rate limit
// exceeded" reply instead of handler dispatch, for every cmd alike.
func (r *Router) SetLimiter(l Limiter) {
	r.limiterMu.Lock()
	r.limiter = l
	r.limiterMu.Unlock()
}

// OnMessage feeds chunk into the connection's parser and dispatches every
// decoded frame to its registered handler. An unknown cmd is logged and
// dropped; the connection is unaffected (spec.md §7).
func (r *Router) OnMessage(conn *netconn.Connection, chunk []byte) {
	parser := r.parserFor(conn)
	frames := parser.Feed(chunk)

	for _, f := range frames {
		r.limiterMu.RLock()
		limiter := r.limiter
		r.limiterMu.RUnlock()
		if limiter != nil && !limiter.Allow(conn) {
			SendMessage(conn, wire.Frame{Cmd: f.Cmd, Body: []byte("rate limit exceeded")})
			continue
		}

		r.handlersMu.RLock()
		h, ok := r.handlers[f.Cmd]
		r.handlersMu.RUnlock()
		if !ok {
			r.droppedCmds.Add(1)
			nlog.Warningf("router: no handler for cmd=%d, dropping frame", f.Cmd)
			continue
		}
		h(conn, f)
	}
}

// DroppedCmdCount reports how many frames were dropped for lacking a
// registered handler, across the router's lifetime.
func (r *Router) DroppedCmdCount() uint32 {
	return r.droppedCmds.Load()
}

// OnDisconnect removes the parser entry for conn, freeing any buffered bytes,
// and drops conn's state from the limiter if the limiter keeps any.
func (r *Router) OnDisconnect(conn *netconn.Connection) {
	r.parsersMu.Lock()
	delete(r.parsers, conn)
	r.parsersMu.Unlock()

	r.limiterMu.RLock()
	limiter := r.limiter
	r.limiterMu.RUnlock()
	if rm, ok := limiter.(interface{ Remove(*netconn.Connection) }); ok {
		rm.Remove(conn)
	}
}

func (r *Router) parserFor(conn *netconn.Connection) *wire.Parser {
	r.parsersMu.Lock()
	defer r.parsersMu.Unlock()
	p, ok := r.parsers[conn]
	if !ok {
		p = &wire.Parser{}
		r.parsers[conn] = p
	}
	return p
}

// HasParser reports whether conn currently has buffered parser state —
// exposed for tests verifying the disconnect-cleanup invariant (spec.md §8
// invariant 4).
func (r *Router) HasParser(conn *netconn.Connection) bool {
	r.parsersMu.Lock()
	defer r.parsersMu.Unlock()
	_, ok := r.parsers[conn]
	return ok
}

// SendMessage serializes frame and writes it to conn. Safe to call from any
// handler, any goroutine.
func SendMessage(conn *netconn.Connection, frame wire.Frame) {
	data, err := wire.EncodeFrame(frame)
	if err != nil {
		nlog.Errorf("router: failed to encode cmd=%d: %v", frame.Cmd, err)
		return
	}
	conn.Send(data)
}
