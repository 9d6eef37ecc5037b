// Package netconn implements netcore's Connection: ownership of one accepted
// socket, its read loop, a thread-safe write path, and single-fire close
// semantics. Grounded on original_source/src/net/tcp_connection.cpp.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package netconn

import (
	"net"
	"sync"

	natomic "github.com/chwellgo/netcore/cmn/atomic"
	"github.com/chwellgo/netcore/cmn/debug"
	"github.com/chwellgo/netcore/cmn/nlog"
)

const readBufSize = 4096

// MessageCallback is invoked once per non-empty read with the raw bytes read
// (not yet framed — framing is the Router component's job).
type MessageCallback func(c *Connection, chunk []byte)

// CloseCallback fires exactly once, after the read loop has fully terminated.
type CloseCallback func(c *Connection)

// Connection wraps one accepted, already-connected net.Conn in blocking mode.
// Its pointer identity is used as the stable key by per-connection component
// state (Router's parser map, Session's session map, Forwarder's pair maps).
type Connection struct {
	conn net.Conn

	onMessage MessageCallback
	onClose   CloseCallback

	closed natomic.Bool
	sendMu sync.Mutex

	closeOnce  sync.Once
	closeFires natomic.Int32
}

// New wraps an already-accepted net.Conn. Callers must set callbacks (via
// OnMessage/OnClose) before calling Start.
func New(conn net.Conn) *Connection {
	return &Connection{conn: conn}
}

func (c *Connection) OnMessage(cb MessageCallback) { c.onMessage = cb }
func (c *Connection) OnClose(cb CloseCallback)      { c.onClose = cb }

// RemoteAddr exposes the underlying socket's remote address for logging.
func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Start runs the read loop on the calling goroutine. Callers that want this
// off the accept goroutine should invoke Start via ioruntime's work queue.
func (c *Connection) Start() {
	buf := make([]byte, readBufSize)
	for {
		if c.closed.Load() {
			break
		}
		n, err := c.conn.Read(buf)
		if n > 0 && c.onMessage != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.onMessage(c, chunk)
		}
		if err != nil {
			break
		}
		if n == 0 {
			break
		}
	}
	c.terminate()
}

// Send writes data in full, serialized against concurrent senders so frames
// never interleave on the wire. A no-op once the connection is closed.
func (c *Connection) Send(data []byte) {
	if c.closed.Load() {
		return
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed.Load() {
		return
	}
	total := 0
	for total < len(data) {
		n, err := c.conn.Write(data[total:])
		if err != nil {
			nlog.Warningf("netconn: write error: %v", err)
			return
		}
		total += n
	}
}

// Close initiates shutdown from outside the read loop (e.g. a forwarder
// tearing down the peer side). Safe to call multiple times or concurrently
// with the read loop unblocking on its own.
func (c *Connection) Close() {
	if c.closed.CAS(false, true) {
		_ = c.conn.Close()
	}
}

// terminate runs exactly once per Connection, regardless of how many of
// {peer close, read error, explicit Close} raced to get here.
func (c *Connection) terminate() {
	c.closed.Store(true)
	c.closeOnce.Do(func() {
		fires := c.closeFires.Add(1)
		debug.Assert(fires == 1, "netconn: terminate ran more than once for the same connection")
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}

// Closed reports whether the connection has been torn down.
func (c *Connection) Closed() bool { return c.closed.Load() }
