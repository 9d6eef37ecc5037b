// Package wssvc is a deliberate stub. original_source's websocket scaffold
// (examples/*) accepts a raw TCP connection and writes unmasked frames
// without performing the RFC 6455 opening handshake — not real WebSocket
// interop, and not worth reproducing faithfully (spec.md §9 REDESIGN
// FLAG). Rather than ship a protocol that looks like WebSocket but isn't,
// this package exposes the same shape and fails loudly.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package wssvc

import (
	"net"

	"github.com/chwellgo/netcore/cmn/cos"
)

// Server is the WebSocket sub-server surface. Every operation returns
// cos.ErrNotImplemented until a real RFC 6455 implementation is wired in.
type Server struct {
	port int
}

func New(port int) *Server { return &Server{port: port} }

// Start always fails: no handshake, no framing, no socket bound.
func (s *Server) Start() error {
	return cos.NewErrNotImplemented("wssvc.Server.Start")
}

// Upgrade always fails: upgrading a plain TCP connection to WebSocket
// requires the RFC 6455 handshake, which this stub does not perform.
func (s *Server) Upgrade(net.Conn) error {
	return cos.NewErrNotImplemented("wssvc.Server.Upgrade")
}
