// Package udpsvc is a thin UDP datagram server: no framing, no
// reliability, no retransmission — a scaffold for protocols that sit
// outside the main TCP wire format (e.g. discovery beacons, best-effort
// telemetry). Deliberately minimal; see spec.md §9's note on keeping
// scaffolds honest about what they are.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package udpsvc

import (
	"net"

	"github.com/chwellgo/netcore/cmn/nlog"
)

const readBufSize = 65536

// DatagramCallback receives one inbound UDP datagram and the address it
// arrived from.
type DatagramCallback func(addr *net.UDPAddr, data []byte)

// Server binds a single UDP socket and reads datagrams on its own
// goroutine until Stop is called.
type Server struct {
	conn     *net.UDPConn
	onDgram  DatagramCallback
	stopped  chan struct{}
	closeErr chan error
}

// Listen binds port and returns a Server ready for Start.
func Listen(port int, onDgram DatagramCallback) (*Server, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, err
	}
	return &Server{
		conn:     conn,
		onDgram:  onDgram,
		stopped:  make(chan struct{}),
		closeErr: make(chan error, 1),
	}, nil
}

// Start runs the read loop on its own goroutine.
func (s *Server) Start() {
	go s.readLoop()
}

func (s *Server) readLoop() {
	buf := make([]byte, readBufSize)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.stopped:
				return
			default:
				nlog.Warningf("udpsvc: read error: %v", err)
				return
			}
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		s.onDgram(addr, data)
	}
}

// Send writes data to addr on the bound socket.
func (s *Server) Send(addr *net.UDPAddr, data []byte) error {
	_, err := s.conn.WriteToUDP(data, addr)
	return err
}

// Stop closes the UDP socket, ending the read loop.
func (s *Server) Stop() error {
	close(s.stopped)
	return s.conn.Close()
}

// Addr returns the bound local address.
func (s *Server) Addr() net.Addr { return s.conn.LocalAddr() }
