// Package ioruntime implements netcore's acceptor and work-queue, the Go
// equivalent of chwell's posix_io.{h,cpp} pairing of a TcpAcceptor (bound
// listening socket, interruptible accept) and an IoService (work queue
// drained by a worker pool). Go's net.Listener has no wake-pipe primitive,
// so the acceptor substitutes a 1s accept deadline plus a stop flag for the
// same "interruptible accept with liveness poll" contract described in
// spec.md §4.C — an explicitly sanctioned substitution per spec.md §9
// ("an implementer may substitute ... without changing any externally
// observable contract").
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package ioruntime

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/chwellgo/netcore/cmn/atomic"
	"github.com/chwellgo/netcore/cmn/nlog"
)

const acceptPollInterval = time.Second

// Acceptor binds a listening socket with SO_REUSEADDR on all interfaces and
// exposes an interruptible Accept loop.
type Acceptor struct {
	ln      *net.TCPListener
	stopped atomic.Bool
}

// NewAcceptor binds port on all interfaces with SO_REUSEADDR set.
func NewAcceptor(port int) (*Acceptor, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	ln, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("ioruntime: bind :%d: %w", port, err)
	}
	tln, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return nil, fmt.Errorf("ioruntime: unexpected listener type %T", ln)
	}
	return &Acceptor{ln: tln}, nil
}

// Accept blocks until a connection arrives, Stop is called, or a transient
// poll-timeout deadline elapses (used only to re-check the stop flag).
// Returns (nil, nil) on the latter so callers loop back in.
func (a *Acceptor) Accept() (net.Conn, error) {
	if err := a.ln.SetDeadline(time.Now().Add(acceptPollInterval)); err != nil {
		return nil, err
	}
	conn, err := a.ln.Accept()
	if err != nil {
		if a.stopped.Load() {
			return nil, net.ErrClosed
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil
		}
		return nil, err
	}
	return conn, nil
}

// Stop causes the next (or in-flight) Accept to return net.ErrClosed.
func (a *Acceptor) Stop() {
	if a.stopped.CAS(false, true) {
		a.ln.Close()
		nlog.Infof("ioruntime: acceptor stopped")
	}
}

func (a *Acceptor) Addr() net.Addr { return a.ln.Addr() }
