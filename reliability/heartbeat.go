package reliability

import (
	"sync"
	"time"

	"github.com/chwellgo/netcore/cmn/atomic"
	"github.com/chwellgo/netcore/cmn/mono"
	"github.com/chwellgo/netcore/cmn/nlog"
	"github.com/chwellgo/netcore/component"
	"github.com/chwellgo/netcore/netconn"
)

// HeartbeatManager reaps connections idle for longer than 3x the heartbeat
// interval, ported from heartbeat.h's timer_loop/check_connections. It is
// a component: registration wires it into the Service's component chain
// so the generic registry (component.GetComponent) can find it.
type HeartbeatManager struct {
	interval time.Duration
	timeout  time.Duration

	mu          sync.Mutex
	lastSeen    map[*netconn.Connection]int64 // mono.NanoTime()
	stop        chan struct{}
	stopOnce    sync.Once
	startOnce   sync.Once
	reapedTotal atomic.Int64
}

func NewHeartbeatManager(intervalSeconds int) *HeartbeatManager {
	interval := time.Duration(intervalSeconds) * time.Second
	return &HeartbeatManager{
		interval: interval,
		timeout:  interval * 3,
		lastSeen: make(map[*netconn.Connection]int64),
		stop:     make(chan struct{}),
	}
}

func (h *HeartbeatManager) Name() string { return "HeartbeatManager" }

func (h *HeartbeatManager) OnRegister(*component.Service) {
	h.startOnce.Do(func() { go h.run() })
}

// OnMessage refreshes conn's last-active stamp on every inbound chunk —
// any traffic counts as a heartbeat, matching update_active_time's callers
// in the original (invoked from the protocol router on each message).
func (h *HeartbeatManager) OnMessage(conn *netconn.Connection, _ []byte) {
	h.UpdateActiveTime(conn)
}

func (h *HeartbeatManager) OnDisconnect(conn *netconn.Connection) {
	h.Unregister(conn)
}

// Register starts tracking conn for idle timeout.
func (h *HeartbeatManager) Register(conn *netconn.Connection) {
	h.mu.Lock()
	h.lastSeen[conn] = mono.NanoTime()
	h.mu.Unlock()
}

// Unregister stops tracking conn.
func (h *HeartbeatManager) Unregister(conn *netconn.Connection) {
	h.mu.Lock()
	delete(h.lastSeen, conn)
	h.mu.Unlock()
}

// UpdateActiveTime stamps conn as having just produced traffic, registering
// it first if this is the first time it's been seen.
func (h *HeartbeatManager) UpdateActiveTime(conn *netconn.Connection) {
	h.mu.Lock()
	h.lastSeen[conn] = mono.NanoTime()
	h.mu.Unlock()
}

// Stop ends the background reaper goroutine.
func (h *HeartbeatManager) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *HeartbeatManager) run() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.reapIdle()
		}
	}
}

func (h *HeartbeatManager) reapIdle() {
	var stale []*netconn.Connection

	h.mu.Lock()
	for conn, last := range h.lastSeen {
		if mono.Since(last) > h.timeout {
			stale = append(stale, conn)
			delete(h.lastSeen, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range stale {
		h.reapedTotal.Add(1)
		nlog.Warningf("heartbeat: connection timeout detected, closing %s", conn.RemoteAddr())
		conn.Close()
	}
}

// ReapedTotal reports how many connections this manager has ever closed
// for idling past the timeout.
func (h *HeartbeatManager) ReapedTotal() int64 {
	return h.reapedTotal.Load()
}

// TrackedCount reports how many connections are currently registered —
// used by tests to observe reaping without racing on the stale slice.
func (h *HeartbeatManager) TrackedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.lastSeen)
}
