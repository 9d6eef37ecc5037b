package component

import (
	"net"
	"sync"

	"github.com/chwellgo/netcore/cmn/nlog"
	"github.com/chwellgo/netcore/ioruntime"
	"github.com/chwellgo/netcore/netconn"
)

// Service owns the acceptor, the IO runtime work queue, the worker pool, and
// the ordered component vector. Constructed with (listen_port,
// worker_count); Start begins accepting, Stop is idempotent and safe from
// any goroutine.
type Service struct {
	listenPort  int
	workerCount int

	acceptor *ioruntime.Acceptor
	queue    *ioruntime.WorkQueue
	pool     *ioruntime.Pool

	compMu     sync.RWMutex
	components []Component

	activeMu sync.Mutex
	active   map[*netconn.Connection]struct{}

	stopOnce sync.Once
	stopped  chan struct{}
}

// New constructs a Service bound to listenPort with workerCount workers.
// Call Start to begin accepting connections.
func New(listenPort, workerCount int) *Service {
	return &Service{
		listenPort:  listenPort,
		workerCount: workerCount,
		queue:       ioruntime.NewWorkQueue(),
		active:      make(map[*netconn.Connection]struct{}),
		stopped:     make(chan struct{}),
	}
}

// AddComponent appends c to the registry in registration order and calls
// c.OnRegister(svc) before returning. Registration is expected at startup,
// before Start is called — spec.md §4.E.
func AddComponent[T Component](svc *Service, c T) T {
	svc.compMu.Lock()
	svc.components = append(svc.components, c)
	svc.compMu.Unlock()
	c.OnRegister(svc)
	nlog.Infof("component registered: %s", c.Name())
	return c
}

// GetComponent returns the first registered component assignable to T, or
// the zero value and false if none is registered. This is the typed
// replacement for chwell's dynamic_cast-based get_component<T>().
func GetComponent[T Component](svc *Service) (T, bool) {
	svc.compMu.RLock()
	defer svc.compMu.RUnlock()
	for _, c := range svc.components {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// Start binds the listening socket and begins accepting connections. The
// accept loop runs on its own goroutine; each accepted connection's read
// loop is handed to the worker pool via the IO runtime queue, so the accept
// goroutine never blocks in user code.
func (svc *Service) Start() error {
	acceptor, err := ioruntime.NewAcceptor(svc.listenPort)
	if err != nil {
		nlog.Errorf("service: failed to bind :%d: %v", svc.listenPort, err)
		return err
	}
	svc.acceptor = acceptor
	svc.pool = ioruntime.NewPool(svc.queue, svc.workerCount)

	go svc.acceptLoop()

	nlog.Infof("service started on %s", acceptor.Addr())
	return nil
}

func (svc *Service) acceptLoop() {
	for {
		select {
		case <-svc.stopped:
			return
		default:
		}
		conn, err := svc.acceptor.Accept()
		if err != nil {
			return // acceptor stopped
		}
		if conn == nil {
			continue // poll-timeout tick, re-check stop
		}
		svc.onAccept(conn)
	}
}

// onAccept wires up one newly-accepted socket: register it in the active
// set, fire the (logging-only) connection callback, then hand its read loop
// to the worker pool. No component receives a per-accept hook — spec.md
// §4.D: "No components receive a per-accept hook."
func (svc *Service) onAccept(raw net.Conn) {
	c := netconn.New(raw)
	c.OnMessage(svc.dispatchMessage)
	c.OnClose(svc.dispatchDisconnect)

	svc.activeMu.Lock()
	svc.active[c] = struct{}{}
	svc.activeMu.Unlock()

	nlog.Infof("service: new connection from %s", raw.RemoteAddr())

	svc.queue.Post(c.Start)
}

// dispatchMessage fans an inbound chunk out to every component in
// registration order, synchronously on the goroutine that drove the read.
func (svc *Service) dispatchMessage(conn *netconn.Connection, chunk []byte) {
	svc.compMu.RLock()
	comps := svc.components
	svc.compMu.RUnlock()
	for _, c := range comps {
		c.OnMessage(conn, chunk)
	}
}

// dispatchDisconnect fans the disconnect event out to every component in
// registration order, then drops the Service's own strong reference.
func (svc *Service) dispatchDisconnect(conn *netconn.Connection) {
	svc.compMu.RLock()
	comps := svc.components
	svc.compMu.RUnlock()
	for _, c := range comps {
		c.OnDisconnect(conn)
	}

	svc.activeMu.Lock()
	delete(svc.active, conn)
	svc.activeMu.Unlock()
}

// Stop is idempotent and safe to call from any goroutine, including a
// deferred call guarding process shutdown.
func (svc *Service) Stop() {
	svc.stopOnce.Do(func() {
		close(svc.stopped)
		if svc.acceptor != nil {
			svc.acceptor.Stop()
		}

		svc.activeMu.Lock()
		for conn := range svc.active {
			conn.Close()
		}
		svc.activeMu.Unlock()

		svc.queue.Stop()
		if svc.pool != nil {
			svc.pool.Wait()
		}
		nlog.Infof("service stopped")
	})
}

// Addr returns the bound listening address, or nil if Start hasn't
// succeeded yet.
func (svc *Service) Addr() net.Addr {
	if svc.acceptor == nil {
		return nil
	}
	return svc.acceptor.Addr()
}

// ActiveConnections returns the number of connections currently tracked in
// the Service's active set (diagnostic use only).
func (svc *Service) ActiveConnections() int {
	svc.activeMu.Lock()
	defer svc.activeMu.Unlock()
	return len(svc.active)
}

// Post schedules task on the IO runtime's work queue. Components use this to
// hand a newly-established outbound connection's read loop to the same
// worker pool that drives inbound connections (e.g. the gateway forwarder's
// backend sockets), per spec.md §4.G.
func (svc *Service) Post(task func()) {
	svc.queue.Post(task)
}

// Track adopts conn into the Service's active set so Stop() closes it along
// with every accepted connection.
func (svc *Service) Track(conn *netconn.Connection) {
	svc.activeMu.Lock()
	svc.active[conn] = struct{}{}
	svc.activeMu.Unlock()
}

// Untrack removes conn from the Service's active set.
func (svc *Service) Untrack(conn *netconn.Connection) {
	svc.activeMu.Lock()
	delete(svc.active, conn)
	svc.activeMu.Unlock()
}
