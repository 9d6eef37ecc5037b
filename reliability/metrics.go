package reliability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chwellgo/netcore/component"
	"github.com/chwellgo/netcore/netconn"
)

// Metrics is the Prometheus instrumentation surface for a running Service:
// request throughput, active-connection gauge, and per-request latency.
// Ported from the ambient observability the original hangs off
// core::Logger calls — here expressed the idiomatic Go way, as counters
// and histograms registered against a prometheus.Registry.
type Metrics struct {
	Requests prometheus.Counter
	Online   prometheus.Gauge
	Latency  prometheus.Histogram
}

// NewMetrics creates and registers a Metrics set under reg. namespace
// typically identifies the running node (e.g. "gateway", "backend").
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of inbound chunks received across all connections.",
		}),
		Online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_online",
			Help:      "Number of currently active connections.",
		}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "Handler processing latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.Requests, m.Online, m.Latency)
	return m
}

// Observe records one handled request's latency and bumps the counter.
func (m *Metrics) Observe(start time.Time) {
	m.Requests.Inc()
	m.Latency.Observe(time.Since(start).Seconds())
}

// MetricsComponent counts inbound chunks and tracks the online-connection
// gauge. Registered first in the chain (ahead of the Router) so its
// counts reflect every dispatched chunk, not just recognized commands.
// The component interface has no per-accept hook (spec.md §4.D), so
// "online" is tracked from first-chunk-seen to disconnect rather than
// from accept to disconnect — an undercount only for connections that
// disconnect before ever sending a byte.
type MetricsComponent struct {
	m *Metrics

	mu   sync.Mutex
	seen map[*netconn.Connection]struct{}
}

func NewMetricsComponent(m *Metrics) *MetricsComponent {
	return &MetricsComponent{m: m, seen: make(map[*netconn.Connection]struct{})}
}

func (c *MetricsComponent) Name() string { return "Metrics" }

func (c *MetricsComponent) OnRegister(*component.Service) {}

func (c *MetricsComponent) OnMessage(conn *netconn.Connection, _ []byte) {
	c.m.Requests.Inc()

	c.mu.Lock()
	_, ok := c.seen[conn]
	if !ok {
		c.seen[conn] = struct{}{}
	}
	c.mu.Unlock()
	if !ok {
		c.m.Online.Inc()
	}
}

func (c *MetricsComponent) OnDisconnect(conn *netconn.Connection) {
	c.mu.Lock()
	_, ok := c.seen[conn]
	if ok {
		delete(c.seen, conn)
	}
	c.mu.Unlock()
	if ok {
		c.m.Online.Dec()
	}
}
