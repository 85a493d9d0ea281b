package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// PTY metrics
	PtySessionsActive prometheus.Gauge
	PtySessionsTotal  *prometheus.CounterVec
	PtyBytesRead      prometheus.Counter
	PtyBytesWritten   prometheus.Counter
	PtyExits          *prometheus.CounterVec

	// Workspace metrics
	WorkspaceOps      *prometheus.CounterVec
	WorkspaceDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSEvents      *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the JSON health endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveSessions    int64   `json:"active_sessions"`
	ActiveConnections int64   `json:"active_connections"`
	DroppedEvents     int64   `json:"dropped_events"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lovcode_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lovcode_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		PtySessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lovcode_pty_sessions_active",
				Help: "Number of live PTY sessions",
			},
		),
		PtySessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lovcode_pty_sessions_total",
				Help: "Total number of PTY session spawn attempts",
			},
			[]string{"status"},
		),
		PtyBytesRead: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lovcode_pty_bytes_read_total",
				Help: "Bytes read from PTY masters",
			},
		),
		PtyBytesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lovcode_pty_bytes_written_total",
				Help: "Bytes written to PTY masters",
			},
		),
		PtyExits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lovcode_pty_exits_total",
				Help: "PTY session terminations by cause",
			},
			[]string{"cause"},
		),

		WorkspaceOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lovcode_workspace_operations_total",
				Help: "Workspace store operations",
			},
			[]string{"operation", "status"},
		),
		WorkspaceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lovcode_workspace_operation_duration_seconds",
				Help:    "Workspace load-mutate-save duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lovcode_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lovcode_ws_events_total",
				Help: "Events pushed to WebSocket clients",
			},
			[]string{"event", "status"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "lovcode_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus exposition handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordPtySpawn records a spawn attempt
func (m *Metrics) RecordPtySpawn(status string) {
	if m == nil {
		return
	}
	m.PtySessionsTotal.WithLabelValues(status).Inc()
}

// SetPtySessionsActive sets the number of live PTY sessions
func (m *Metrics) SetPtySessionsActive(count int) {
	if m == nil {
		return
	}
	m.PtySessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// AddPtyBytesRead adds to the bytes-read counter
func (m *Metrics) AddPtyBytesRead(n int) {
	if m == nil {
		return
	}
	m.PtyBytesRead.Add(float64(n))
}

// AddPtyBytesWritten adds to the bytes-written counter
func (m *Metrics) AddPtyBytesWritten(n int) {
	if m == nil {
		return
	}
	m.PtyBytesWritten.Add(float64(n))
}

// RecordPtyExit records why a session ended ("eof", "error", "killed")
func (m *Metrics) RecordPtyExit(cause string) {
	if m == nil {
		return
	}
	m.PtyExits.WithLabelValues(cause).Inc()
}

// RecordWorkspaceOp records a workspace store operation
func (m *Metrics) RecordWorkspaceOp(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.WorkspaceOps.WithLabelValues(operation, status).Inc()
	m.WorkspaceDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// RecordWSEvent records an event delivered to (or dropped for) a client
func (m *Metrics) RecordWSEvent(event, status string) {
	if m == nil {
		return
	}
	m.WSEvents.WithLabelValues(event, status).Inc()
	if status == "dropped" {
		m.mu.Lock()
		m.snapshot.DroppedEvents++
		m.mu.Unlock()
	}
}

// Snapshot returns a copy of the current values
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
