package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// View lifecycle metrics
	ViewsActive  prometheus.Gauge
	ViewsCreated prometheus.Counter
	ViewSwitches prometheus.Counter

	// State restoration metrics
	RestoreOutcomes *prometheus.CounterVec
	StatesCaptured  prometheus.Counter

	// Blocker metrics
	RequestsBlocked    prometheus.Counter
	BlocklistRules     prometheus.Gauge
	BlocklistRefreshes *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
	ActiveViews     int64   `json:"active_views"`
	ViewsCreated    int64   `json:"views_created"`
	RequestsBlocked int64   `json:"requests_blocked"`
	BlocklistRules  int64   `json:"blocklist_rules"`
	Connections     int64   `json:"connections"`
	UptimeSeconds   float64 `json:"uptime_seconds"`

	totalDuration float64
	requestCount  int64
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowscape_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowscape_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ViewsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "flowscape_views_active",
				Help: "Number of live rendering surfaces",
			},
		),
		ViewsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "flowscape_views_created_total",
				Help: "Total number of views created",
			},
		),
		ViewSwitches: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "flowscape_view_switches_total",
				Help: "Total number of view activations",
			},
		),

		RestoreOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowscape_restore_outcomes_total",
				Help: "State restorations by method and success",
			},
			[]string{"method", "success"},
		),
		StatesCaptured: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "flowscape_states_captured_total",
				Help: "Total number of page states captured",
			},
		),

		RequestsBlocked: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "flowscape_requests_blocked_total",
				Help: "Network requests denied by the blocker",
			},
		),
		BlocklistRules: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "flowscape_blocklist_rules",
				Help: "Number of domains in the blocklist",
			},
		),
		BlocklistRefreshes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowscape_blocklist_refreshes_total",
				Help: "Remote blocklist refresh attempts by status",
			},
			[]string{"status"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "flowscape_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowscape_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "flowscape_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	m.snapshot.requestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordRestore records one state restoration outcome
func (m *Metrics) RecordRestore(method string, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	m.RestoreOutcomes.WithLabelValues(method, label).Inc()
}

// IncStatesCaptured increments the captured-states counter
func (m *Metrics) IncStatesCaptured() {
	m.StatesCaptured.Inc()
}

// SetViewsActive sets the number of live views
func (m *Metrics) SetViewsActive(count int) {
	m.ViewsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveViews = int64(count)
	m.mu.Unlock()
}

// IncViewsCreated increments the views-created counter
func (m *Metrics) IncViewsCreated() {
	m.ViewsCreated.Inc()
	m.mu.Lock()
	m.snapshot.ViewsCreated++
	m.mu.Unlock()
}

// IncViewSwitches increments the view-activation counter
func (m *Metrics) IncViewSwitches() {
	m.ViewSwitches.Inc()
}

// SetRequestsBlocked sets the blocked-request total reported by the blocker
func (m *Metrics) SetRequestsBlocked(count uint64) {
	m.mu.Lock()
	delta := int64(count) - m.snapshot.RequestsBlocked
	m.snapshot.RequestsBlocked = int64(count)
	m.mu.Unlock()
	if delta > 0 {
		m.RequestsBlocked.Add(float64(delta))
	}
}

// SetBlocklistRules sets the blocklist size gauge
func (m *Metrics) SetBlocklistRules(count int) {
	m.BlocklistRules.Set(float64(count))
	m.mu.Lock()
	m.snapshot.BlocklistRules = int64(count)
	m.mu.Unlock()
}

// RecordBlocklistRefresh records one refresh attempt
func (m *Metrics) RecordBlocklistRefresh(status string) {
	m.BlocklistRefreshes.WithLabelValues(status).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.Connections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.Connections--
	m.mu.Unlock()
}
