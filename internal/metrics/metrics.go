// Package metrics provides Prometheus metrics for pagedb
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for pagedb
type Metrics struct {
	// Transaction metrics
	Commits          prometheus.Counter
	Rollbacks        prometheus.Counter
	CommitDuration   prometheus.Histogram
	RollbackDuration prometheus.Histogram

	// Page I/O metrics
	NodeReads  prometheus.Counter
	NodeWrites prometheus.Counter

	// Rebalance metrics
	SplitsTotal  prometheus.Counter
	MergesTotal  prometheus.Counter
	RotatesTotal prometheus.Counter

	// Free list metrics
	FreeListSize prometheus.Gauge

	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	m.Commits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagedb_commits_total",
			Help: "Total number of committed write transactions",
		},
	)

	m.Rollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagedb_rollbacks_total",
			Help: "Total number of rolled back write transactions",
		},
	)

	m.CommitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagedb_commit_duration_seconds",
			Help:    "Duration of transaction commits in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	m.RollbackDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagedb_rollback_duration_seconds",
			Help:    "Duration of transaction rollbacks in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	m.NodeReads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagedb_node_reads_total",
			Help: "Total number of node pages read from disk",
		},
	)

	m.NodeWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagedb_node_writes_total",
			Help: "Total number of node pages written to disk",
		},
	)

	m.SplitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagedb_splits_total",
			Help: "Total number of node splits",
		},
	)

	m.MergesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagedb_merges_total",
			Help: "Total number of node merges",
		},
	)

	m.RotatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagedb_rotates_total",
			Help: "Total number of sibling rotations",
		},
	)

	m.FreeListSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagedb_free_list_size",
			Help: "Number of released pages available for reuse",
		},
	)

	m.ServerUptimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagedb_uptime_seconds",
			Help: "Process uptime in seconds",
		},
	)

	go m.updateUptime()

	return m
}

// updateUptime periodically updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
	}
}

// RecordCommit records a committed write transaction and its duration
func (m *Metrics) RecordCommit(duration time.Duration) {
	m.Commits.Inc()
	m.CommitDuration.Observe(duration.Seconds())
}

// RecordRollback records a rolled back write transaction and its duration
func (m *Metrics) RecordRollback(duration time.Duration) {
	m.Rollbacks.Inc()
	m.RollbackDuration.Observe(duration.Seconds())
}

var (
	globalMetrics *Metrics
	globalOnce    sync.Once
)

// Get returns the process-wide Metrics instance, registering its
// collectors on first use. Prometheus panics on duplicate registration,
// so every dal shares this single instance rather than each calling
// NewMetrics.
func Get() *Metrics {
	globalOnce.Do(func() {
		globalMetrics = NewMetrics()
	})
	return globalMetrics
}
