package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the status sync engine.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	// Cycle metrics
	Cycles        *prometheus.CounterVec
	CycleDuration prometheus.Histogram

	// Server metrics
	ServerOnline  prometheus.Gauge
	PlayersOnline prometheus.Gauge
	ProbeLatency  prometheus.Gauge

	// Probe metrics
	ProbeAttempts *prometheus.CounterVec

	// Reconciler metrics
	ReconcileOutcomes *prometheus.CounterVec

	// Storage metrics
	PresenceStoreErrors *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcstatus_cycles_total",
			Help: "Total number of status sync cycles by result",
		}, []string{"result"}), // result: "synced", "unsynced", "skipped"

		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mcstatus_cycle_duration_seconds",
			Help:    "Status sync cycle duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),

		ServerOnline: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mcstatus_server_online",
			Help: "1 if the last observation reported the server online",
		}),

		PlayersOnline: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mcstatus_players_online",
			Help: "Players online in the last observation",
		}),

		ProbeLatency: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mcstatus_probe_latency_milliseconds",
			Help: "Latency measured by the last successful probe (-1 when unknown)",
		}),

		ProbeAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcstatus_probe_attempts_total",
			Help: "Probe attempts by strategy and result",
		}, []string{"strategy", "result"}),

		ReconcileOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcstatus_reconcile_outcomes_total",
			Help: "Display reconcile outcomes by resolving step",
		}, []string{"step", "result"}),

		PresenceStoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcstatus_presence_store_errors_total",
			Help: "Presence store failures by operation",
		}, []string{"operation"}), // operation: "upsert", "query"
	}
}

// RecordProbeAttempt records one probe strategy attempt
func (m *Metrics) RecordProbeAttempt(strategy string, ok bool, latency time.Duration) {
	if m == nil {
		return
	}
	m.ProbeAttempts.WithLabelValues(strategy, resultLabel(ok)).Inc()
}

// RecordObservation updates the server gauges from a poll result
func (m *Metrics) RecordObservation(online bool, players int, latencyMs *int64) {
	if m == nil {
		return
	}
	if online {
		m.ServerOnline.Set(1)
	} else {
		m.ServerOnline.Set(0)
	}
	m.PlayersOnline.Set(float64(players))
	if latencyMs != nil {
		m.ProbeLatency.Set(float64(*latencyMs))
	} else {
		m.ProbeLatency.Set(-1)
	}
}

// RecordCycle records a finished (or skipped) cycle
func (m *Metrics) RecordCycle(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(result).Inc()
	if duration > 0 {
		m.CycleDuration.Observe(duration.Seconds())
	}
}

// RecordReconcile records which step resolved the display message
func (m *Metrics) RecordReconcile(step string, ok bool) {
	if m == nil {
		return
	}
	m.ReconcileOutcomes.WithLabelValues(step, resultLabel(ok)).Inc()
}

// RecordStoreError records a presence store failure
func (m *Metrics) RecordStoreError(operation string) {
	if m == nil {
		return
	}
	m.PresenceStoreErrors.WithLabelValues(operation).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
