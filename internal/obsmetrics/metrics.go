// Package obsmetrics provides the Prometheus metrics surfaced at /metrics.
package obsmetrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the deconfliction service's Prometheus instruments.
type Metrics struct {
	MissionsRegistered  prometheus.Counter
	ChecksTotal         *prometheus.CounterVec // label: result=clear|conflict
	ConflictsBySeverity *prometheus.CounterVec // label: severity
	Stage1TimeSeconds   prometheus.Histogram
	Stage2TimeSeconds   prometheus.Histogram
	Stage3TimeSeconds   prometheus.Histogram
	CandidateReduction  prometheus.Gauge // last check's after_coarse / initial
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Get returns the process-wide Metrics instance, registering its
// collectors with the default registry on first use.
func Get() *Metrics {
	globalOnce.Do(func() {
		global = newMetrics()
	})
	return global
}

func newMetrics() *Metrics {
	return &Metrics{
		MissionsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "deconflict_missions_registered_total",
			Help: "Total missions registered into the airspace registry.",
		}),
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "deconflict_checks_total",
			Help: "Total pipeline checks, labeled by outcome.",
		}, []string{"result"}),
		ConflictsBySeverity: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "deconflict_conflicts_total",
			Help: "Total assessed conflicts, labeled by severity.",
		}, []string{"severity"}),
		Stage1TimeSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "deconflict_stage1_seconds",
			Help:    "Stage 1 (multi-tier filter) wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}),
		Stage2TimeSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "deconflict_stage2_seconds",
			Help:    "Stage 2 (occupancy grid) wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}),
		Stage3TimeSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "deconflict_stage3_seconds",
			Help:    "Stage 3 (risk scoring) wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}),
		CandidateReduction: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "deconflict_stage1_candidate_ratio",
			Help: "Fraction of the registry surviving Stage 1 on the last check.",
		}),
	}
}

// ObserveCheck records a completed pipeline check's timing and outcome.
func (m *Metrics) ObserveCheck(isClear bool, stage1, stage2, stage3 float64, initial, survived int) {
	result := "clear"
	if !isClear {
		result = "conflict"
	}
	m.ChecksTotal.WithLabelValues(result).Inc()
	m.Stage1TimeSeconds.Observe(stage1)
	m.Stage2TimeSeconds.Observe(stage2)
	m.Stage3TimeSeconds.Observe(stage3)
	if initial > 0 {
		m.CandidateReduction.Set(float64(survived) / float64(initial))
	} else {
		m.CandidateReduction.Set(0)
	}
}
