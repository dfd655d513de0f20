package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aquanode/aqua-engine/core/workflowengine"
)

const namespace = "aqua"

// EngineMetrics instruments workflow and block execution outcomes.
type EngineMetrics struct {
	runsTotal         *prometheus.CounterVec
	blocksTotal       *prometheus.CounterVec
	runDuration       prometheus.Histogram
	scheduledEnqueues prometheus.Counter
	uptime            prometheus.Counter
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	return &EngineMetrics{
		runsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_runs_total",
				Help:      "Workflow runs by final status",
			}, []string{"status"}),

		blocksTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "block_executions_total",
				Help:      "Block executions by block type and outcome",
			}, []string{"type", "status"}),

		runDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_run_duration_seconds",
				Help:      "End to end workflow run duration",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			}),

		scheduledEnqueues: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduled_enqueues_total",
				Help:      "Workflow runs enqueued by the cron scheduler",
			}),

		uptime: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uptime_milliseconds_total",
				Help:      "The elapse time in milliseconds since the process booted",
			}),
	}
}

// ObserveRun folds one execution summary into the counters.
func (m *EngineMetrics) ObserveRun(summary *workflowengine.ExecutionSummary) {
	if m == nil || summary == nil {
		return
	}

	m.runsTotal.WithLabelValues(summary.Status).Inc()
	m.runDuration.Observe(float64(summary.TotalExecutionTime) / 1000)

	for _, outcome := range summary.Results {
		m.blocksTotal.WithLabelValues(string(outcome.BlockType), outcome.Status).Inc()
	}
}

func (m *EngineMetrics) IncScheduledEnqueue() {
	if m == nil {
		return
	}
	m.scheduledEnqueues.Inc()
}

// StartUptimeCounter feeds the uptime counter until the process exits.
func (m *EngineMetrics) StartUptimeCounter(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			m.uptime.Add(float64(interval.Milliseconds()))
		}
	}()
}
