// Package metrics exposes Prometheus collectors for pipeline activity. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dagflow"

// Metrics groups the collectors updated by pipelines and workers.
type Metrics struct {
	TaskRuns     *prometheus.CounterVec
	TaskDuration prometheus.Histogram
	Compositions *prometheus.CounterVec
	QueueDepth   prometheus.Gauge
}

// New creates the collectors and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TaskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_runs_total",
			Help:      "Task executions by final status.",
		}, []string{"status"}),
		TaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall time spent in task functions.",
			Buckets:   prometheus.DefBuckets,
		}),
		Compositions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_compose_total",
			Help:      "Pipeline compositions by result.",
		}, []string{"result"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Tasks waiting in the work queue of the running pipeline.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.TaskRuns, m.TaskDuration, m.Compositions, m.QueueDepth)
	}
	return m
}

// ObserveTask records one finished task run.
func (m *Metrics) ObserveTask(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.TaskRuns.WithLabelValues(status).Inc()
	m.TaskDuration.Observe(d.Seconds())
}

// ObserveCompose records the outcome of one composition.
func (m *Metrics) ObserveCompose(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Compositions.WithLabelValues(result).Inc()
}

// SetQueueDepth records the number of waiting tasks.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}
