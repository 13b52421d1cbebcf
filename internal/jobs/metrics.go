// Package jobmetrics exposes Prometheus instrumentation for background jobs.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records background job outcomes.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	reaped   *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics builds job metrics registered against the given registerer.
// Passing nil uses the default registerer, which is created at most once
// so repeated callers share the same collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(reg)
}

func buildMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kateringpro_jobs_total",
			Help: "Background job runs by task and status.",
		}, []string{"task", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kateringpro_jobs_failures_total",
			Help: "Background job failures by task.",
		}, []string{"task"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kateringpro_job_duration_seconds",
			Help:    "Background job duration by task.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
		reaped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kateringpro_job_reaped_total",
			Help: "Records reaped by cleanup jobs, by task and kind.",
		}, []string{"task", "kind"}),
	}
	reg.MustRegister(m.runs, m.failures, m.duration, m.reaped)
	return m
}

// Track starts a tracker for a single job run.
func (m *Metrics) Track(task string) *Tracker {
	return &Tracker{metrics: m, task: task, started: time.Now()}
}

// AddReaped counts records removed by a cleanup run, e.g. expired
// invoices or stale idempotency keys.
func (m *Metrics) AddReaped(task, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reaped.WithLabelValues(task, kind).Add(float64(n))
}

// Tracker measures one job execution.
type Tracker struct {
	metrics *Metrics
	task    string
	started time.Time
}

// End records the run outcome and returns err unchanged so callers can
// defer it around their result error.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	status := "ok"
	if err != nil {
		status = "error"
		t.metrics.failures.WithLabelValues(t.task).Inc()
	}
	t.metrics.runs.WithLabelValues(t.task, status).Inc()
	t.metrics.duration.WithLabelValues(t.task).Observe(time.Since(t.started).Seconds())
	return err
}
