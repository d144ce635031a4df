// Package jobmetrics counts background job runs for the worker's /metrics.
package jobmetrics

import (
	"context"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Metrics holds the job collectors. A nil *Metrics records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on registerer, or once on the default
// registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	defaultOnce.Do(func() {
		defaultMetrics = register(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quotedesk_job_runs_total",
			Help: "Job runs by task type and outcome.",
		}, []string{"job", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quotedesk_job_retries_total",
			Help: "Job runs that were asynq retries of an earlier failure.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quotedesk_job_run_seconds",
			Help:    "Wall time of job runs, including SMTP round trips.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
	}
	registerer.MustRegister(m.runs, m.retries, m.duration)
	return m
}

// Run instruments one execution of a job.
type Run struct {
	metrics *Metrics
	job     string
	start   time.Time
	skipped bool
}

// Track starts a run. Retries are detected from the asynq handler context.
func (m *Metrics) Track(ctx context.Context, job string) *Run {
	if m != nil {
		if n, ok := asynq.GetRetryCount(ctx); ok && n > 0 {
			m.retries.WithLabelValues(job).Inc()
		}
	}
	return &Run{metrics: m, job: job, start: time.Now()}
}

// Skip marks a run that had nothing to do. A later error still wins.
func (r *Run) Skip() {
	if r != nil {
		r.skipped = true
	}
}

// End records the outcome and returns err unchanged.
func (r *Run) End(err error) error {
	if r == nil || r.metrics == nil {
		return err
	}
	outcome := OutcomeSucceeded
	switch {
	case err != nil:
		outcome = OutcomeFailed
	case r.skipped:
		outcome = OutcomeSkipped
	}
	r.metrics.runs.WithLabelValues(r.job, outcome).Inc()
	r.metrics.duration.WithLabelValues(r.job).Observe(time.Since(r.start).Seconds())
	return err
}
