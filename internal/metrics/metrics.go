// Package metrics collects per-run counters of the refresh job and pushes them
// to a Prometheus Pushgateway. A nil *Recorder is valid and records nothing.
package metrics

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Job is the Pushgateway job name.
const Job = "tvlistings_refresh"

// Recorder holds the collectors of one run in a private registry.
type Recorder struct {
	registry *prometheus.Registry

	fetches       *prometheus.CounterVec
	rows          *prometheus.CounterVec
	stageDuration *prometheus.GaugeVec
	stageFailures *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

// New registers the run collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tvlistings_fetches_total",
				Help: "Page fetches by pipeline stage and outcome (ok, skipped).",
			},
			[]string{"stage", "outcome"},
		),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tvlistings_rows_total",
				Help: "Rows written by table and operation.",
			},
			[]string{"table", "op"},
		),
		stageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tvlistings_stage_duration_seconds",
				Help: "Wall time of the last run of each pipeline stage.",
			},
			[]string{"stage"},
		),
		stageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tvlistings_stage_failures_total",
				Help: "Stages rolled back because of an error.",
			},
			[]string{"stage"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tvlistings_last_success_timestamp_seconds",
				Help: "Unix time of the last run that completed every stage.",
			},
		),
	}
	r.registry.MustRegister(r.fetches, r.rows, r.stageDuration, r.stageFailures, r.lastSuccess)
	return r
}

// Fetch counts one page fetch of stage.
func (r *Recorder) Fetch(stage string, ok bool) {
	if r == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "skipped"
	}
	r.fetches.WithLabelValues(stage, outcome).Inc()
}

// Rows adds n rows written to table by op (insert, update, delete).
func (r *Recorder) Rows(table, op string, n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.rows.WithLabelValues(table, op).Add(float64(n))
}

// Stage records how long stage took and whether it failed.
func (r *Recorder) Stage(stage string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
	if err != nil {
		r.stageFailures.WithLabelValues(stage).Inc()
	}
}

// Succeeded marks the run as fully completed at t.
func (r *Recorder) Succeeded(t time.Time) {
	if r == nil {
		return
	}
	r.lastSuccess.Set(float64(t.Unix()))
}

// Gatherer exposes the run registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Push sends the run metrics to the Pushgateway at url, replacing the previous
// push of this job and instance.
func (r *Recorder) Push(ctx context.Context, url, instance string) error {
	if r == nil || url == "" {
		return nil
	}
	err := push.New(url, Job).
		Gatherer(r.registry).
		Grouping("instance", instance).
		PushContext(ctx)
	return errors.Wrap(err, "push metrics")
}
