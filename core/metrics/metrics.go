// Package metrics holds the Prometheus collectors shared by the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts upstream fetches by outcome ("2xx", "4xx", "5xx", "error", "rejected").
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiopipe_upstream_requests_total",
		Help: "Upstream HTTP requests by outcome.",
	}, []string{"outcome"})

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "radiopipe_upstream_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
	}, []string{"name"})

	SchedulesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiopipe_schedules_total",
		Help: "Per-station daily schedules by outcome.",
	}, []string{"outcome"})

	ProgramsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radiopipe_programs_built_total",
		Help: "Program records built from schedule entries.",
	})

	// ProgramsSkipped counts dropped entries by reason ("missing_field", "parse_failure", "stale").
	ProgramsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiopipe_programs_skipped_total",
		Help: "Schedule entries dropped, by reason.",
	}, []string{"reason"})

	OnAirLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiopipe_onair_lookups_total",
		Help: "On-air track lookups by outcome.",
	}, []string{"outcome"})

	Matches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radiopipe_matches_total",
		Help: "Artist matches produced.",
	})

	SinkFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radiopipe_sink_failures_total",
		Help: "Matches a sink failed to accept.",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "radiopipe_cycle_duration_seconds",
		Help:    "Wall time of a full fetch cycle.",
		Buckets: prometheus.ExponentialBuckets(5, 2, 8),
	})

	LastCycleSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "radiopipe_last_cycle_success_timestamp_seconds",
		Help: "Unix time of the last cycle that completed.",
	})
)

// WriteTextfile dumps the default registry in the node_exporter textfile
// format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
