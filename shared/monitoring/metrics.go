package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels are limited to outcome, stage and source; media ids never become labels.
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_assistant_requests_total",
		Help: "Total number of pipeline runs, by outcome.",
	}, []string{"outcome"})

	StageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_assistant_stage_failures_total",
		Help: "Total number of aborted pipeline runs, by failing stage.",
	}, []string{"stage"})

	MetadataDegradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_assistant_metadata_degraded_total",
		Help: "Total number of runs that continued with degraded metadata, by source.",
	}, []string{"source"})

	ProcessingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcript_assistant_processing_seconds",
		Help:    "Wall-clock duration of successful pipeline runs.",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	ModelConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcript_assistant_model_connected",
		Help: "1 if the last language-model probe succeeded, 0 otherwise.",
	})
)
