package generation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidabot_generation_jobs_total",
			Help: "Total number of generation jobs by strategy and terminal outcome",
		},
		[]string{"strategy", "outcome"},
	)

	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidabot_generation_polls_total",
			Help: "Total number of operation polls by result",
		},
		[]string{"result"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidabot_generation_fallbacks_total",
			Help: "Total number of strategy switches",
		},
		[]string{"from", "to"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidabot_generation_job_duration_seconds",
			Help:    "Duration of generation jobs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"strategy"},
	)

	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidabot_generation_jobs_active",
			Help: "Number of generation workflows currently running",
		},
	)
)
