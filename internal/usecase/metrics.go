package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the evaluation loop. Scraped from /metrics on the
// dashboard server.

var cycleDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "crashrisk",
		Subsystem: "engine",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of one full evaluation cycle",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	},
)

var cyclesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "crashrisk",
		Subsystem: "engine",
		Name:      "cycles_total",
		Help:      "Evaluation cycles by result",
	},
	[]string{"result"}, // ok, cancelled, error
)

var fetchErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "crashrisk",
		Subsystem: "engine",
		Name:      "fetch_errors_total",
		Help:      "Upstream fetch failures by source",
	},
	[]string{"source"},
)

var coinsPerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "crashrisk",
		Subsystem: "engine",
		Name:      "coins_per_state",
		Help:      "Number of tracked coins currently in each risk state",
	},
	[]string{"state"},
)
