// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rainparade"

// Outcome labels of AnalysesTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
)

// Metrics holds the Prometheus counters, histograms, and gauges of the analysis pipeline.
type Metrics struct {
	AnalysesTotal      *prometheus.CounterVec   // labels: outcome={success,fallback}
	StaleResponses     prometheus.Counter
	PredictionDuration *prometheus.HistogramVec // labels: source
	InFlight           prometheus.Gauge
	SelectionEvents    *prometheus.CounterVec // labels: reason={changed,explicit}
	OutputsRendered    prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Installed analysis results by outcome.",
		}, []string{"outcome"}),
		StaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Prediction responses discarded because a newer request was issued.",
		}),
		PredictionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Duration of prediction requests in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analyses_in_flight",
			Help:      "Number of prediction requests currently in flight.",
		}),
		SelectionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_events_total",
			Help:      "Selection trigger events consumed by reason.",
		}, []string{"reason"}),
		OutputsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_rendered_total",
			Help:      "Status bar outputs written.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AnalysesTotal,
		m.StaleResponses,
		m.PredictionDuration,
		m.InFlight,
		m.SelectionEvents,
		m.OutputsRendered,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so tests can create as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
