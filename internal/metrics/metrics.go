// Package metrics provides Prometheus metrics for the poverty prediction
// dashboard: World Bank indicator fetches, model predictions and the HTTP
// surface. Metrics are exposed on the dashboard's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	// Indicator fetch metrics
	IndicatorRequests *prometheus.CounterVec // Indicator requests by indicator code
	IndicatorMisses   *prometheus.CounterVec // Indicators recorded as absent, by code
	FetchLatency      prometheus.Histogram   // Duration of a full four-indicator fetch

	// Pipeline metrics
	LiveRequests       prometheus.Counter // Live predictions requested
	IncompleteRequests prometheus.Counter // Live requests abandoned for missing data
	ScenarioRequests   prometheus.Counter // Manual scenario predictions requested

	// ML metrics
	MLPredictions *prometheus.CounterVec // Predictions by model
	MLFailures    *prometheus.CounterVec // Prediction failures by model
	MLLatency     prometheus.Histogram   // Single model inference latency

	// System metrics
	HTTPErrors *prometheus.CounterVec // Error responses by status code
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics on a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		IndicatorRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "indicator_requests_total",
			Help: "Total number of World Bank indicator requests",
		}, []string{"indicator"}),
		IndicatorMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "indicator_misses_total",
			Help: "Total number of indicators recorded as absent",
		}, []string{"indicator"}),
		FetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "indicator_fetch_duration_seconds",
			Help:    "Duration of fetching all indicators for one country and year",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}),
		LiveRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "live_requests_total",
			Help: "Total number of live data prediction requests",
		}),
		IncompleteRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "incomplete_requests_total",
			Help: "Total number of live requests abandoned because indicators were missing",
		}),
		ScenarioRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "scenario_requests_total",
			Help: "Total number of manual scenario prediction requests",
		}),
		MLPredictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of model predictions made",
		}, []string{"model"}),
		MLFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ml_failures_total",
			Help: "Total number of model prediction failures",
		}, []string{"model"}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_latency_seconds",
			Help:    "Model inference latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
		}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP error responses",
		}, []string{"code"}),
	}
}
