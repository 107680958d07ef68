// Package metrics exposes the autoscaler's own operational counters. The
// registry is constructed explicitly and passed by reference so tests can
// run independent instances.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	CollectionsTotal  *prometheus.CounterVec
	CollectionErrors  *prometheus.CounterVec
	PredictionsTotal  *prometheus.CounterVec
	PredictedReplicas *prometheus.GaugeVec
	Confidence        *prometheus.GaugeVec
	PatternsDetected  *prometheus.GaugeVec
	CycleDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CollectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoscaler_collections_total",
			Help: "Metric collection attempts per service.",
		}, []string{"service"}),
		CollectionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoscaler_collection_errors_total",
			Help: "Metric collections that degraded to zero values.",
		}, []string{"service"}),
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autoscaler_predictions_total",
			Help: "Prediction cycles per service.",
		}, []string{"service"}),
		PredictedReplicas: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "autoscaler_predicted_replicas",
			Help: "Most recent predicted replica count.",
		}, []string{"service"}),
		Confidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "autoscaler_prediction_confidence",
			Help: "Most recent prediction confidence.",
		}, []string{"service"}),
		PatternsDetected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "autoscaler_patterns_detected",
			Help: "Patterns detected in the most recent cycle.",
		}, []string{"service", "pattern"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "autoscaler_cycle_duration_seconds",
			Help:    "Wall time of one full prediction cycle.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
	}

	m.registry.MustRegister(
		m.CollectionsTotal,
		m.CollectionErrors,
		m.PredictionsTotal,
		m.PredictedReplicas,
		m.Confidence,
		m.PatternsDetected,
		m.CycleDuration,
	)

	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
