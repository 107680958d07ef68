package events

import (
	"fmt"

	"github.com/infralytics/inference-autoscaler/pkg/models"
)

// Publisher is a typed front-end over the event bus for pipeline stages.
type Publisher struct {
	bus *EventBus
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) MetricCollected(serviceName string, metrics *models.InferenceMetrics) {
	p.bus.Publish(models.NewEvent(models.EventTypeMetricCollected, serviceName, "Metrics collected").
		WithData(metrics))
}

func (p *Publisher) PatternsDetected(serviceName string, patterns []models.HistoricalPattern) {
	msg := fmt.Sprintf("Detected %d patterns", len(patterns))
	event := models.NewEvent(models.EventTypePatternsDetected, serviceName, msg).
		WithData(patterns)

	if models.HasPattern(patterns, models.PatternAnomalyDetected) {
		event.WithSeverity(models.SeverityWarning)
	}

	p.bus.Publish(event)
}

func (p *Publisher) ForecastReady(serviceName string, forecasts []models.WorkloadForecast) {
	msg := fmt.Sprintf("Forecast ready (%d buckets)", len(forecasts))
	p.bus.Publish(models.NewEvent(models.EventTypeForecastReady, serviceName, msg).
		WithData(forecasts))
}

func (p *Publisher) PredictionMade(serviceName string, prediction *models.PredictionResult) {
	msg := fmt.Sprintf("Prediction: %d -> %d replicas", prediction.CurrentReplicas, prediction.PredictedReplicas)
	p.bus.Publish(models.NewEvent(models.EventTypePredictionMade, serviceName, msg).
		WithData(prediction))
}

func (p *Publisher) ScalingRecommended(serviceName string, rec *models.ScalingRecommendation) {
	msg := "Scaling recommended: " + string(rec.Action)
	event := models.NewEvent(models.EventTypeScalingRecommended, serviceName, msg).
		WithData(rec)

	if rec.Action == models.ActionScaleUp {
		event.WithSeverity(models.SeverityWarning)
	}

	p.bus.Publish(event)
}

func (p *Publisher) Alert(serviceName string, severity models.EventSeverity, message string, data interface{}) {
	p.bus.Publish(models.NewEvent(models.EventTypeAlert, serviceName, message).
		WithSeverity(severity).
		WithData(data))
}

func (p *Publisher) Error(serviceName, message string, err error) {
	p.bus.Publish(models.NewEvent(models.EventTypeError, serviceName, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{"error": err.Error()}))
}
