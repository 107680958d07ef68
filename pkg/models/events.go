package models

import "time"

type EventType string

const (
	EventTypeMetricCollected    EventType = "metric_collected"
	EventTypePatternsDetected   EventType = "patterns_detected"
	EventTypeForecastReady      EventType = "forecast_ready"
	EventTypePredictionMade     EventType = "prediction_made"
	EventTypeScalingRecommended EventType = "scaling_recommended"
	EventTypeAlert              EventType = "alert"
	EventTypeError              EventType = "error"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event represents an internal system event
type Event struct {
	ID          string        `json:"id"`
	Type        EventType     `json:"type"`
	Severity    EventSeverity `json:"severity"`
	ServiceName string        `json:"service_name,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	Message     string        `json:"message"`
	Data        interface{}   `json:"data,omitempty"`
}

func NewEvent(eventType EventType, serviceName, message string) *Event {
	return &Event{
		ID:          NewUUID(),
		Type:        eventType,
		Severity:    SeverityInfo,
		ServiceName: serviceName,
		Timestamp:   time.Now(),
		Message:     message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func AllEventTypes() []EventType {
	return []EventType{
		EventTypeMetricCollected,
		EventTypePatternsDetected,
		EventTypeForecastReady,
		EventTypePredictionMade,
		EventTypeScalingRecommended,
		EventTypeAlert,
		EventTypeError,
	}
}
