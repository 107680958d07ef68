package models

import "time"

// ConfidenceInterval bounds a forecasted load value.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// WorkloadForecast is one 5-minute bucket of projected load.
type WorkloadForecast struct {
	Timestamp           time.Time          `json:"timestamp"`
	PredictedLoad       float64            `json:"predicted_load"`
	Interval            ConfidenceInterval `json:"confidence_interval"`
	RecommendedReplicas int                `json:"recommended_replicas"`
	PatternBased        bool               `json:"pattern_based"`
}

// PredictionResult aggregates one full prediction cycle.
type PredictionResult struct {
	ServiceName       string              `json:"service_name"`
	CreatedAt         time.Time           `json:"created_at"`
	CurrentReplicas   int                 `json:"current_replicas"`
	PredictedReplicas int                 `json:"predicted_replicas"`
	Confidence        float64             `json:"confidence"`
	Forecasts         []WorkloadForecast  `json:"forecasts"`
	DetectedPatterns  []HistoricalPattern `json:"detected_patterns"`
	ScaleUpTime       *time.Time          `json:"scale_up_time,omitempty"`
	ScaleDownTime     *time.Time          `json:"scale_down_time,omitempty"`
	Reasoning         string              `json:"reasoning"`
}

func (r *PredictionResult) ReplicaDelta() int {
	return r.PredictedReplicas - r.CurrentReplicas
}

func (r *PredictionResult) IsHighConfidence(threshold float64) bool {
	return r.Confidence >= threshold
}

// HasPattern reports whether the result contains a detected pattern of the
// given type.
func (r *PredictionResult) HasPattern(t PatternType) bool {
	return HasPattern(r.DetectedPatterns, t)
}
