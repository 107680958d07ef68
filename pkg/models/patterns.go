package models

import "time"

type PatternType string

const (
	PatternDailyCycle      PatternType = "daily_cycle"
	PatternWeeklyCycle     PatternType = "weekly_cycle"
	PatternTrend           PatternType = "trend"
	PatternVolatile        PatternType = "volatile"
	PatternStable          PatternType = "stable"
	PatternAnomalyDetected PatternType = "anomaly_detected"
)

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendFlat       TrendDirection = "flat"
)

// HistoricalPattern describes recurring structure detected in a metric
// history. Patterns are recomputed each prediction cycle and never persisted.
type HistoricalPattern struct {
	Type             PatternType    `json:"type"`
	Confidence       float64        `json:"confidence"`
	PeriodicityHours float64        `json:"periodicity_hours,omitempty"`
	Amplitude        float64        `json:"amplitude,omitempty"`
	TrendDirection   TrendDirection `json:"trend_direction,omitempty"`
	Seasonality      string         `json:"seasonality,omitempty"`
	DetectedAt       time.Time      `json:"detected_at"`
}

func (p HistoricalPattern) IsHighConfidence(threshold float64) bool {
	return p.Confidence >= threshold
}

// MeanConfidence averages confidence over a pattern set. Returns the
// fallback when the set is empty.
func MeanConfidence(patterns []HistoricalPattern, fallback float64) float64 {
	if len(patterns) == 0 {
		return fallback
	}
	var total float64
	for _, p := range patterns {
		total += p.Confidence
	}
	return total / float64(len(patterns))
}

// HasPattern reports whether the set contains a pattern of the given type.
func HasPattern(patterns []HistoricalPattern, t PatternType) bool {
	for _, p := range patterns {
		if p.Type == t {
			return true
		}
	}
	return false
}
