// Package policy reduces a workload forecast to a single proactive scaling
// decision under min/max replica constraints.
package policy

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/infralytics/inference-autoscaler/internal/detector"
	"github.com/infralytics/inference-autoscaler/internal/forecast"
	"github.com/infralytics/inference-autoscaler/internal/logger"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

const (
	scaleUpLead   = 2 * time.Minute
	scaleDownLag  = 5 * time.Minute
	defaultWeight = 0.5 // confidence term used when patterns or forecasts are absent
)

type Config struct {
	HorizonMinutes int
	CooldownPeriod time.Duration
}

// Engine owns the full prediction cycle for one service: pattern detection,
// forecasting and policy application. Each PredictScalingNeeds call is a
// deterministic function of the input history; the pattern/forecast cache
// only feeds the read API and is cleared explicitly.
type Engine struct {
	policy     models.ScalingPolicy
	config     Config
	detector   *detector.Detector
	forecaster *forecast.Forecaster

	mu              sync.RWMutex
	cachedPatterns  []models.HistoricalPattern
	cachedForecasts []models.WorkloadForecast
	lastScaleTime   time.Time
}

func NewEngine(policy models.ScalingPolicy, det *detector.Detector, fc *forecast.Forecaster, cfg Config) *Engine {
	if cfg.HorizonMinutes == 0 {
		cfg.HorizonMinutes = 60
	}
	if cfg.CooldownPeriod == 0 {
		cfg.CooldownPeriod = 5 * time.Minute
	}

	return &Engine{
		policy:     policy,
		config:     cfg,
		detector:   det,
		forecaster: fc,
	}
}

func (e *Engine) Policy() models.ScalingPolicy {
	return e.policy
}

// PredictScalingNeeds runs one prediction cycle over the history and
// returns the aggregate result. The predicted replica count always lies in
// [MinReplicas, MaxReplicas].
func (e *Engine) PredictScalingNeeds(serviceName string, history []models.MetricDataPoint, currentReplicas int, now time.Time) *models.PredictionResult {
	patterns := e.detector.Detect(history)

	horizon := time.Duration(e.config.HorizonMinutes) * time.Minute
	forecasts := e.forecaster.Forecast(history, patterns, horizon, e.policy, now)

	predicted := currentReplicas
	if len(forecasts) > 0 {
		maxRecommended := 0
		for _, f := range forecasts {
			if f.RecommendedReplicas > maxRecommended {
				maxRecommended = f.RecommendedReplicas
			}
		}
		predicted = maxRecommended
	}
	predicted = e.policy.Clamp(predicted)

	result := &models.PredictionResult{
		ServiceName:       serviceName,
		CreatedAt:         now,
		CurrentReplicas:   currentReplicas,
		PredictedReplicas: predicted,
		Confidence:        e.confidence(patterns, forecasts),
		Forecasts:         forecasts,
		DetectedPatterns:  patterns,
	}

	result.ScaleUpTime, result.ScaleDownTime = scaleTimes(forecasts, currentReplicas)
	result.Reasoning = reasoning(result)

	e.mu.Lock()
	e.cachedPatterns = patterns
	e.cachedForecasts = forecasts
	e.mu.Unlock()

	logger.WithService(serviceName).Debugf(
		"Prediction: %d -> %d replicas (confidence %.2f, %d patterns)",
		currentReplicas, predicted, result.Confidence, len(patterns),
	)

	return result
}

// ShouldScaleProactively gates acting on a prediction: proactive scaling
// must be enabled, confidence must clear the policy threshold, the
// prediction must change the replica count, and the scale-up moment must
// fall inside the look-ahead window.
func (e *Engine) ShouldScaleProactively(prediction *models.PredictionResult, now time.Time) bool {
	if !e.policy.EnableProactiveScaling {
		return false
	}
	if prediction.Confidence < e.policy.ConfidenceThreshold {
		return false
	}
	if prediction.PredictedReplicas == prediction.CurrentReplicas {
		return false
	}
	if prediction.ScaleUpTime == nil {
		return false
	}

	deadline := now.Add(time.Duration(e.policy.LookAheadMinutes) * time.Minute)
	return !prediction.ScaleUpTime.After(deadline)
}

// confidence averages pattern agreement and forecast consistency; either
// term falls back to a neutral 0.5 when its inputs are absent.
func (e *Engine) confidence(patterns []models.HistoricalPattern, forecasts []models.WorkloadForecast) float64 {
	patternTerm := models.MeanConfidence(patterns, defaultWeight)

	consistencyTerm := defaultWeight
	if len(forecasts) > 1 {
		loads := make([]float64, len(forecasts))
		for i, f := range forecasts {
			loads[i] = f.PredictedLoad
		}
		if m := mean(loads); m > 0 {
			consistencyTerm = clamp01(1 - stddev(loads)/m)
		}
	}

	return clamp01((patternTerm + consistencyTerm) / 2)
}

// scaleTimes finds the first buckets requiring more and fewer replicas than
// current. Scale-up leads by two minutes so capacity is ready before the
// load arrives; scale-down lags five minutes to avoid flapping.
func scaleTimes(forecasts []models.WorkloadForecast, currentReplicas int) (up, down *time.Time) {
	for _, f := range forecasts {
		if up == nil && f.RecommendedReplicas > currentReplicas {
			t := f.Timestamp.Add(-scaleUpLead)
			up = &t
		}
		if down == nil && f.RecommendedReplicas < currentReplicas {
			t := f.Timestamp.Add(scaleDownLag)
			down = &t
		}
		if up != nil && down != nil {
			break
		}
	}
	return up, down
}

func reasoning(r *models.PredictionResult) string {
	var parts []string

	if len(r.DetectedPatterns) == 0 {
		parts = append(parts, "no historical patterns detected, using flat baseline")
	}
	for _, p := range r.DetectedPatterns {
		switch p.Type {
		case models.PatternDailyCycle:
			parts = append(parts, fmt.Sprintf("daily cycle (confidence %.2f)", p.Confidence))
		case models.PatternWeeklyCycle:
			parts = append(parts, fmt.Sprintf("weekly cycle (confidence %.2f)", p.Confidence))
		case models.PatternTrend:
			parts = append(parts, fmt.Sprintf("%s trend (confidence %.2f)", p.TrendDirection, p.Confidence))
		case models.PatternVolatile:
			parts = append(parts, "volatile load")
		case models.PatternAnomalyDetected:
			parts = append(parts, "recent anomalies observed")
		}
	}

	switch {
	case r.PredictedReplicas > r.CurrentReplicas:
		parts = append(parts, fmt.Sprintf("forecast requires scale up %d -> %d replicas", r.CurrentReplicas, r.PredictedReplicas))
	case r.PredictedReplicas < r.CurrentReplicas:
		parts = append(parts, fmt.Sprintf("forecast allows scale down %d -> %d replicas", r.CurrentReplicas, r.PredictedReplicas))
	default:
		parts = append(parts, fmt.Sprintf("forecast supports holding at %d replicas", r.CurrentReplicas))
	}

	return strings.Join(parts, "; ")
}

// CachedPatterns returns the pattern set from the most recent cycle.
func (e *Engine) CachedPatterns() []models.HistoricalPattern {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.HistoricalPattern, len(e.cachedPatterns))
	copy(out, e.cachedPatterns)
	return out
}

// CachedForecasts returns the forecast list from the most recent cycle.
func (e *Engine) CachedForecasts() []models.WorkloadForecast {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.WorkloadForecast, len(e.cachedForecasts))
	copy(out, e.cachedForecasts)
	return out
}

func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cachedPatterns = nil
	e.cachedForecasts = nil
}

// RecordScaling starts the cooldown window.
func (e *Engine) RecordScaling() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastScaleTime = time.Now()
}

func (e *Engine) InCooldown() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastScaleTime.IsZero() {
		return false
	}
	return time.Since(e.lastScaleTime) < e.config.CooldownPeriod
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var total float64
	for _, v := range vals {
		total += v
	}
	return total / float64(len(vals))
}

func stddev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(vals)))
}
