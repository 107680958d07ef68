// Package forecast projects workload forward in fixed buckets by applying
// detected historical patterns to a recent baseline.
package forecast

import (
	"math"
	"time"

	"github.com/infralytics/inference-autoscaler/pkg/models"
)

const (
	businessHoursFactor = 1.5
	nightFactor         = 0.3
	weekdayFactor       = 1.2
	weekendFactor       = 0.6
	trendRatePerHour    = 0.05
	trendFloor          = 0.1
)

type Config struct {
	BucketInterval time.Duration // forecast granularity
	BaselineWindow int           // number of recent points averaged into the baseline
}

type Forecaster struct {
	config Config
}

func New(cfg Config) *Forecaster {
	if cfg.BucketInterval == 0 {
		cfg.BucketInterval = 5 * time.Minute
	}
	if cfg.BaselineWindow == 0 {
		cfg.BaselineWindow = 24
	}
	return &Forecaster{config: cfg}
}

// Forecast projects load for each bucket across the horizon. With no
// detected patterns the projection is a flat baseline. Bucket timestamps
// are strictly increasing.
func (f *Forecaster) Forecast(
	points []models.MetricDataPoint,
	patterns []models.HistoricalPattern,
	horizon time.Duration,
	policy models.ScalingPolicy,
	now time.Time,
) []models.WorkloadForecast {
	if horizon <= 0 || len(points) == 0 {
		return nil
	}

	recent := recentValues(points, f.config.BaselineWindow)
	baseline := mean(recent)
	spread := stddev(recent)

	hasDaily := models.HasPattern(patterns, models.PatternDailyCycle)
	hasWeekly := models.HasPattern(patterns, models.PatternWeeklyCycle)
	trendDirection := trendOf(patterns)

	buckets := int(horizon / f.config.BucketInterval)
	forecasts := make([]models.WorkloadForecast, 0, buckets)

	for i := 1; i <= buckets; i++ {
		ts := now.Add(time.Duration(i) * f.config.BucketInterval)
		predicted := baseline
		patternBased := false

		if hasDaily {
			predicted *= hourFactor(ts.Hour())
			patternBased = true
		}
		if hasWeekly {
			predicted *= dayFactor(ts.Weekday())
			patternBased = true
		}
		if trendDirection != "" {
			predicted *= trendFactor(trendDirection, ts.Sub(now).Hours())
			patternBased = true
		}

		lower := predicted - 2*spread
		if lower < 0 {
			lower = 0
		}

		forecasts = append(forecasts, models.WorkloadForecast{
			Timestamp:     ts,
			PredictedLoad: predicted,
			Interval: models.ConfidenceInterval{
				Lower: lower,
				Upper: predicted + 2*spread,
			},
			RecommendedReplicas: ReplicasForLoad(predicted, policy.MaxReplicas),
			PatternBased:        patternBased,
		})
	}

	return forecasts
}

// ReplicasForLoad maps a load level to a replica count via a fixed step
// function, falling back to load/50 for very high load.
func ReplicasForLoad(load float64, maxReplicas int) int {
	switch {
	case load < 10:
		return 1
	case load < 50:
		return 2
	case load < 100:
		return 3
	case load < 200:
		return 5
	case load < 500:
		return 8
	default:
		replicas := int(load / 50)
		if maxReplicas > 0 && replicas > maxReplicas {
			return maxReplicas
		}
		return replicas
	}
}

func hourFactor(hour int) float64 {
	switch {
	case hour >= 9 && hour < 17:
		return businessHoursFactor
	case hour >= 0 && hour < 6:
		return nightFactor
	default:
		return 1.0
	}
}

func dayFactor(day time.Weekday) float64 {
	if day == time.Saturday || day == time.Sunday {
		return weekendFactor
	}
	return weekdayFactor
}

// trendFactor compounds the per-hour trend rate across the lead time,
// floored so a decreasing trend never collapses the forecast entirely.
func trendFactor(direction models.TrendDirection, hoursAhead float64) float64 {
	rate := trendRatePerHour
	if direction == models.TrendDecreasing {
		rate = -trendRatePerHour
	}
	factor := math.Pow(1+rate, hoursAhead)
	if factor < trendFloor {
		return trendFloor
	}
	return factor
}

func trendOf(patterns []models.HistoricalPattern) models.TrendDirection {
	for _, p := range patterns {
		if p.Type == models.PatternTrend {
			return p.TrendDirection
		}
	}
	return ""
}

func recentValues(points []models.MetricDataPoint, window int) []float64 {
	start := len(points) - window
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, len(points)-start)
	for _, p := range points[start:] {
		out = append(out, p.Value)
	}
	return out
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
