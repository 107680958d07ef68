// Package detector finds recurring structure in workload metric histories:
// daily and weekly cycles, linear trend, volatility and statistical
// anomalies. Checks are independent and may all fire in the same cycle.
package detector

import (
	"math"
	"time"

	"github.com/infralytics/inference-autoscaler/internal/logger"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

type Config struct {
	MinPoints       int     // minimum history before any detection runs
	WeeklyMinPoints int     // minimum history for the weekly check
	DailyVariation  float64 // hourly-mean spread vs overall mean that counts as a cycle
	WeekendDelta    float64 // weekday/weekend mean difference that counts as a weekly cycle
	TrendStrength   float64 // |slope|/mean above which a trend is reported
	VolatilityCV    float64 // coefficient of variation above which the series is volatile
	OutlierSigma    float64
	ExtremeSigma    float64
	OutlierRatio    float64
}

type Detector struct {
	config Config
}

func New(cfg Config) *Detector {
	if cfg.MinPoints == 0 {
		cfg.MinPoints = 24
	}
	if cfg.WeeklyMinPoints == 0 {
		cfg.WeeklyMinPoints = 168
	}
	if cfg.DailyVariation == 0 {
		cfg.DailyVariation = 0.1
	}
	if cfg.WeekendDelta == 0 {
		cfg.WeekendDelta = 0.3
	}
	if cfg.TrendStrength == 0 {
		cfg.TrendStrength = 0.01
	}
	if cfg.VolatilityCV == 0 {
		cfg.VolatilityCV = 0.5
	}
	if cfg.OutlierSigma == 0 {
		cfg.OutlierSigma = 2.0
	}
	if cfg.ExtremeSigma == 0 {
		cfg.ExtremeSigma = 5.0
	}
	if cfg.OutlierRatio == 0 {
		cfg.OutlierRatio = 0.05
	}

	return &Detector{config: cfg}
}

// Detect runs all pattern checks over the history. Below MinPoints it
// returns an empty set; insufficient history is not an error.
func (d *Detector) Detect(points []models.MetricDataPoint) []models.HistoricalPattern {
	if len(points) < d.config.MinPoints {
		return nil
	}

	var patterns []models.HistoricalPattern

	if p, ok := d.detectDaily(points); ok {
		patterns = append(patterns, p)
	}
	if p, ok := d.detectWeekly(points); ok {
		patterns = append(patterns, p)
	}
	patterns = append(patterns, d.detectTrend(points))
	if p, ok := d.detectAnomaly(points); ok {
		patterns = append(patterns, p)
	}

	logger.Debugf("Detected %d patterns over %d points", len(patterns), len(points))
	return patterns
}

// detectDaily buckets values by hour of day and compares the spread of the
// bucket means against the overall mean.
func (d *Detector) detectDaily(points []models.MetricDataPoint) (models.HistoricalPattern, bool) {
	overall := mean(values(points))
	if overall == 0 {
		return models.HistoricalPattern{}, false
	}

	var sums [24]float64
	var counts [24]int
	for _, p := range points {
		h := p.Timestamp.Hour()
		sums[h] += p.Value
		counts[h]++
	}

	var hourlyMeans []float64
	for h := 0; h < 24; h++ {
		if counts[h] > 0 {
			hourlyMeans = append(hourlyMeans, sums[h]/float64(counts[h]))
		}
	}
	if len(hourlyMeans) < 2 {
		return models.HistoricalPattern{}, false
	}

	spread := stddev(hourlyMeans)
	if spread <= d.config.DailyVariation*overall {
		return models.HistoricalPattern{}, false
	}

	variation := spread / overall
	return models.HistoricalPattern{
		Type:             models.PatternDailyCycle,
		Confidence:       math.Min(0.9, 2*variation),
		PeriodicityHours: 24,
		Amplitude:        maxOf(hourlyMeans) - minOf(hourlyMeans),
		Seasonality:      "hour_of_day",
		DetectedAt:       time.Now(),
	}, true
}

// detectWeekly compares weekday and weekend means once at least a week of
// hourly data is available.
func (d *Detector) detectWeekly(points []models.MetricDataPoint) (models.HistoricalPattern, bool) {
	if len(points) < d.config.WeeklyMinPoints {
		return models.HistoricalPattern{}, false
	}

	var weekday, weekend []float64
	for _, p := range points {
		switch p.Timestamp.Weekday() {
		case time.Saturday, time.Sunday:
			weekend = append(weekend, p.Value)
		default:
			weekday = append(weekday, p.Value)
		}
	}
	if len(weekday) == 0 || len(weekend) == 0 {
		return models.HistoricalPattern{}, false
	}

	weekdayMean := mean(weekday)
	weekendMean := mean(weekend)
	if weekdayMean == 0 {
		return models.HistoricalPattern{}, false
	}

	delta := math.Abs(weekdayMean-weekendMean) / weekdayMean
	if delta <= d.config.WeekendDelta {
		return models.HistoricalPattern{}, false
	}

	return models.HistoricalPattern{
		Type:             models.PatternWeeklyCycle,
		Confidence:       0.8,
		PeriodicityHours: 168,
		Amplitude:        math.Abs(weekdayMean - weekendMean),
		Seasonality:      "weekday_weekend",
		DetectedAt:       time.Now(),
	}, true
}

// detectTrend fits a least-squares line over the full window and classifies
// the series as trending, volatile or stable.
func (d *Detector) detectTrend(points []models.MetricDataPoint) models.HistoricalPattern {
	vals := values(points)
	m := mean(vals)
	now := time.Now()

	if m != 0 {
		slope := slopeOf(vals)
		strength := math.Abs(slope) / m
		if strength > d.config.TrendStrength {
			direction := models.TrendIncreasing
			if slope < 0 {
				direction = models.TrendDecreasing
			}
			return models.HistoricalPattern{
				Type:           models.PatternTrend,
				Confidence:     math.Min(0.9, 10*strength),
				Amplitude:      slope,
				TrendDirection: direction,
				DetectedAt:     now,
			}
		}

		cv := stddev(vals) / m
		if cv > d.config.VolatilityCV {
			return models.HistoricalPattern{
				Type:       models.PatternVolatile,
				Confidence: math.Min(0.8, cv),
				Amplitude:  stddev(vals),
				DetectedAt: now,
			}
		}
	}

	return models.HistoricalPattern{
		Type:           models.PatternStable,
		Confidence:     0.9,
		TrendDirection: models.TrendFlat,
		DetectedAt:     now,
	}
}

// detectAnomaly counts outliers beyond OutlierSigma standard deviations and
// flags the series when the outlier ratio is high or any point is extreme.
func (d *Detector) detectAnomaly(points []models.MetricDataPoint) (models.HistoricalPattern, bool) {
	vals := values(points)
	m := mean(vals)
	sd := stddev(vals)
	if sd == 0 {
		return models.HistoricalPattern{}, false
	}

	var outliers, extremes int
	for _, v := range vals {
		dev := math.Abs(v-m) / sd
		if dev > d.config.OutlierSigma {
			outliers++
		}
		if dev > d.config.ExtremeSigma {
			extremes++
		}
	}

	ratio := float64(outliers) / float64(len(vals))
	if ratio <= d.config.OutlierRatio && extremes == 0 {
		return models.HistoricalPattern{}, false
	}

	return models.HistoricalPattern{
		Type:       models.PatternAnomalyDetected,
		Confidence: math.Min(0.9, math.Max(5*ratio, 0.5*float64(extremes))),
		Amplitude:  sd,
		DetectedAt: time.Now(),
	}, true
}

func values(points []models.MetricDataPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
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

// slopeOf fits value = a + b*index and returns b, the per-step change.
func slopeOf(vals []float64) float64 {
	n := float64(len(vals))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range vals {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func maxOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
