package detector_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infralytics/inference-autoscaler/internal/detector"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

// hourlySeries generates one point per hour starting at start.
func hourlySeries(start time.Time, n int, valueAt func(t time.Time) float64) []models.MetricDataPoint {
	points := make([]models.MetricDataPoint, 0, n)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		points = append(points, models.MetricDataPoint{Timestamp: ts, Value: valueAt(ts)})
	}
	return points
}

// monday is a fixed Monday midnight so weekday arithmetic is stable.
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func findPattern(patterns []models.HistoricalPattern, pt models.PatternType) (models.HistoricalPattern, bool) {
	for _, p := range patterns {
		if p.Type == pt {
			return p, true
		}
	}
	return models.HistoricalPattern{}, false
}

func TestDetector_InsufficientHistory(t *testing.T) {
	d := detector.New(detector.Config{})

	points := hourlySeries(monday, 10, func(time.Time) float64 { return 100 })
	assert.Empty(t, d.Detect(points))
}

func TestDetector_FlatSeriesIsStable(t *testing.T) {
	d := detector.New(detector.Config{})

	points := hourlySeries(monday, 48, func(time.Time) float64 { return 100 })
	patterns := d.Detect(points)

	stable, ok := findPattern(patterns, models.PatternStable)
	require.True(t, ok, "flat series should be classified stable")
	assert.InDelta(t, 0.9, stable.Confidence, 1e-9)
	assert.Equal(t, models.TrendFlat, stable.TrendDirection)

	_, daily := findPattern(patterns, models.PatternDailyCycle)
	assert.False(t, daily, "flat series has no daily cycle")
	_, anomaly := findPattern(patterns, models.PatternAnomalyDetected)
	assert.False(t, anomaly, "flat series has no anomalies")
}

func TestDetector_DailyCycle(t *testing.T) {
	d := detector.New(detector.Config{})

	// One week of hourly points: busy business hours, quiet otherwise.
	points := hourlySeries(monday, 7*24, func(ts time.Time) float64 {
		if h := ts.Hour(); h >= 9 && h < 17 {
			return 100
		}
		return 20
	})

	patterns := d.Detect(points)

	daily, ok := findPattern(patterns, models.PatternDailyCycle)
	require.True(t, ok, "business-hours series should show a daily cycle")
	assert.GreaterOrEqual(t, daily.Confidence, 0.7)
	assert.LessOrEqual(t, daily.Confidence, 0.9)
	assert.Equal(t, 24.0, daily.PeriodicityHours)
	assert.InDelta(t, 80, daily.Amplitude, 1e-9)
	assert.Equal(t, "hour_of_day", daily.Seasonality)
}

func TestDetector_WeeklyCycle(t *testing.T) {
	d := detector.New(detector.Config{})

	// Two weeks of hourly points: weekends run well below weekdays.
	points := hourlySeries(monday, 14*24, func(ts time.Time) float64 {
		switch ts.Weekday() {
		case time.Saturday, time.Sunday:
			return 40
		default:
			return 100
		}
	})

	patterns := d.Detect(points)

	weekly, ok := findPattern(patterns, models.PatternWeeklyCycle)
	require.True(t, ok, "weekday/weekend split should show a weekly cycle")
	assert.InDelta(t, 0.8, weekly.Confidence, 1e-9)
	assert.Equal(t, 168.0, weekly.PeriodicityHours)
	assert.InDelta(t, 60, weekly.Amplitude, 1e-9)

	// Every hour of day has the same mean, so no daily cycle fires.
	_, daily := findPattern(patterns, models.PatternDailyCycle)
	assert.False(t, daily)
}

func TestDetector_WeeklyNeedsFullWeek(t *testing.T) {
	d := detector.New(detector.Config{})

	points := hourlySeries(monday, 100, func(ts time.Time) float64 {
		if ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday {
			return 40
		}
		return 100
	})

	_, weekly := findPattern(d.Detect(points), models.PatternWeeklyCycle)
	assert.False(t, weekly, "weekly check requires at least 168 points")
}

func TestDetector_Trend(t *testing.T) {
	tests := []struct {
		name      string
		valueAt   func(i int) float64
		direction models.TrendDirection
	}{
		{
			name:      "increasing",
			valueAt:   func(i int) float64 { return 100 + 3*float64(i) },
			direction: models.TrendIncreasing,
		},
		{
			name:      "decreasing",
			valueAt:   func(i int) float64 { return 300 - 3*float64(i) },
			direction: models.TrendDecreasing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := detector.New(detector.Config{})

			i := 0
			points := hourlySeries(monday, 48, func(time.Time) float64 {
				v := tt.valueAt(i)
				i++
				return v
			})

			trend, ok := findPattern(d.Detect(points), models.PatternTrend)
			require.True(t, ok)
			assert.Equal(t, tt.direction, trend.TrendDirection)
			assert.Greater(t, trend.Confidence, 0.0)
			assert.LessOrEqual(t, trend.Confidence, 0.9)
		})
	}
}

func TestDetector_Volatile(t *testing.T) {
	d := detector.New(detector.Config{})

	// Alternating low/high values: no net slope, large spread.
	i := 0
	points := hourlySeries(monday, 48, func(time.Time) float64 {
		i++
		if i%2 == 0 {
			return 10
		}
		return 200
	})

	patterns := d.Detect(points)
	volatile, ok := findPattern(patterns, models.PatternVolatile)
	require.True(t, ok, "alternating series should be volatile")
	assert.LessOrEqual(t, volatile.Confidence, 0.8)
}

func TestDetector_Anomaly(t *testing.T) {
	t.Run("outlier ratio above threshold", func(t *testing.T) {
		d := detector.New(detector.Config{})

		// 6% of points spike to double the baseline.
		i := 0
		points := hourlySeries(monday, 100, func(time.Time) float64 {
			i++
			if i <= 6 {
				return 200
			}
			return 100
		})

		anomaly, ok := findPattern(d.Detect(points), models.PatternAnomalyDetected)
		require.True(t, ok)
		assert.InDelta(t, 0.3, anomaly.Confidence, 1e-9) // 5 * 0.06 ratio
	})

	t.Run("single extreme outlier", func(t *testing.T) {
		d := detector.New(detector.Config{})

		i := 0
		points := hourlySeries(monday, 48, func(time.Time) float64 {
			i++
			if i == 24 {
				return 10000
			}
			return 100
		})

		anomaly, ok := findPattern(d.Detect(points), models.PatternAnomalyDetected)
		require.True(t, ok, "a single extreme point must flag the series")
		assert.InDelta(t, 0.5, anomaly.Confidence, 1e-9)
	})

	t.Run("flat series never anomalous", func(t *testing.T) {
		d := detector.New(detector.Config{})

		points := hourlySeries(monday, 48, func(time.Time) float64 { return 100 })
		_, ok := findPattern(d.Detect(points), models.PatternAnomalyDetected)
		assert.False(t, ok)
	})
}
