package forecast_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infralytics/inference-autoscaler/internal/forecast"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

func flatHistory(n int, value float64) []models.MetricDataPoint {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	points := make([]models.MetricDataPoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, models.MetricDataPoint{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Value:     value,
		})
	}
	return points
}

func TestForecaster_BucketTimestampsStrictlyIncreasing(t *testing.T) {
	f := forecast.New(forecast.Config{})
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	forecasts := f.Forecast(flatHistory(48, 100), nil, time.Hour, models.DefaultScalingPolicy(), now)

	require.Len(t, forecasts, 12)
	for i := 1; i < len(forecasts); i++ {
		assert.True(t, forecasts[i].Timestamp.After(forecasts[i-1].Timestamp),
			"bucket %d must be after bucket %d", i, i-1)
	}
	assert.Equal(t, now.Add(5*time.Minute), forecasts[0].Timestamp)
}

func TestForecaster_NoPatternsFlatBaseline(t *testing.T) {
	f := forecast.New(forecast.Config{})
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	forecasts := f.Forecast(flatHistory(48, 100), nil, 30*time.Minute, models.DefaultScalingPolicy(), now)

	require.NotEmpty(t, forecasts)
	for _, fc := range forecasts {
		assert.InDelta(t, 100, fc.PredictedLoad, 1e-9)
		assert.False(t, fc.PatternBased)
	}
}

func TestForecaster_EmptyInputs(t *testing.T) {
	f := forecast.New(forecast.Config{})
	now := time.Now()

	assert.Nil(t, f.Forecast(nil, nil, time.Hour, models.DefaultScalingPolicy(), now))
	assert.Nil(t, f.Forecast(flatHistory(10, 100), nil, 0, models.DefaultScalingPolicy(), now))
}

func TestForecaster_DailyCycleHourFactors(t *testing.T) {
	daily := []models.HistoricalPattern{{Type: models.PatternDailyCycle, Confidence: 0.9}}

	tests := []struct {
		name     string
		now      time.Time
		expected float64
	}{
		{
			name:     "business hours boost",
			now:      time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
			expected: 150, // 100 * 1.5
		},
		{
			name:     "night hours damp",
			now:      time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC),
			expected: 30, // 100 * 0.3
		},
		{
			name:     "evening unchanged",
			now:      time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC),
			expected: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := forecast.New(forecast.Config{})

			forecasts := f.Forecast(flatHistory(48, 100), daily, 30*time.Minute, models.DefaultScalingPolicy(), tt.now)

			require.NotEmpty(t, forecasts)
			assert.InDelta(t, tt.expected, forecasts[0].PredictedLoad, 1e-9)
			assert.True(t, forecasts[0].PatternBased)
		})
	}
}

func TestForecaster_WeeklyCycleDayFactors(t *testing.T) {
	weekly := []models.HistoricalPattern{{Type: models.PatternWeeklyCycle, Confidence: 0.8}}
	f := forecast.New(forecast.Config{})

	weekdayNow := time.Date(2025, 6, 3, 19, 0, 0, 0, time.UTC) // Tuesday evening
	weekendNow := time.Date(2025, 6, 7, 19, 0, 0, 0, time.UTC) // Saturday evening

	onWeekday := f.Forecast(flatHistory(48, 100), weekly, 30*time.Minute, models.DefaultScalingPolicy(), weekdayNow)
	onWeekend := f.Forecast(flatHistory(48, 100), weekly, 30*time.Minute, models.DefaultScalingPolicy(), weekendNow)

	require.NotEmpty(t, onWeekday)
	require.NotEmpty(t, onWeekend)
	assert.InDelta(t, 120, onWeekday[0].PredictedLoad, 1e-9)
	assert.InDelta(t, 60, onWeekend[0].PredictedLoad, 1e-9)
}

func TestForecaster_TrendCompounds(t *testing.T) {
	f := forecast.New(forecast.Config{})
	now := time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC)

	up := []models.HistoricalPattern{{Type: models.PatternTrend, TrendDirection: models.TrendIncreasing}}
	down := []models.HistoricalPattern{{Type: models.PatternTrend, TrendDirection: models.TrendDecreasing}}

	rising := f.Forecast(flatHistory(48, 100), up, 2*time.Hour, models.DefaultScalingPolicy(), now)
	falling := f.Forecast(flatHistory(48, 100), down, 2*time.Hour, models.DefaultScalingPolicy(), now)

	require.NotEmpty(t, rising)
	require.NotEmpty(t, falling)

	last := len(rising) - 1
	assert.Greater(t, rising[last].PredictedLoad, rising[0].PredictedLoad)
	assert.Less(t, falling[last].PredictedLoad, falling[0].PredictedLoad)

	// Two hours out the increasing trend compounds at 5% per hour.
	assert.InDelta(t, 100*1.05*1.05, rising[last].PredictedLoad, 1e-6)

	// A decreasing trend never collapses the forecast below the floor.
	for _, fc := range falling {
		assert.GreaterOrEqual(t, fc.PredictedLoad, 100*0.1)
	}
}

func TestForecaster_ConfidenceIntervalNonNegative(t *testing.T) {
	f := forecast.New(forecast.Config{})
	now := time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC)

	// Noisy history so the interval has real width.
	points := flatHistory(48, 100)
	for i := range points {
		if i%2 == 0 {
			points[i].Value = 20
		}
	}

	forecasts := f.Forecast(points, nil, time.Hour, models.DefaultScalingPolicy(), now)
	require.NotEmpty(t, forecasts)
	for _, fc := range forecasts {
		assert.GreaterOrEqual(t, fc.Interval.Lower, 0.0)
		assert.Greater(t, fc.Interval.Upper, fc.PredictedLoad)
		assert.LessOrEqual(t, fc.Interval.Lower, fc.PredictedLoad)
	}
}

func TestReplicasForLoad(t *testing.T) {
	tests := []struct {
		load     float64
		max      int
		expected int
	}{
		{load: 0, max: 0, expected: 1},
		{load: 9.9, max: 0, expected: 1},
		{load: 10, max: 0, expected: 2},
		{load: 49, max: 0, expected: 2},
		{load: 50, max: 0, expected: 3},
		{load: 99, max: 0, expected: 3},
		{load: 100, max: 0, expected: 5},
		{load: 199, max: 0, expected: 5},
		{load: 200, max: 0, expected: 8},
		{load: 499, max: 0, expected: 8},
		{load: 600, max: 0, expected: 12},
		{load: 600, max: 10, expected: 10},
		{load: 5000, max: 20, expected: 20},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, forecast.ReplicasForLoad(tt.load, tt.max),
			"load=%.1f max=%d", tt.load, tt.max)
	}
}
