package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infralytics/inference-autoscaler/pkg/models"
)

func TestHistoryWindow_BoundedAppend(t *testing.T) {
	w := models.NewHistoryWindow(3)
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		w.Append(models.MetricDataPoint{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Value:     float64(i),
		})
	}

	assert.Equal(t, 3, w.Len())

	points := w.Points()
	require.Len(t, points, 3)
	assert.Equal(t, 2.0, points[0].Value, "oldest entries drop first")
	assert.Equal(t, 4.0, points[2].Value)
}

func TestHistoryWindow_PointsIsCopy(t *testing.T) {
	w := models.NewHistoryWindow(8)
	w.Append(models.MetricDataPoint{Value: 1})

	points := w.Points()
	points[0].Value = 99

	assert.Equal(t, 1.0, w.Points()[0].Value)
}

func TestHistoryWindow_Since(t *testing.T) {
	w := models.NewHistoryWindow(8)
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		w.Append(models.MetricDataPoint{Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}

	recent := w.Since(base.Add(3 * time.Hour))
	assert.Len(t, recent, 3)
	assert.Equal(t, base.Add(3*time.Hour), recent[0].Timestamp)
}

func TestScalingPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.ScalingPolicy)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*models.ScalingPolicy) {}},
		{name: "zero min replicas", mutate: func(p *models.ScalingPolicy) { p.MinReplicas = 0 }, wantErr: true},
		{name: "max below min", mutate: func(p *models.ScalingPolicy) { p.MaxReplicas = p.MinReplicas - 1 }, wantErr: true},
		{name: "confidence above one", mutate: func(p *models.ScalingPolicy) { p.ConfidenceThreshold = 1.5 }, wantErr: true},
		{name: "negative confidence", mutate: func(p *models.ScalingPolicy) { p.ConfidenceThreshold = -0.1 }, wantErr: true},
		{name: "zero look-ahead", mutate: func(p *models.ScalingPolicy) { p.LookAheadMinutes = 0 }, wantErr: true},
		{name: "zero look-back", mutate: func(p *models.ScalingPolicy) { p.LookBackHours = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.DefaultScalingPolicy()
			tt.mutate(&p)

			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScalingPolicy_Clamp(t *testing.T) {
	p := models.ScalingPolicy{MinReplicas: 2, MaxReplicas: 8}

	assert.Equal(t, 2, p.Clamp(0))
	assert.Equal(t, 2, p.Clamp(2))
	assert.Equal(t, 5, p.Clamp(5))
	assert.Equal(t, 8, p.Clamp(8))
	assert.Equal(t, 8, p.Clamp(100))
}

func TestMeanConfidence(t *testing.T) {
	assert.Equal(t, 0.5, models.MeanConfidence(nil, 0.5))

	patterns := []models.HistoricalPattern{
		{Type: models.PatternDailyCycle, Confidence: 0.9},
		{Type: models.PatternStable, Confidence: 0.5},
	}
	assert.InDelta(t, 0.7, models.MeanConfidence(patterns, 0), 1e-9)
}

func TestPredictionResult_Helpers(t *testing.T) {
	r := &models.PredictionResult{
		CurrentReplicas:   2,
		PredictedReplicas: 5,
		Confidence:        0.8,
		DetectedPatterns: []models.HistoricalPattern{
			{Type: models.PatternDailyCycle, Confidence: 0.9},
		},
	}

	assert.Equal(t, 3, r.ReplicaDelta())
	assert.True(t, r.IsHighConfidence(0.7))
	assert.False(t, r.IsHighConfidence(0.9))
	assert.True(t, r.HasPattern(models.PatternDailyCycle))
	assert.False(t, r.HasPattern(models.PatternWeeklyCycle))
}

func TestScalingRecommendation_Helpers(t *testing.T) {
	rec := &models.ScalingRecommendation{
		Action:          models.ActionScaleDown,
		CurrentReplicas: 5,
		TargetReplicas:  3,
	}
	assert.Equal(t, -2, rec.ReplicaDelta())
	assert.True(t, rec.ShouldExecute())

	hold := &models.ScalingRecommendation{Action: models.ActionHold}
	assert.False(t, hold.ShouldExecute())
}

func TestEventBuilders(t *testing.T) {
	e := models.NewEvent(models.EventTypeAlert, "llm", "queue backing up").
		WithSeverity(models.SeverityCritical).
		WithData(map[string]int{"depth": 120})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, models.EventTypeAlert, e.Type)
	assert.Equal(t, "llm", e.ServiceName)
	assert.Equal(t, models.SeverityCritical, e.Severity)
	assert.NotNil(t, e.Data)
	assert.False(t, e.Timestamp.IsZero())

	other := models.NewEvent(models.EventTypeAlert, "llm", "second")
	assert.NotEqual(t, e.ID, other.ID)
}

func TestInferenceMetrics_IsZero(t *testing.T) {
	assert.True(t, models.InferenceMetrics{ServiceName: "llm"}.IsZero())
	assert.False(t, models.InferenceMetrics{RequestsPerSec: 1}.IsZero())
	assert.False(t, models.InferenceMetrics{SampleCount: 5}.IsZero())
}
