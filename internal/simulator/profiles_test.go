package simulator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infralytics/inference-autoscaler/internal/detector"
	"github.com/infralytics/inference-autoscaler/internal/simulator"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

var simMonday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func TestDailyProfile_Shape(t *testing.T) {
	p := &simulator.DailyProfile{Base: 100}

	assert.InDelta(t, 150, p.LoadAt(simMonday.Add(10*time.Hour)), 1e-9) // 10:00
	assert.InDelta(t, 30, p.LoadAt(simMonday.Add(2*time.Hour)), 1e-9)   // 02:00
	assert.InDelta(t, 100, p.LoadAt(simMonday.Add(20*time.Hour)), 1e-9) // 20:00
}

func TestWeeklyProfile_WeekendDamping(t *testing.T) {
	p := &simulator.WeeklyProfile{Base: 100}

	tuesdayNoon := simMonday.Add(24*time.Hour + 12*time.Hour)
	saturdayNoon := simMonday.Add(5*24*time.Hour + 12*time.Hour)

	assert.InDelta(t, 150, p.LoadAt(tuesdayNoon), 1e-9)
	assert.InDelta(t, 75, p.LoadAt(saturdayNoon), 1e-9)
}

func TestRampProfile_Growth(t *testing.T) {
	p := &simulator.RampProfile{Base: 100, PerHour: 10, Start: simMonday}

	assert.InDelta(t, 100, p.LoadAt(simMonday), 1e-9)
	assert.InDelta(t, 150, p.LoadAt(simMonday.Add(5*time.Hour)), 1e-9)
	assert.InDelta(t, 100, p.LoadAt(simMonday.Add(-time.Hour)), 1e-9, "no growth before start")
}

func TestSpikeProfile_Window(t *testing.T) {
	p := &simulator.SpikeProfile{
		Inner:     &simulator.SteadyProfile{Base: 100},
		SpikeAt:   simMonday.Add(time.Hour),
		Duration:  30 * time.Minute,
		Magnitude: 3,
	}

	assert.InDelta(t, 100, p.LoadAt(simMonday), 1e-9)
	assert.InDelta(t, 300, p.LoadAt(simMonday.Add(time.Hour)), 1e-9)
	assert.InDelta(t, 300, p.LoadAt(simMonday.Add(85*time.Minute)), 1e-9)
	assert.InDelta(t, 100, p.LoadAt(simMonday.Add(91*time.Minute)), 1e-9)
}

func TestNoisyProfile_DeterministicAndNonNegative(t *testing.T) {
	a := simulator.NewNoisyProfile(&simulator.SteadyProfile{Base: 10}, 0.5, 7)
	b := simulator.NewNoisyProfile(&simulator.SteadyProfile{Base: 10}, 0.5, 7)

	for i := 0; i < 100; i++ {
		ts := simMonday.Add(time.Duration(i) * time.Minute)
		va := a.LoadAt(ts)
		assert.Equal(t, va, b.LoadAt(ts))
		assert.GreaterOrEqual(t, va, 0.0)
	}
}

func TestParse(t *testing.T) {
	assert.Equal(t, "daily", simulator.Parse("daily", 100).Name())
	assert.Equal(t, "weekly", simulator.Parse("weekly", 100).Name())
	assert.Equal(t, "ramp", simulator.Parse("ramp", 100).Name())
	assert.Equal(t, "spike", simulator.Parse("spike", 100).Name())
	assert.Equal(t, "steady", simulator.Parse("unknown", 100).Name())
}

func TestSeries_SamplesOldestFirst(t *testing.T) {
	points := simulator.Series(&simulator.SteadyProfile{Base: 50}, simMonday, 5*time.Minute, 12)

	require.Len(t, points, 12)
	assert.Equal(t, simMonday, points[0].Timestamp)
	assert.Equal(t, simMonday.Add(55*time.Minute), points[11].Timestamp)
	for _, p := range points {
		assert.InDelta(t, 50, p.Value, 1e-9)
	}
}

// The daily profile must produce a series the detector recognizes as a
// daily cycle, closing the loop between simulation and detection.
func TestDailyProfile_DetectableCycle(t *testing.T) {
	points := simulator.Series(&simulator.DailyProfile{Base: 100}, simMonday, time.Hour, 7*24)

	d := detector.New(detector.Config{})
	patterns := d.Detect(points)

	var found *models.HistoricalPattern
	for i := range patterns {
		if patterns[i].Type == models.PatternDailyCycle {
			found = &patterns[i]
			break
		}
	}

	require.NotNil(t, found, "simulated daily load should register as a daily cycle")
	assert.GreaterOrEqual(t, found.Confidence, 0.7)
}
