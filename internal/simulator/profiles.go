// Package simulator generates synthetic workload series for demos and for
// exercising pattern detection end to end.
package simulator

import (
	"math/rand"
	"time"

	"github.com/infralytics/inference-autoscaler/pkg/models"
)

// Profile yields the load level at a point in time. Profiles are pure
// functions of the timestamp so generated series are reproducible.
type Profile interface {
	LoadAt(t time.Time) float64
	Name() string
}

// SteadyProfile - constant load
type SteadyProfile struct {
	Base float64
}

func (p *SteadyProfile) LoadAt(time.Time) float64 {
	return p.Base
}

func (p *SteadyProfile) Name() string {
	return "steady"
}

// DailyProfile - business-hours peak, overnight trough
type DailyProfile struct {
	Base float64
}

func (p *DailyProfile) LoadAt(t time.Time) float64 {
	hour := t.Hour()
	switch {
	case hour >= 9 && hour < 17:
		return p.Base * 1.5
	case hour >= 0 && hour < 6:
		return p.Base * 0.3
	default:
		return p.Base
	}
}

func (p *DailyProfile) Name() string {
	return "daily"
}

// WeeklyProfile - daily cycle on weekdays, reduced weekends
type WeeklyProfile struct {
	Base float64
}

func (p *WeeklyProfile) LoadAt(t time.Time) float64 {
	daily := (&DailyProfile{Base: p.Base}).LoadAt(t)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return daily * 0.5
	}
	return daily
}

func (p *WeeklyProfile) Name() string {
	return "weekly"
}

// RampProfile - linear growth from a start time
type RampProfile struct {
	Base    float64
	PerHour float64
	Start   time.Time
}

func (p *RampProfile) LoadAt(t time.Time) float64 {
	hours := t.Sub(p.Start).Hours()
	if hours < 0 {
		hours = 0
	}
	return p.Base + p.PerHour*hours
}

func (p *RampProfile) Name() string {
	return "ramp"
}

// SpikeProfile - wraps another profile with a short multiplicative spike
type SpikeProfile struct {
	Inner     Profile
	SpikeAt   time.Time
	Duration  time.Duration
	Magnitude float64
}

func (p *SpikeProfile) LoadAt(t time.Time) float64 {
	load := p.Inner.LoadAt(t)
	if !t.Before(p.SpikeAt) && t.Before(p.SpikeAt.Add(p.Duration)) {
		return load * p.Magnitude
	}
	return load
}

func (p *SpikeProfile) Name() string {
	return "spike"
}

// NoisyProfile - adds seeded multiplicative noise to another profile
type NoisyProfile struct {
	Inner    Profile
	Variance float64
	rng      *rand.Rand
}

func NewNoisyProfile(inner Profile, variance float64, seed int64) *NoisyProfile {
	return &NoisyProfile{
		Inner:    inner,
		Variance: variance,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (p *NoisyProfile) LoadAt(t time.Time) float64 {
	load := p.Inner.LoadAt(t)
	load *= 1 + (p.rng.Float64()*2-1)*p.Variance
	if load < 0 {
		return 0
	}
	return load
}

func (p *NoisyProfile) Name() string {
	return p.Inner.Name() + "_noisy"
}

// Parse maps a profile name to a profile with the given base load.
func Parse(name string, base float64) Profile {
	switch name {
	case "daily":
		return &DailyProfile{Base: base}
	case "weekly":
		return &WeeklyProfile{Base: base}
	case "ramp":
		return &RampProfile{Base: base, PerHour: base * 0.05, Start: time.Now()}
	case "spike":
		return &SpikeProfile{
			Inner:     &SteadyProfile{Base: base},
			SpikeAt:   time.Now().Add(10 * time.Minute),
			Duration:  10 * time.Minute,
			Magnitude: 3,
		}
	default:
		return &SteadyProfile{Base: base}
	}
}

// Series samples a profile at a fixed interval, oldest first.
func Series(p Profile, start time.Time, interval time.Duration, n int) []models.MetricDataPoint {
	points := make([]models.MetricDataPoint, n)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * interval)
		points[i] = models.MetricDataPoint{
			Timestamp: ts,
			Value:     p.LoadAt(ts),
		}
	}
	return points
}
