package models

import "fmt"

// ScalingPolicy constrains predictive scaling for one service. It is
// constructed once and treated as immutable for the lifetime of a scaler
// instance.
type ScalingPolicy struct {
	MinReplicas            int     `json:"min_replicas" mapstructure:"min_replicas"`
	MaxReplicas            int     `json:"max_replicas" mapstructure:"max_replicas"`
	ScaleUpThreshold       float64 `json:"scale_up_threshold" mapstructure:"scale_up_threshold"`
	ScaleDownThreshold     float64 `json:"scale_down_threshold" mapstructure:"scale_down_threshold"`
	ConfidenceThreshold    float64 `json:"confidence_threshold" mapstructure:"confidence_threshold"`
	LookAheadMinutes       int     `json:"look_ahead_minutes" mapstructure:"look_ahead_minutes"`
	LookBackHours          int     `json:"look_back_hours" mapstructure:"look_back_hours"`
	EnableProactiveScaling bool    `json:"enable_proactive_scaling" mapstructure:"enable_proactive_scaling"`
}

// IsZero reports whether no policy field was set, i.e. the service config
// omitted the policy block entirely.
func (p ScalingPolicy) IsZero() bool {
	return p == ScalingPolicy{}
}

// DefaultScalingPolicy mirrors the defaults used when a service declares no
// policy of its own.
func DefaultScalingPolicy() ScalingPolicy {
	return ScalingPolicy{
		MinReplicas:            1,
		MaxReplicas:            10,
		ScaleUpThreshold:       0.8,
		ScaleDownThreshold:     0.3,
		ConfidenceThreshold:    0.7,
		LookAheadMinutes:       30,
		LookBackHours:          24,
		EnableProactiveScaling: true,
	}
}

func (p ScalingPolicy) Validate() error {
	if p.MinReplicas < 1 {
		return fmt.Errorf("min_replicas must be >= 1, got %d", p.MinReplicas)
	}
	if p.MaxReplicas < p.MinReplicas {
		return fmt.Errorf("max_replicas %d below min_replicas %d", p.MaxReplicas, p.MinReplicas)
	}
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0,1], got %.2f", p.ConfidenceThreshold)
	}
	if p.LookAheadMinutes <= 0 {
		return fmt.Errorf("look_ahead_minutes must be positive, got %d", p.LookAheadMinutes)
	}
	if p.LookBackHours <= 0 {
		return fmt.Errorf("look_back_hours must be positive, got %d", p.LookBackHours)
	}
	return nil
}

// Clamp forces a replica count into the [min, max] range.
func (p ScalingPolicy) Clamp(replicas int) int {
	if replicas < p.MinReplicas {
		return p.MinReplicas
	}
	if replicas > p.MaxReplicas {
		return p.MaxReplicas
	}
	return replicas
}
