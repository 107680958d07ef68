package models

import "time"

type ScalingAction string

const (
	ActionScaleUp   ScalingAction = "SCALE_UP"
	ActionScaleDown ScalingAction = "SCALE_DOWN"
	ActionHold      ScalingAction = "HOLD"
)

// ScalingRecommendation is the reactive, rule-based output computed directly
// from current metrics, as opposed to the pattern-based PredictionResult.
type ScalingRecommendation struct {
	ServiceName     string        `json:"service_name"`
	Timestamp       time.Time     `json:"timestamp"`
	Action          ScalingAction `json:"action"`
	CurrentReplicas int           `json:"current_replicas"`
	TargetReplicas  int           `json:"target_replicas"`
	Reason          string        `json:"reason"`
	RuleMatched     string        `json:"rule_matched,omitempty"`
}

func (r *ScalingRecommendation) ReplicaDelta() int {
	return r.TargetReplicas - r.CurrentReplicas
}

func (r *ScalingRecommendation) ShouldExecute() bool {
	return r.Action != ActionHold
}
