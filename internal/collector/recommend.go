package collector

import (
	"time"

	"github.com/infralytics/inference-autoscaler/pkg/models"
)

const (
	latencyScaleUpMs   = 500.0
	gpuScaleUpPercent  = 85.0
	idleRequestsPerSec = 1.0
	latencyReplicaCap  = 10
)

// rule is one guard/action pair in the reactive recommendation chain. Rules
// are evaluated in order and the first matching guard wins, which keeps the
// tie-break order (latency, then GPU, then idle scale-down) auditable.
type rule struct {
	name  string
	guard func(inf *models.InferenceMetrics, gpu *models.GPUMetrics, replicas int) bool
	apply func(replicas int) (target int, action models.ScalingAction, reason string)
}

var recommendationRules = []rule{
	{
		name: "high_latency",
		guard: func(inf *models.InferenceMetrics, _ *models.GPUMetrics, _ int) bool {
			return inf != nil && inf.P95LatencyMs > latencyScaleUpMs
		},
		apply: func(replicas int) (int, models.ScalingAction, string) {
			target := replicas * 2
			if target > latencyReplicaCap {
				target = latencyReplicaCap
			}
			return target, models.ActionScaleUp, "p95 latency above 500ms"
		},
	},
	{
		name: "gpu_saturated",
		guard: func(_ *models.InferenceMetrics, gpu *models.GPUMetrics, _ int) bool {
			return gpu != nil && gpu.AvgUtilization > gpuScaleUpPercent
		},
		apply: func(replicas int) (int, models.ScalingAction, string) {
			return replicas + 1, models.ActionScaleUp, "average GPU utilization above 85%"
		},
	},
	{
		name: "idle_service",
		guard: func(inf *models.InferenceMetrics, _ *models.GPUMetrics, replicas int) bool {
			return inf != nil && inf.RequestsPerSec < idleRequestsPerSec && replicas > 1
		},
		apply: func(replicas int) (int, models.ScalingAction, string) {
			return replicas - 1, models.ActionScaleDown, "request rate below 1/s"
		},
	},
}

// Recommend maps current metrics to a reactive scaling recommendation via
// the ordered rule chain. With no matching rule the recommendation is hold.
func Recommend(inf *models.InferenceMetrics, gpu *models.GPUMetrics, currentReplicas int) *models.ScalingRecommendation {
	serviceName := ""
	if inf != nil {
		serviceName = inf.ServiceName
	}

	rec := &models.ScalingRecommendation{
		ServiceName:     serviceName,
		Timestamp:       time.Now(),
		Action:          models.ActionHold,
		CurrentReplicas: currentReplicas,
		TargetReplicas:  currentReplicas,
		Reason:          "within normal parameters",
	}

	for _, r := range recommendationRules {
		if r.guard(inf, gpu, currentReplicas) {
			target, action, reason := r.apply(currentReplicas)
			rec.Action = action
			rec.TargetReplicas = target
			rec.Reason = reason
			rec.RuleMatched = r.name
			break
		}
	}

	return rec
}
