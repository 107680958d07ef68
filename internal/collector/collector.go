package collector

import (
	"context"
	"errors"
	"time"

	"github.com/infralytics/inference-autoscaler/pkg/models"
)

var (
	ErrCollectionFailed = errors.New("metric collection failed")
	ErrTimeout          = errors.New("collection timeout")
	ErrInvalidResponse  = errors.New("invalid response from metrics backend")
)

// Collector translates time-series backend queries into typed snapshots.
//
// Data absence is never an error: a query that succeeds but matches no
// series yields a zero-valued snapshot. Errors are reserved for transport
// and backend failures.
type Collector interface {
	// CollectInferenceMetrics fetches P95 latency and request rate for a
	// service over the lookback window.
	CollectInferenceMetrics(ctx context.Context, serviceName string, lookback time.Duration) (*models.InferenceMetrics, error)

	// CollectGPUMetrics aggregates per-GPU utilization across the fleet.
	CollectGPUMetrics(ctx context.Context) (*models.GPUMetrics, error)

	// CollectTrainingMetrics fetches the latest training loss and cost.
	CollectTrainingMetrics(ctx context.Context) (*models.TrainingMetrics, error)

	// QueueDepth returns the current depth of a request queue, 0 when the
	// backend has no data for it.
	QueueDepth(ctx context.Context, queueName string) (int, error)

	// HealthCheck verifies the collector can reach its backend.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the collector.
	Close() error
}

// ZeroInferenceMetrics is the degraded snapshot used when the backend is
// unreachable or returns no data.
func ZeroInferenceMetrics(serviceName string) *models.InferenceMetrics {
	return &models.InferenceMetrics{
		ServiceName: serviceName,
		Timestamp:   time.Now(),
	}
}

// ZeroGPUMetrics is the degraded GPU snapshot.
func ZeroGPUMetrics() *models.GPUMetrics {
	return &models.GPUMetrics{Timestamp: time.Now()}
}

// ZeroTrainingMetrics is the degraded training snapshot.
func ZeroTrainingMetrics() *models.TrainingMetrics {
	return &models.TrainingMetrics{Timestamp: time.Now()}
}
