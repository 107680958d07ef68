package collector

import (
	"context"
	"math/rand"
	"time"

	"github.com/infralytics/inference-autoscaler/pkg/models"
)

// MockCollector generates synthetic metrics for tests and local runs.
type MockCollector struct {
	baseLatencyMs float64
	baseRPS       float64
	baseGPUUtil   float64
	gpuCount      int
	queueDepths   map[string]int
	variance      float64
	shouldFail    bool
	failureError  error
	rng           *rand.Rand
}

type MockCollectorConfig struct {
	BaseLatencyMs float64
	BaseRPS       float64
	BaseGPUUtil   float64
	GPUCount      int
	Variance      float64
	Seed          int64
}

func NewMockCollector(cfg MockCollectorConfig) *MockCollector {
	if cfg.BaseLatencyMs == 0 {
		cfg.BaseLatencyMs = 120.0
	}
	if cfg.BaseRPS == 0 {
		cfg.BaseRPS = 40.0
	}
	if cfg.BaseGPUUtil == 0 {
		cfg.BaseGPUUtil = 60.0
	}
	if cfg.GPUCount == 0 {
		cfg.GPUCount = 4
	}
	if cfg.Variance == 0 {
		cfg.Variance = 0.1
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &MockCollector{
		baseLatencyMs: cfg.BaseLatencyMs,
		baseRPS:       cfg.BaseRPS,
		baseGPUUtil:   cfg.BaseGPUUtil,
		gpuCount:      cfg.GPUCount,
		queueDepths:   make(map[string]int),
		variance:      cfg.Variance,
		rng:           rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (c *MockCollector) SetBaseRPS(rps float64) {
	c.baseRPS = rps
}

func (c *MockCollector) SetBaseLatency(ms float64) {
	c.baseLatencyMs = ms
}

func (c *MockCollector) SetQueueDepth(queue string, depth int) {
	c.queueDepths[queue] = depth
}

func (c *MockCollector) SetShouldFail(shouldFail bool, err error) {
	c.shouldFail = shouldFail
	c.failureError = err
}

func (c *MockCollector) CollectInferenceMetrics(_ context.Context, serviceName string, _ time.Duration) (*models.InferenceMetrics, error) {
	if err := c.failure(); err != nil {
		return nil, err
	}

	return &models.InferenceMetrics{
		ServiceName:    serviceName,
		Timestamp:      time.Now(),
		P95LatencyMs:   c.jitter(c.baseLatencyMs),
		RequestsPerSec: c.jitter(c.baseRPS),
		SampleCount:    60,
	}, nil
}

func (c *MockCollector) CollectGPUMetrics(_ context.Context) (*models.GPUMetrics, error) {
	if err := c.failure(); err != nil {
		return nil, err
	}

	metrics := &models.GPUMetrics{
		Timestamp: time.Now(),
		GPUCount:  c.gpuCount,
	}

	var total float64
	for i := 0; i < c.gpuCount; i++ {
		util := c.jitter(c.baseGPUUtil)
		if util > 100 {
			util = 100
		}
		total += util
		if util > metrics.MaxUtilization {
			metrics.MaxUtilization = util
		}
		if util > 90 {
			metrics.HighUtilizationGPUs++
		}
	}
	if c.gpuCount > 0 {
		metrics.AvgUtilization = total / float64(c.gpuCount)
	}

	return metrics, nil
}

func (c *MockCollector) CollectTrainingMetrics(_ context.Context) (*models.TrainingMetrics, error) {
	if err := c.failure(); err != nil {
		return nil, err
	}

	return &models.TrainingMetrics{
		Timestamp:   time.Now(),
		Loss:        c.jitter(0.42),
		CostPerHour: c.jitter(18.5),
		ActiveJobs:  1,
	}, nil
}

func (c *MockCollector) QueueDepth(_ context.Context, queueName string) (int, error) {
	if err := c.failure(); err != nil {
		return 0, err
	}
	return c.queueDepths[queueName], nil
}

func (c *MockCollector) HealthCheck(_ context.Context) error {
	return c.failure()
}

func (c *MockCollector) Close() error {
	return nil
}

func (c *MockCollector) failure() error {
	if !c.shouldFail {
		return nil
	}
	if c.failureError != nil {
		return c.failureError
	}
	return ErrCollectionFailed
}

func (c *MockCollector) jitter(base float64) float64 {
	v := base * (1 + (c.rng.Float64()*2-1)*c.variance)
	if v < 0 {
		return 0
	}
	return v
}
