package collector

import (
	"context"
	"time"

	"github.com/infralytics/inference-autoscaler/internal/logger"
	"github.com/infralytics/inference-autoscaler/internal/resilience"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

// ResilientCollector wraps another collector with retries and a circuit
// breaker. When every attempt fails it degrades to zero-valued snapshots
// instead of propagating the error: a scaling decision must always be
// computable, and a zero snapshot fails toward "hold".
type ResilientCollector struct {
	collector      Collector
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientCollectorConfig struct {
	Collector        Collector
	FailureThreshold int
	OpenTimeout      time.Duration
	RetryAttempts    int
	RetryDelay       time.Duration
	OnStateChange    func(name string, from, to resilience.State)
}

func NewResilientCollector(cfg ResilientCollectorConfig) *ResilientCollector {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "collector",
		FailureThreshold: cfg.FailureThreshold,
		OpenTimeout:      cfg.OpenTimeout,
		OnStateChange:    cfg.OnStateChange,
	})

	return &ResilientCollector{
		collector:      cfg.Collector,
		circuitBreaker: cb,
		retryAttempts:  cfg.RetryAttempts,
		retryDelay:     cfg.RetryDelay,
	}
}

func (c *ResilientCollector) CollectInferenceMetrics(ctx context.Context, serviceName string, lookback time.Duration) (*models.InferenceMetrics, error) {
	var metrics *models.InferenceMetrics

	err := c.execute(ctx, serviceName, func() error {
		var err error
		metrics, err = c.collector.CollectInferenceMetrics(ctx, serviceName, lookback)
		return err
	})
	if err != nil {
		logger.WithService(serviceName).Warnf("Inference collection degraded to zero metrics: %v", err)
		return ZeroInferenceMetrics(serviceName), nil
	}

	return metrics, nil
}

func (c *ResilientCollector) CollectGPUMetrics(ctx context.Context) (*models.GPUMetrics, error) {
	var metrics *models.GPUMetrics

	err := c.execute(ctx, "", func() error {
		var err error
		metrics, err = c.collector.CollectGPUMetrics(ctx)
		return err
	})
	if err != nil {
		logger.Warnf("GPU collection degraded to zero metrics: %v", err)
		return ZeroGPUMetrics(), nil
	}

	return metrics, nil
}

func (c *ResilientCollector) CollectTrainingMetrics(ctx context.Context) (*models.TrainingMetrics, error) {
	var metrics *models.TrainingMetrics

	err := c.execute(ctx, "", func() error {
		var err error
		metrics, err = c.collector.CollectTrainingMetrics(ctx)
		return err
	})
	if err != nil {
		logger.Warnf("Training collection degraded to zero metrics: %v", err)
		return ZeroTrainingMetrics(), nil
	}

	return metrics, nil
}

func (c *ResilientCollector) QueueDepth(ctx context.Context, queueName string) (int, error) {
	var depth int

	err := c.execute(ctx, "", func() error {
		var err error
		depth, err = c.collector.QueueDepth(ctx, queueName)
		return err
	})
	if err != nil {
		logger.Warnf("Queue depth collection degraded to 0 for %q: %v", queueName, err)
		return 0, nil
	}

	return depth, nil
}

func (c *ResilientCollector) execute(ctx context.Context, serviceName string, fn func() error) error {
	var lastErr error

	return c.circuitBreaker.Execute(func() error {
		for attempt := 1; attempt <= c.retryAttempts; attempt++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			err := fn()
			if err == nil {
				return nil
			}
			lastErr = err

			logger.WithService(serviceName).Debugf(
				"Collection attempt %d/%d failed: %v",
				attempt, c.retryAttempts, lastErr,
			)

			if attempt < c.retryAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(c.retryDelay):
				}
			}
		}
		return lastErr
	})
}

func (c *ResilientCollector) HealthCheck(ctx context.Context) error {
	return c.collector.HealthCheck(ctx)
}

func (c *ResilientCollector) Close() error {
	return c.collector.Close()
}

func (c *ResilientCollector) CircuitState() resilience.State {
	return c.circuitBreaker.State()
}

func (c *ResilientCollector) ResetCircuit() {
	c.circuitBreaker.Reset()
}
