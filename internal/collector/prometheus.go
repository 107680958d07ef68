package collector

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/infralytics/inference-autoscaler/internal/cache"
	"github.com/infralytics/inference-autoscaler/internal/logger"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

// PrometheusCollector reads workload metrics from a Prometheus-compatible
// backend. Queries that succeed but match no series degrade to zero-valued
// snapshots; transport failures surface as errors for the resilient wrapper
// to absorb.
type PrometheusCollector struct {
	queryAPI promv1.API
	timeout  time.Duration
	cache    *cache.TTLCache
}

type PrometheusCollectorConfig struct {
	Address      string
	Timeout      time.Duration
	CacheTTL     time.Duration
	CacheSize    int
	RoundTripper http.RoundTripper
}

func NewPrometheusCollector(cfg PrometheusCollectorConfig) (*PrometheusCollector, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	rt := cfg.RoundTripper
	if rt == nil {
		rt = api.DefaultRoundTripper
	}

	client, err := api.NewClient(api.Config{
		Address:      cfg.Address,
		RoundTripper: rt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &PrometheusCollector{
		queryAPI: promv1.NewAPI(client),
		timeout:  timeout,
		cache:    cache.NewTTLCache(cfg.CacheTTL, cfg.CacheSize),
	}, nil
}

func (c *PrometheusCollector) CollectInferenceMetrics(ctx context.Context, serviceName string, lookback time.Duration) (*models.InferenceMetrics, error) {
	if lookback <= 0 {
		lookback = 5 * time.Minute
	}

	cacheKey := fmt.Sprintf("inference:%s:%s", serviceName, lookback)
	if cached, ok := c.cache.Get(cacheKey); ok {
		m := cached.(models.InferenceMetrics)
		return &m, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	now := time.Now()

	latencyQuery := fmt.Sprintf(
		`histogram_quantile(0.95, sum by (le) (rate(inference_request_duration_seconds_bucket{service=%q}[5m])))`,
		serviceName,
	)
	latencyResult, warnings, err := c.queryAPI.QueryRange(ctx, latencyQuery, promv1.Range{
		Start: now.Add(-lookback),
		End:   now,
		Step:  time.Minute,
	})
	if err != nil {
		return nil, c.wrapQueryError("p95 latency", err)
	}
	logWarnings(serviceName, warnings)

	rateQuery := fmt.Sprintf(`sum(rate(inference_requests_total{service=%q}[5m]))`, serviceName)
	rateResult, warnings, err := c.queryAPI.Query(ctx, rateQuery, now)
	if err != nil {
		return nil, c.wrapQueryError("request rate", err)
	}
	logWarnings(serviceName, warnings)

	errQuery := fmt.Sprintf(
		`sum(rate(inference_requests_total{service=%q,status="error"}[5m])) / sum(rate(inference_requests_total{service=%q}[5m]))`,
		serviceName, serviceName,
	)
	errResult, _, err := c.queryAPI.Query(ctx, errQuery, now)
	if err != nil {
		return nil, c.wrapQueryError("error rate", err)
	}

	latencySeconds, samples := meanOfMatrix(latencyResult)

	metrics := models.InferenceMetrics{
		ServiceName:    serviceName,
		Timestamp:      now,
		P95LatencyMs:   latencySeconds * 1000,
		RequestsPerSec: scalarOf(rateResult),
		ErrorRate:      scalarOf(errResult),
		SampleCount:    samples,
	}

	c.cache.Set(cacheKey, metrics)

	logger.WithService(serviceName).Debugf(
		"Collected inference metrics: p95=%.1fms rate=%.2f/s samples=%d",
		metrics.P95LatencyMs, metrics.RequestsPerSec, metrics.SampleCount,
	)

	return &metrics, nil
}

func (c *PrometheusCollector) CollectGPUMetrics(ctx context.Context) (*models.GPUMetrics, error) {
	if cached, ok := c.cache.Get("gpu"); ok {
		m := cached.(models.GPUMetrics)
		return &m, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	now := time.Now()
	result, warnings, err := c.queryAPI.Query(ctx, `DCGM_FI_DEV_GPU_UTIL`, now)
	if err != nil {
		return nil, c.wrapQueryError("gpu utilization", err)
	}
	logWarnings("", warnings)

	metrics := models.GPUMetrics{Timestamp: now}

	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		var total float64
		for _, sample := range vector {
			util := float64(sample.Value)
			total += util
			if util > metrics.MaxUtilization {
				metrics.MaxUtilization = util
			}
			if util > 90 {
				metrics.HighUtilizationGPUs++
			}
		}
		metrics.GPUCount = len(vector)
		metrics.AvgUtilization = total / float64(len(vector))
	}

	c.cache.Set("gpu", metrics)
	return &metrics, nil
}

func (c *PrometheusCollector) CollectTrainingMetrics(ctx context.Context) (*models.TrainingMetrics, error) {
	if cached, ok := c.cache.Get("training"); ok {
		m := cached.(models.TrainingMetrics)
		return &m, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	now := time.Now()
	metrics := models.TrainingMetrics{Timestamp: now}

	lossResult, _, err := c.queryAPI.Query(ctx, `avg(training_loss)`, now)
	if err != nil {
		return nil, c.wrapQueryError("training loss", err)
	}
	metrics.Loss = scalarOf(lossResult)

	costResult, _, err := c.queryAPI.Query(ctx, `sum(node_cost_per_hour)`, now)
	if err != nil {
		return nil, c.wrapQueryError("cost", err)
	}
	metrics.CostPerHour = scalarOf(costResult)

	jobsResult, _, err := c.queryAPI.Query(ctx, `count(training_job_active == 1)`, now)
	if err != nil {
		return nil, c.wrapQueryError("active jobs", err)
	}
	metrics.ActiveJobs = int(scalarOf(jobsResult))

	c.cache.Set("training", metrics)
	return &metrics, nil
}

func (c *PrometheusCollector) QueueDepth(ctx context.Context, queueName string) (int, error) {
	cacheKey := "queue:" + queueName
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(int), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := fmt.Sprintf(`sum(inference_queue_depth{queue=%q})`, queueName)
	result, _, err := c.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, c.wrapQueryError("queue depth", err)
	}

	depth := int(scalarOf(result))
	c.cache.Set(cacheKey, depth)
	return depth, nil
}

func (c *PrometheusCollector) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, _, err := c.queryAPI.Query(ctx, `up`, time.Now()); err != nil {
		return fmt.Errorf("backend health check failed: %w", err)
	}
	return nil
}

func (c *PrometheusCollector) Close() error {
	c.cache.Clear()
	return nil
}

func (c *PrometheusCollector) wrapQueryError(what string, err error) error {
	if err == context.DeadlineExceeded {
		return fmt.Errorf("%w: %s query", ErrTimeout, what)
	}
	return fmt.Errorf("%w: %s query: %v", ErrCollectionFailed, what, err)
}

// meanOfMatrix averages all finite samples of a range query result and
// returns the sample count. An empty result yields (0, 0).
func meanOfMatrix(result model.Value) (float64, int) {
	matrix, ok := result.(model.Matrix)
	if !ok || len(matrix) == 0 {
		return 0, 0
	}

	var total float64
	var count int
	for _, series := range matrix {
		for _, sample := range series.Values {
			v := float64(sample.Value)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			total += v
			count++
		}
	}

	if count == 0 {
		return 0, 0
	}
	return total / float64(count), count
}

// scalarOf extracts a single value from an instant query result, 0 when the
// result is empty or not a number.
func scalarOf(result model.Value) float64 {
	switch v := result.(type) {
	case model.Vector:
		if len(v) == 0 {
			return 0
		}
		f := float64(v[0].Value)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	case *model.Scalar:
		f := float64(v.Value)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

func logWarnings(serviceName string, warnings promv1.Warnings) {
	for _, w := range warnings {
		logger.WithService(serviceName).Warnf("Backend query warning: %s", w)
	}
}
