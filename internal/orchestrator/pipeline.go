package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/infralytics/inference-autoscaler/internal/collector"
	"github.com/infralytics/inference-autoscaler/internal/events"
	"github.com/infralytics/inference-autoscaler/internal/logger"
	"github.com/infralytics/inference-autoscaler/internal/metrics"
	"github.com/infralytics/inference-autoscaler/internal/policy"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

type PipelineConfig struct {
	ServiceName     string
	QueueName       string
	CollectInterval time.Duration
	Lookback        time.Duration
	HistoryCapacity int
	InitialReplicas int
	Collector       collector.Collector
	Engine          *policy.Engine
	Publisher       *events.Publisher
	Metrics         *metrics.Metrics
}

// Pipeline runs the prediction loop for one service: collect, record
// history, detect patterns, forecast, decide. Each pipeline owns its
// history buffer and caches exclusively; pipelines share nothing mutable.
type Pipeline struct {
	config  PipelineConfig
	history *models.HistoryWindow

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	currentReplicas int
	lastPrediction  *models.PredictionResult
	lastReactive    *models.ScalingRecommendation
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.CollectInterval == 0 {
		cfg.CollectInterval = 30 * time.Second
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = 5 * time.Minute
	}
	if cfg.InitialReplicas <= 0 {
		cfg.InitialReplicas = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		config:          cfg,
		history:         models.NewHistoryWindow(cfg.HistoryCapacity),
		ctx:             ctx,
		cancel:          cancel,
		currentReplicas: cfg.InitialReplicas,
	}
}

func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.wg.Add(1)
	go p.run()

	logger.WithService(p.config.ServiceName).Info("Pipeline started")
}

func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	logger.WithService(p.config.ServiceName).Info("Pipeline stopped")
}

func (p *Pipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pipeline) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CollectInterval)
	defer ticker.Stop()

	p.runCycle()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.runCycle()
		}
	}
}

func (p *Pipeline) runCycle() {
	started := time.Now()
	ctx, cancel := context.WithTimeout(p.ctx, p.config.CollectInterval)
	defer cancel()

	serviceName := p.config.ServiceName
	p.config.Metrics.CollectionsTotal.WithLabelValues(serviceName).Inc()

	inf, err := p.config.Collector.CollectInferenceMetrics(ctx, serviceName, p.config.Lookback)
	if err != nil {
		// Resilient collectors degrade instead of erroring; a raw collector
		// here still must not halt the cycle.
		logger.WithService(serviceName).Errorf("Collection failed, using zero metrics: %v", err)
		p.config.Publisher.Error(serviceName, "Metric collection failed", err)
		p.config.Metrics.CollectionErrors.WithLabelValues(serviceName).Inc()
		inf = collector.ZeroInferenceMetrics(serviceName)
	}
	p.config.Publisher.MetricCollected(serviceName, inf)

	gpu, err := p.config.Collector.CollectGPUMetrics(ctx)
	if err != nil {
		p.config.Metrics.CollectionErrors.WithLabelValues(serviceName).Inc()
		gpu = collector.ZeroGPUMetrics()
	}

	now := time.Now()
	p.mu.Lock()
	p.history.Append(models.MetricDataPoint{
		Timestamp: now,
		Value:     inf.RequestsPerSec,
		Metadata:  map[string]string{"metric": "requests_per_sec"},
	})
	history := p.history.Points()
	current := p.currentReplicas
	p.mu.Unlock()

	reactive := collector.Recommend(inf, gpu, current)
	if reactive.ShouldExecute() {
		p.config.Publisher.ScalingRecommended(serviceName, reactive)
	}

	prediction := p.config.Engine.PredictScalingNeeds(serviceName, history, current, now)
	p.config.Publisher.PatternsDetected(serviceName, prediction.DetectedPatterns)
	p.config.Publisher.ForecastReady(serviceName, prediction.Forecasts)
	p.config.Publisher.PredictionMade(serviceName, prediction)

	p.observe(prediction, reactive)

	if p.config.Engine.ShouldScaleProactively(prediction, now) && !p.config.Engine.InCooldown() {
		p.config.Engine.RecordScaling()
		p.mu.Lock()
		p.currentReplicas = prediction.PredictedReplicas
		p.mu.Unlock()

		logger.WithService(serviceName).Infof(
			"Proactive scaling: %d -> %d replicas (confidence %.2f)",
			prediction.CurrentReplicas, prediction.PredictedReplicas, prediction.Confidence,
		)
	}

	p.config.Metrics.CycleDuration.WithLabelValues(serviceName).Observe(time.Since(started).Seconds())
}

func (p *Pipeline) observe(prediction *models.PredictionResult, reactive *models.ScalingRecommendation) {
	serviceName := p.config.ServiceName
	m := p.config.Metrics

	m.PredictionsTotal.WithLabelValues(serviceName).Inc()
	m.PredictedReplicas.WithLabelValues(serviceName).Set(float64(prediction.PredictedReplicas))
	m.Confidence.WithLabelValues(serviceName).Set(prediction.Confidence)

	for _, t := range []models.PatternType{
		models.PatternDailyCycle, models.PatternWeeklyCycle, models.PatternTrend,
		models.PatternVolatile, models.PatternStable, models.PatternAnomalyDetected,
	} {
		v := 0.0
		if prediction.HasPattern(t) {
			v = 1.0
		}
		m.PatternsDetected.WithLabelValues(serviceName, string(t)).Set(v)
	}

	p.mu.Lock()
	p.lastPrediction = prediction
	p.lastReactive = reactive
	p.mu.Unlock()
}

// LastPrediction returns the most recent prediction, nil before the first
// cycle completes.
func (p *Pipeline) LastPrediction() *models.PredictionResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastPrediction
}

func (p *Pipeline) LastRecommendation() *models.ScalingRecommendation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastReactive
}

func (p *Pipeline) CurrentReplicas() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentReplicas
}

// SetCurrentReplicas records the replica count reported by the external
// orchestrator.
func (p *Pipeline) SetCurrentReplicas(n int) {
	if n < 1 {
		return
	}
	p.mu.Lock()
	p.currentReplicas = n
	p.mu.Unlock()
}

func (p *Pipeline) HistoryLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.Len()
}

// SeedHistory preloads the buffer, used by the load generator and tests.
func (p *Pipeline) SeedHistory(points []models.MetricDataPoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pt := range points {
		p.history.Append(pt)
	}
}
