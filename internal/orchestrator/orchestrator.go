package orchestrator

import (
	"fmt"
	"sync"

	"github.com/infralytics/inference-autoscaler/internal/collector"
	"github.com/infralytics/inference-autoscaler/internal/detector"
	"github.com/infralytics/inference-autoscaler/internal/events"
	"github.com/infralytics/inference-autoscaler/internal/forecast"
	"github.com/infralytics/inference-autoscaler/internal/logger"
	"github.com/infralytics/inference-autoscaler/internal/metrics"
	"github.com/infralytics/inference-autoscaler/internal/policy"
	"github.com/infralytics/inference-autoscaler/pkg/config"
	"github.com/infralytics/inference-autoscaler/pkg/database"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

// Orchestrator owns one pipeline per monitored service plus the shared
// event bus, recorder and instrumentation registry.
type Orchestrator struct {
	config    *config.Config
	eventBus  *events.EventBus
	recorder  *events.Recorder
	metrics   *metrics.Metrics
	pipelines map[string]*Pipeline
	mu        sync.RWMutex
}

func New(cfg *config.Config, db *database.DB) *Orchestrator {
	eventBus := events.NewEventBus(cfg.Events.BufferSize)
	recorder := events.NewRecorder(db, eventBus.SubscribeAll())

	return &Orchestrator{
		config:    cfg,
		eventBus:  eventBus,
		recorder:  recorder,
		metrics:   metrics.New(),
		pipelines: make(map[string]*Pipeline),
	}
}

func (o *Orchestrator) Start() {
	logger.Info("Orchestrator starting")
	o.recorder.Start()
}

func (o *Orchestrator) Stop() {
	logger.Info("Orchestrator stopping")

	o.mu.Lock()
	for name, pipeline := range o.pipelines {
		logger.WithService(name).Info("Stopping pipeline")
		pipeline.Stop()
	}
	o.mu.Unlock()

	o.recorder.Stop()
	o.eventBus.Close()

	logger.Info("Orchestrator stopped")
}

// StartService wires a new pipeline for a service. Each pipeline gets its
// own policy engine so no mutable state is shared between services.
func (o *Orchestrator) StartService(svc config.ServiceConfig, coll collector.Collector) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.pipelines[svc.Name]; exists {
		return fmt.Errorf("pipeline already exists for service %s", svc.Name)
	}

	scalingPolicy := svc.Policy
	if err := scalingPolicy.Validate(); err != nil {
		return fmt.Errorf("invalid scaling policy for %s: %w", svc.Name, err)
	}

	engine := policy.NewEngine(
		scalingPolicy,
		detector.New(detector.Config{
			MinPoints:       o.config.Detector.MinPoints,
			WeeklyMinPoints: o.config.Detector.WeeklyMinPoints,
			DailyVariation:  o.config.Detector.DailyVariation,
			WeekendDelta:    o.config.Detector.WeekendDelta,
			TrendStrength:   o.config.Detector.TrendStrength,
			VolatilityCV:    o.config.Detector.VolatilityCV,
			OutlierSigma:    o.config.Detector.OutlierSigma,
			ExtremeSigma:    o.config.Detector.ExtremeSigma,
			OutlierRatio:    o.config.Detector.OutlierRatio,
		}),
		forecast.New(forecast.Config{
			BucketInterval: o.config.Forecast.BucketInterval,
			BaselineWindow: o.config.Forecast.BaselineWindow,
		}),
		policy.Config{
			HorizonMinutes: o.config.Forecast.HorizonMinutes,
			CooldownPeriod: o.config.Policy.CooldownPeriod,
		},
	)

	pipeline := NewPipeline(PipelineConfig{
		ServiceName:     svc.Name,
		QueueName:       svc.Queue,
		CollectInterval: o.config.Collector.Interval,
		Lookback:        o.config.Collector.Lookback,
		HistoryCapacity: o.config.Collector.HistoryCapacity,
		InitialReplicas: svc.InitialReplicas,
		Collector:       coll,
		Engine:          engine,
		Publisher:       events.NewPublisher(o.eventBus),
		Metrics:         o.metrics,
	})

	o.pipelines[svc.Name] = pipeline
	pipeline.Start()
	return nil
}

func (o *Orchestrator) StopService(name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	pipeline, exists := o.pipelines[name]
	if !exists {
		return fmt.Errorf("no pipeline for service %s", name)
	}

	pipeline.Stop()
	delete(o.pipelines, name)
	return nil
}

func (o *Orchestrator) Pipeline(name string) (*Pipeline, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.pipelines[name]
	return p, ok
}

func (o *Orchestrator) ServiceNames() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	names := make([]string, 0, len(o.pipelines))
	for name := range o.pipelines {
		names = append(names, name)
	}
	return names
}

// SubscribeAllEvents exposes the event stream, used by the WebSocket
// bridge.
func (o *Orchestrator) SubscribeAllEvents() <-chan *models.Event {
	return o.eventBus.SubscribeAll()
}

func (o *Orchestrator) Metrics() *metrics.Metrics {
	return o.metrics
}
