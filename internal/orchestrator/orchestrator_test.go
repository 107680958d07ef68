package orchestrator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infralytics/inference-autoscaler/internal/collector"
	"github.com/infralytics/inference-autoscaler/internal/orchestrator"
	"github.com/infralytics/inference-autoscaler/pkg/config"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

func testConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	cfg.Collector.Interval = 50 * time.Millisecond
	return cfg
}

func testService(name string) config.ServiceConfig {
	return config.ServiceConfig{
		Name:            name,
		Queue:           name + "-queue",
		InitialReplicas: 2,
		Policy:          models.DefaultScalingPolicy(),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestOrchestrator_StartStopService(t *testing.T) {
	orch := orchestrator.New(testConfig(), nil)
	orch.Start()
	defer orch.Stop()

	coll := collector.NewMockCollector(collector.MockCollectorConfig{Seed: 1})
	require.NoError(t, orch.StartService(testService("llm"), coll))

	p, ok := orch.Pipeline("llm")
	require.True(t, ok)
	assert.True(t, p.IsRunning())
	assert.Equal(t, []string{"llm"}, orch.ServiceNames())

	// Starting the same service twice is rejected.
	assert.Error(t, orch.StartService(testService("llm"), coll))

	require.NoError(t, orch.StopService("llm"))
	assert.False(t, p.IsRunning())
	assert.Error(t, orch.StopService("llm"))
}

func TestPipeline_CycleProducesPrediction(t *testing.T) {
	orch := orchestrator.New(testConfig(), nil)
	orch.Start()
	defer orch.Stop()

	coll := collector.NewMockCollector(collector.MockCollectorConfig{Seed: 1, BaseRPS: 120})
	require.NoError(t, orch.StartService(testService("llm"), coll))

	p, _ := orch.Pipeline("llm")

	waitFor(t, func() bool { return p.LastPrediction() != nil })

	prediction := p.LastPrediction()
	assert.Equal(t, "llm", prediction.ServiceName)
	assert.GreaterOrEqual(t, prediction.PredictedReplicas, 1)
	assert.LessOrEqual(t, prediction.PredictedReplicas, 10)
	assert.NotEmpty(t, prediction.Reasoning)

	assert.NotNil(t, p.LastRecommendation())
	assert.Greater(t, p.HistoryLen(), 0)
}

func TestPipeline_DegradedCollectorStillCycles(t *testing.T) {
	orch := orchestrator.New(testConfig(), nil)
	orch.Start()
	defer orch.Stop()

	coll := collector.NewMockCollector(collector.MockCollectorConfig{Seed: 1})
	coll.SetShouldFail(true, nil)
	require.NoError(t, orch.StartService(testService("llm"), coll))

	p, _ := orch.Pipeline("llm")
	waitFor(t, func() bool { return p.LastPrediction() != nil })

	// Failed collection degrades to zero metrics; the cycle still runs and
	// holds at the current replica count.
	assert.Equal(t, 2, p.CurrentReplicas())
	assert.Greater(t, p.HistoryLen(), 0)
}

func TestPipeline_EventsFlow(t *testing.T) {
	orch := orchestrator.New(testConfig(), nil)
	orch.Start()
	defer orch.Stop()

	eventsChan := orch.SubscribeAllEvents()

	coll := collector.NewMockCollector(collector.MockCollectorConfig{Seed: 1})
	require.NoError(t, orch.StartService(testService("llm"), coll))

	seen := make(map[models.EventType]bool)
	deadline := time.After(2 * time.Second)
	for !(seen[models.EventTypeMetricCollected] && seen[models.EventTypePredictionMade]) {
		select {
		case e := <-eventsChan:
			seen[e.Type] = true
		case <-deadline:
			t.Fatalf("expected events not observed, got %v", seen)
		}
	}
}

func TestPipeline_SeedHistoryFeedsDetection(t *testing.T) {
	orch := orchestrator.New(testConfig(), nil)
	orch.Start()
	defer orch.Stop()

	coll := collector.NewMockCollector(collector.MockCollectorConfig{Seed: 1, BaseRPS: 100})
	require.NoError(t, orch.StartService(testService("llm"), coll))

	p, _ := orch.Pipeline("llm")

	// Preload two days of flat history.
	start := time.Now().Add(-48 * time.Hour)
	points := make([]models.MetricDataPoint, 48)
	for i := range points {
		points[i] = models.MetricDataPoint{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Value:     100,
		}
	}
	p.SeedHistory(points)

	waitFor(t, func() bool {
		pred := p.LastPrediction()
		return pred != nil && len(pred.DetectedPatterns) > 0
	})
}
