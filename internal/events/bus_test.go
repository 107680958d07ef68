package events_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infralytics/inference-autoscaler/internal/events"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

func receive(t *testing.T, ch <-chan *models.Event) *models.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventBus_SubscribeByType(t *testing.T) {
	bus := events.NewEventBus(8)
	defer bus.Close()

	predictions := bus.Subscribe(models.EventTypePredictionMade)
	alerts := bus.Subscribe(models.EventTypeAlert)

	bus.Publish(models.NewEvent(models.EventTypePredictionMade, "llm", "prediction"))

	e := receive(t, predictions)
	assert.Equal(t, models.EventTypePredictionMade, e.Type)
	assert.Equal(t, "llm", e.ServiceName)

	select {
	case <-alerts:
		t.Fatal("alert subscriber must not receive prediction events")
	default:
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := events.NewEventBus(8)
	defer bus.Close()

	all := bus.SubscribeAll()

	bus.Publish(models.NewEvent(models.EventTypeMetricCollected, "llm", "collected"))
	bus.Publish(models.NewEvent(models.EventTypeAlert, "llm", "alert"))

	assert.Equal(t, models.EventTypeMetricCollected, receive(t, all).Type)
	assert.Equal(t, models.EventTypeAlert, receive(t, all).Type)
}

func TestEventBus_FullSubscriberDropsEvent(t *testing.T) {
	bus := events.NewEventBus(1)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeAlert)

	// Second publish must not block even though the buffer is full.
	done := make(chan struct{})
	go func() {
		bus.Publish(models.NewEvent(models.EventTypeAlert, "llm", "first"))
		bus.Publish(models.NewEvent(models.EventTypeAlert, "llm", "second"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.Equal(t, "first", receive(t, ch).Message)
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := events.NewEventBus(8)
	ch := bus.SubscribeAll()

	bus.Close()
	bus.Publish(models.NewEvent(models.EventTypeAlert, "llm", "late"))

	_, open := <-ch
	assert.False(t, open, "subscriber channels close with the bus")
}

func TestPublisher_Severities(t *testing.T) {
	bus := events.NewEventBus(8)
	defer bus.Close()
	pub := events.NewPublisher(bus)

	ch := bus.SubscribeAll()

	pub.PatternsDetected("llm", []models.HistoricalPattern{{Type: models.PatternAnomalyDetected, Confidence: 0.5}})
	e := receive(t, ch)
	assert.Equal(t, models.EventTypePatternsDetected, e.Type)
	assert.Equal(t, models.SeverityWarning, e.Severity, "anomalies raise severity")

	pub.ScalingRecommended("llm", &models.ScalingRecommendation{Action: models.ActionScaleUp})
	e = receive(t, ch)
	assert.Equal(t, models.SeverityWarning, e.Severity)

	pub.ScalingRecommended("llm", &models.ScalingRecommendation{Action: models.ActionHold})
	e = receive(t, ch)
	assert.Equal(t, models.SeverityInfo, e.Severity)

	pub.Error("llm", "collection failed", errors.New("boom"))
	e = receive(t, ch)
	require.Equal(t, models.EventTypeError, e.Type)
	assert.Equal(t, models.SeverityCritical, e.Severity)
}
