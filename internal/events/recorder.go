package events

import (
	"context"

	"github.com/infralytics/inference-autoscaler/internal/logger"
	"github.com/infralytics/inference-autoscaler/pkg/database"
	"github.com/infralytics/inference-autoscaler/pkg/database/queries"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

// Recorder drains the event stream, logs every event and persists
// predictions and scaling recommendations. With a nil DB it degrades to
// log-only.
type Recorder struct {
	predictions     *queries.PredictionRepository
	recommendations *queries.RecommendationRepository
	eventChan       <-chan *models.Event
	ctx             context.Context
	cancel          context.CancelFunc
}

func NewRecorder(db *database.DB, eventChan <-chan *models.Event) *Recorder {
	ctx, cancel := context.WithCancel(context.Background())

	r := &Recorder{
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
	}
	if db != nil {
		r.predictions = queries.NewPredictionRepository(db.DB)
		r.recommendations = queries.NewRecommendationRepository(db.DB)
	}
	return r
}

func (r *Recorder) Start() {
	go r.run()
}

func (r *Recorder) Stop() {
	r.cancel()
}

func (r *Recorder) run() {
	for {
		select {
		case <-r.ctx.Done():
			return
		case event, ok := <-r.eventChan:
			if !ok {
				return
			}
			r.process(event)
		}
	}
}

func (r *Recorder) process(event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"service":    event.ServiceName,
		"severity":   event.Severity,
	})

	switch event.Severity {
	case models.SeverityCritical:
		entry.Error(event.Message)
	case models.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	switch event.Type {
	case models.EventTypePredictionMade:
		r.persistPrediction(event)
	case models.EventTypeScalingRecommended:
		r.persistRecommendation(event)
	}
}

func (r *Recorder) persistPrediction(event *models.Event) {
	if r.predictions == nil {
		return
	}

	prediction, ok := event.Data.(*models.PredictionResult)
	if !ok {
		return
	}

	if err := r.predictions.Insert(r.ctx, prediction); err != nil {
		logger.Errorf("Failed to persist prediction: %v", err)
	}
}

func (r *Recorder) persistRecommendation(event *models.Event) {
	if r.recommendations == nil {
		return
	}

	rec, ok := event.Data.(*models.ScalingRecommendation)
	if !ok {
		return
	}

	if err := r.recommendations.Insert(r.ctx, rec); err != nil {
		logger.Errorf("Failed to persist scaling recommendation: %v", err)
	}
}
