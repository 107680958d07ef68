package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/infralytics/inference-autoscaler/internal/orchestrator"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

// ServiceDirectory is the orchestrator surface the API needs.
type ServiceDirectory interface {
	ServiceNames() []string
	Pipeline(name string) (*orchestrator.Pipeline, bool)
	SubscribeAllEvents() <-chan *models.Event
}

type ServiceHandler struct {
	directory ServiceDirectory
}

func NewServiceHandler(directory ServiceDirectory) *ServiceHandler {
	return &ServiceHandler{directory: directory}
}

type ServiceSummary struct {
	Name            string     `json:"name"`
	Running         bool       `json:"running"`
	CurrentReplicas int        `json:"current_replicas"`
	HistoryPoints   int        `json:"history_points"`
	LastPredictedAt *time.Time `json:"last_predicted_at,omitempty"`
}

func (h *ServiceHandler) List(c *gin.Context) {
	names := h.directory.ServiceNames()
	summaries := make([]ServiceSummary, 0, len(names))

	for _, name := range names {
		p, ok := h.directory.Pipeline(name)
		if !ok {
			continue
		}
		summary := ServiceSummary{
			Name:            name,
			Running:         p.IsRunning(),
			CurrentReplicas: p.CurrentReplicas(),
			HistoryPoints:   p.HistoryLen(),
		}
		if pred := p.LastPrediction(); pred != nil {
			t := pred.CreatedAt
			summary.LastPredictedAt = &t
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, gin.H{"services": summaries})
}

func (h *ServiceHandler) pipeline(c *gin.Context) (*orchestrator.Pipeline, bool) {
	name := c.Param("name")
	p, ok := h.directory.Pipeline(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return nil, false
	}
	return p, true
}

func (h *ServiceHandler) GetPrediction(c *gin.Context) {
	p, ok := h.pipeline(c)
	if !ok {
		return
	}

	prediction := p.LastPrediction()
	if prediction == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no prediction available yet"})
		return
	}

	c.JSON(http.StatusOK, prediction)
}

func (h *ServiceHandler) GetPatterns(c *gin.Context) {
	p, ok := h.pipeline(c)
	if !ok {
		return
	}

	prediction := p.LastPrediction()
	if prediction == nil {
		c.JSON(http.StatusOK, gin.H{"patterns": []models.HistoricalPattern{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"patterns": prediction.DetectedPatterns})
}

func (h *ServiceHandler) GetForecast(c *gin.Context) {
	p, ok := h.pipeline(c)
	if !ok {
		return
	}

	prediction := p.LastPrediction()
	if prediction == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no forecast available yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"service_name": prediction.ServiceName,
		"created_at":   prediction.CreatedAt,
		"forecasts":    prediction.Forecasts,
	})
}

func (h *ServiceHandler) GetRecommendation(c *gin.Context) {
	p, ok := h.pipeline(c)
	if !ok {
		return
	}

	rec := p.LastRecommendation()
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recommendation available yet"})
		return
	}

	c.JSON(http.StatusOK, rec)
}
