package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/infralytics/inference-autoscaler/pkg/config"
	"github.com/infralytics/inference-autoscaler/pkg/database/queries"
)

// PredictionHandler serves persisted prediction and recommendation history.
// Repositories are nil when persistence is disabled.
type PredictionHandler struct {
	predictionRepo     *queries.PredictionRepository
	recommendationRepo *queries.RecommendationRepository
	config             config.APIConfig
}

func NewPredictionHandler(predictionRepo *queries.PredictionRepository, recommendationRepo *queries.RecommendationRepository, cfg config.APIConfig) *PredictionHandler {
	return &PredictionHandler{
		predictionRepo:     predictionRepo,
		recommendationRepo: recommendationRepo,
		config:             cfg,
	}
}

func (h *PredictionHandler) GetHistory(c *gin.Context) {
	if h.predictionRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is disabled"})
		return
	}

	serviceName := c.Query("service")
	if serviceName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service query parameter is required"})
		return
	}

	from, to := h.parseTimeRange(c)
	limit := h.parseLimit(c)

	records, err := h.predictionRepo.GetByService(c.Request.Context(), serviceName, from, to, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch prediction history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"service_name": serviceName,
		"from":         from,
		"to":           to,
		"predictions":  records,
	})
}

func (h *PredictionHandler) GetRecommendations(c *gin.Context) {
	if h.recommendationRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is disabled"})
		return
	}

	serviceName := c.Query("service")
	if serviceName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service query parameter is required"})
		return
	}

	from, to := h.parseTimeRange(c)
	limit := h.parseLimit(c)

	records, err := h.recommendationRepo.GetByService(c.Request.Context(), serviceName, from, to, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recommendation history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"service_name":    serviceName,
		"from":            from,
		"to":              to,
		"recommendations": records,
	})
}

type ResolveActualRequest struct {
	ActualReplicas int `json:"actual_replicas" binding:"required,min=0"`
}

// ResolveActual records the replica count that was actually observed for
// a past prediction, enabling accuracy backtesting.
func (h *PredictionHandler) ResolveActual(c *gin.Context) {
	if h.predictionRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is disabled"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prediction id"})
		return
	}

	var req ResolveActualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.predictionRepo.ResolveActual(c.Request.Context(), id, req.ActualReplicas); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve prediction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "actual_replicas": req.ActualReplicas})
}

func (h *PredictionHandler) parseTimeRange(c *gin.Context) (time.Time, time.Time) {
	now := time.Now().UTC()
	from := now.Add(-24 * time.Hour)
	to := now

	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = t
		}
	}

	return from, to
}

func (h *PredictionHandler) parseLimit(c *gin.Context) int {
	limit := h.config.DefaultLimit
	if limit <= 0 {
		limit = 50
	}
	maxLimit := h.config.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 500
	}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return limit
}
