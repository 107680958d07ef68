package simulator

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/infralytics/inference-autoscaler/internal/logger"
)

// Server emulates the Prometheus HTTP query API, answering from a load
// profile instead of a TSDB. It lets the autoscaler run end to end
// without a real metrics stack.
type Server struct {
	config     Config
	profile    Profile
	router     *gin.Engine
	httpServer *http.Server
}

type Config struct {
	Port          int
	Profile       Profile
	LatencyBaseMs float64
	GPUBase       float64
	QueueBase     int
}

func New(cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
	if cfg.Profile == nil {
		cfg.Profile = &SteadyProfile{Base: 100}
	}
	if cfg.LatencyBaseMs == 0 {
		cfg.LatencyBaseMs = 120
	}
	if cfg.GPUBase == 0 {
		cfg.GPUBase = 45
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config:  cfg,
		profile: cfg.Profile,
		router:  router,
	}

	router.GET("/api/v1/query", s.handleQuery)
	router.POST("/api/v1/query", s.handleQuery)
	router.GET("/api/v1/query_range", s.handleQueryRange)
	router.POST("/api/v1/query_range", s.handleQueryRange)
	router.GET("/-/healthy", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Simulator server error: %v", err)
		}
	}()

	logger.Infof("Simulator serving profile %q on port %d", s.profile.Name(), s.config.Port)
	return nil
}

func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// valueFor maps a PromQL expression onto the profile. The autoscaler only
// issues a handful of query shapes, matched by substring.
func (s *Server) valueFor(query string, t time.Time) float64 {
	load := s.profile.LoadAt(t)

	switch {
	case strings.Contains(query, "histogram_quantile"):
		// Latency grows with load relative to the profile baseline.
		base := s.profile.LoadAt(t.Truncate(24 * time.Hour).Add(12 * time.Hour))
		if base <= 0 {
			base = 1
		}
		return s.config.LatencyBaseMs * (0.5 + load/base)
	case strings.Contains(query, "inference_request_errors_total"):
		return 0.002
	case strings.Contains(query, "inference_requests_total"):
		return load
	case strings.Contains(query, "DCGM_FI_DEV_GPU_UTIL"):
		util := s.config.GPUBase + load/10
		if util > 100 {
			util = 100
		}
		return util
	case strings.Contains(query, "queue_depth"):
		return float64(s.config.QueueBase) + load/20
	case strings.Contains(query, "training_loss"):
		return 0.42
	case strings.Contains(query, "node_cost_per_hour"):
		return 3.06
	case strings.Contains(query, "training_job_active"):
		return 2
	default:
		return load
	}
}

func (s *Server) handleQuery(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		query = c.PostForm("query")
	}

	t := time.Now()
	if v := firstOf(c, "time"); v != "" {
		if parsed, err := parsePromTime(v); err == nil {
			t = parsed
		}
	}

	value := s.valueFor(query, t)

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"resultType": "vector",
			"result": []gin.H{
				{
					"metric": gin.H{"__name__": "simulated"},
					"value":  []interface{}{float64(t.Unix()), formatValue(value)},
				},
			},
		},
	})
}

func (s *Server) handleQueryRange(c *gin.Context) {
	query := firstOf(c, "query")
	start, err1 := parsePromTime(firstOf(c, "start"))
	end, err2 := parsePromTime(firstOf(c, "end"))
	step, err3 := parsePromDuration(firstOf(c, "step"))
	if err1 != nil || err2 != nil || err3 != nil || step <= 0 || end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid range parameters"})
		return
	}

	var values []interface{}
	for t := start; !t.After(end); t = t.Add(step) {
		values = append(values, []interface{}{float64(t.Unix()), formatValue(s.valueFor(query, t))})
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"resultType": "matrix",
			"result": []gin.H{
				{
					"metric": gin.H{"__name__": "simulated"},
					"values": values,
				},
			},
		},
	})
}

func firstOf(c *gin.Context, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return c.PostForm(key)
}

func parsePromTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		sec := int64(f)
		nsec := int64((f - float64(sec)) * 1e9)
		return time.Unix(sec, nsec), nil
	}
	return time.Parse(time.RFC3339, v)
}

func parsePromDuration(v string) (time.Duration, error) {
	if v == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
