package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/infralytics/inference-autoscaler/api/handlers"
	"github.com/infralytics/inference-autoscaler/api/middleware"
	"github.com/infralytics/inference-autoscaler/api/websocket"
	"github.com/infralytics/inference-autoscaler/pkg/config"
	"github.com/infralytics/inference-autoscaler/pkg/database"
	"github.com/infralytics/inference-autoscaler/pkg/database/queries"
)

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     config.APIConfig
	db         *database.DB
	directory  handlers.ServiceDirectory
	metricsH   http.Handler
	wsHub      *websocket.Hub
	wsBridge   *websocket.EventBridge
}

func NewServer(cfg *config.Config, db *database.DB, directory handlers.ServiceDirectory, metricsHandler http.Handler) *Server {
	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	wsHub := websocket.NewHub(cfg.WebSocket)

	s := &Server{
		router:    router,
		config:    cfg.API,
		db:        db,
		directory: directory,
		metricsH:  metricsHandler,
		wsHub:     wsHub,
	}

	s.setupMiddleware(cfg.API)
	s.setupRoutes()

	go wsHub.Run()

	// Forward pipeline events to WebSocket clients.
	if directory != nil {
		eventsChan := directory.SubscribeAllEvents()
		s.wsBridge = websocket.NewEventBridge(wsHub, eventsChan)
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware(cfg config.APIConfig) {
	s.router.Use(gin.Recovery())

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	if len(cfg.CORS.AllowedMethods) > 0 {
		corsCfg.AllowMethods = cfg.CORS.AllowedMethods
	}
	if len(cfg.CORS.AllowedHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.CORS.AllowedHeaders
	}
	corsCfg.AllowCredentials = cfg.CORS.AllowCredentials

	s.router.Use(middleware.CORS(corsCfg))
	s.router.Use(middleware.RequestLogger())
}

func (s *Server) setupRoutes() {
	var predictionRepo *queries.PredictionRepository
	var recommendationRepo *queries.RecommendationRepository
	if s.db != nil {
		predictionRepo = queries.NewPredictionRepository(s.db.DB)
		recommendationRepo = queries.NewRecommendationRepository(s.db.DB)
	}

	healthHandler := handlers.NewHealthHandler(s.db)
	serviceHandler := handlers.NewServiceHandler(s.directory)
	predictionHandler := handlers.NewPredictionHandler(predictionRepo, recommendationRepo, s.config)

	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	if s.metricsH != nil {
		s.router.GET("/metrics", gin.WrapH(s.metricsH))
	}

	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/services", serviceHandler.List)
		v1.GET("/services/:name/prediction", serviceHandler.GetPrediction)
		v1.GET("/services/:name/patterns", serviceHandler.GetPatterns)
		v1.GET("/services/:name/forecast", serviceHandler.GetForecast)
		v1.GET("/services/:name/recommendation", serviceHandler.GetRecommendation)

		v1.GET("/predictions/history", predictionHandler.GetHistory)
		v1.GET("/recommendations/history", predictionHandler.GetRecommendations)
		v1.POST("/predictions/:id/actual", predictionHandler.ResolveActual)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	idleTimeout := s.config.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 60 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  idleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}
	s.wsHub.Stop()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
