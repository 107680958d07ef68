package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/infralytics/inference-autoscaler/api"
	"github.com/infralytics/inference-autoscaler/internal/collector"
	"github.com/infralytics/inference-autoscaler/internal/logger"
	"github.com/infralytics/inference-autoscaler/internal/orchestrator"
	"github.com/infralytics/inference-autoscaler/pkg/config"
	"github.com/infralytics/inference-autoscaler/pkg/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	mockBackend := flag.Bool("mock-backend", false, "use a synthetic metrics backend instead of Prometheus")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.New(cfg.Database.ToDBConfig())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("Database connection established")
	} else {
		logger.Info("Persistence disabled, predictions will not be stored")
	}

	if *migrate {
		if db == nil {
			return fmt.Errorf("cannot migrate: database is disabled")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		logger.Info("Running database migrations")
		migrator := database.NewMigrator(db)
		if err := migrator.Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	orch := orchestrator.New(cfg, db)
	orch.Start()

	for _, svc := range cfg.Services {
		coll, err := buildCollector(cfg, *mockBackend)
		if err != nil {
			return fmt.Errorf("failed to build collector for %s: %w", svc.Name, err)
		}
		if err := orch.StartService(svc, coll); err != nil {
			return fmt.Errorf("failed to start service %s: %w", svc.Name, err)
		}
		logger.WithService(svc.Name).Info("Pipeline started")
	}

	server := api.NewServer(cfg, db, orch, orch.Metrics().Handler())

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		orch.Stop()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownTimeout := cfg.App.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API shutdown error: %v", err)
	}

	orch.Stop()

	logger.Info("Stopped gracefully")
	return nil
}

// buildCollector assembles the metrics source for one pipeline: either a
// Prometheus-backed collector wrapped in retries and a circuit breaker,
// or a synthetic one for local runs.
func buildCollector(cfg *config.Config, mock bool) (collector.Collector, error) {
	if mock {
		return collector.NewMockCollector(collector.MockCollectorConfig{}), nil
	}

	prom, err := collector.NewPrometheusCollector(collector.PrometheusCollectorConfig{
		Address:   cfg.Backend.Address,
		Timeout:   cfg.Backend.Timeout,
		CacheTTL:  cfg.Collector.CacheTTL,
		CacheSize: cfg.Collector.CacheSize,
	})
	if err != nil {
		return nil, err
	}

	return collector.NewResilientCollector(collector.ResilientCollectorConfig{
		Collector:        prom,
		FailureThreshold: cfg.Collector.CircuitBreaker.FailureThreshold,
		OpenTimeout:      cfg.Collector.CircuitBreaker.OpenTimeout,
		RetryAttempts:    cfg.Collector.RetryAttempts,
		RetryDelay:       cfg.Collector.RetryDelay,
	}), nil
}
