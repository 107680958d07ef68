package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/infralytics/inference-autoscaler/internal/logger"
	"github.com/infralytics/inference-autoscaler/internal/simulator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	port := flag.Int("port", 9090, "port to serve the Prometheus-compatible API on")
	profileName := flag.String("profile", "daily", "load profile: steady, daily, weekly, ramp, spike")
	base := flag.Float64("base", 100, "baseline load in requests per second")
	variance := flag.Float64("variance", 0, "relative noise to add on top of the profile")
	seed := flag.Int64("seed", 1, "noise seed")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger.Setup(*logLevel, "development")
	logger.Info("Starting synthetic workload backend")

	profile := simulator.Parse(*profileName, *base)
	if *variance > 0 {
		profile = simulator.NewNoisyProfile(profile, *variance, *seed)
	}

	srv := simulator.New(simulator.Config{
		Port:    *port,
		Profile: profile,
	})

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start simulator: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down simulator")
	return srv.Stop()
}
