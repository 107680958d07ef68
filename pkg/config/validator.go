package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Backend validation
	if c.Backend.Address == "" {
		errs = append(errs, errors.New("backend.address is required"))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("backend.timeout must be positive"))
	}

	// Collector validation
	if c.Collector.Interval <= 0 {
		errs = append(errs, errors.New("collector.interval must be positive"))
	}
	if c.Collector.Lookback <= 0 {
		errs = append(errs, errors.New("collector.lookback must be positive"))
	}
	if c.Collector.HistoryCapacity <= 0 {
		errs = append(errs, errors.New("collector.history_capacity must be positive"))
	}
	if c.Collector.RetryAttempts <= 0 {
		errs = append(errs, errors.New("collector.retry_attempts must be positive"))
	}

	// Detector validation
	if c.Detector.MinPoints <= 0 {
		errs = append(errs, errors.New("detector.min_points must be positive"))
	}
	if c.Detector.WeeklyMinPoints < c.Detector.MinPoints {
		errs = append(errs, errors.New("detector.weekly_min_points must be >= min_points"))
	}
	if c.Detector.OutlierSigma <= 0 {
		errs = append(errs, errors.New("detector.outlier_sigma must be positive"))
	}
	if c.Detector.ExtremeSigma < c.Detector.OutlierSigma {
		errs = append(errs, errors.New("detector.extreme_sigma must be >= outlier_sigma"))
	}

	// Forecast validation
	if c.Forecast.BucketInterval <= 0 {
		errs = append(errs, errors.New("forecast.bucket_interval must be positive"))
	}
	if c.Forecast.HorizonMinutes <= 0 {
		errs = append(errs, errors.New("forecast.horizon_minutes must be positive"))
	}

	// Service validation
	if len(c.Services) == 0 {
		errs = append(errs, errors.New("at least one service must be configured"))
	}
	seen := make(map[string]bool, len(c.Services))
	for i, svc := range c.Services {
		if svc.Name == "" {
			errs = append(errs, fmt.Errorf("services[%d].name is required", i))
			continue
		}
		if seen[svc.Name] {
			errs = append(errs, fmt.Errorf("services[%d].name %q is duplicated", i, svc.Name))
		}
		seen[svc.Name] = true
		if err := svc.Policy.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("services[%d] (%s): %w", i, svc.Name, err))
		}
	}

	// Database validation (only when persistence is on)
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required"))
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, errors.New("database.port must be between 1 and 65535"))
		}
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required"))
		}
		if c.Database.MaxConnections <= 0 {
			errs = append(errs, errors.New("database.max_connections must be positive"))
		}
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.API.DefaultLimit <= 0 || c.API.DefaultLimit > c.API.MaxLimit {
		errs = append(errs, errors.New("api.default_limit must be positive and <= api.max_limit"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
