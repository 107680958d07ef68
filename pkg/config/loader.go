package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/infralytics/inference-autoscaler/pkg/models"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/inference-autoscaler")
	}

	v.SetEnvPrefix("AUTOSCALER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: defaults plus env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Services without a policy block fall back to the stock policy.
	for i := range cfg.Services {
		if cfg.Services[i].Policy.IsZero() {
			cfg.Services[i].Policy = models.DefaultScalingPolicy()
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "inference-autoscaler")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	v.SetDefault("backend.address", "http://localhost:9090")
	v.SetDefault("backend.timeout", "10s")

	v.SetDefault("collector.interval", "30s")
	v.SetDefault("collector.lookback", "5m")
	v.SetDefault("collector.history_capacity", 2016)
	v.SetDefault("collector.retry_attempts", 3)
	v.SetDefault("collector.retry_delay", "1s")
	v.SetDefault("collector.cache_ttl", "30s")
	v.SetDefault("collector.cache_size", 256)
	v.SetDefault("collector.circuit_breaker.failure_threshold", 5)
	v.SetDefault("collector.circuit_breaker.open_timeout", "30s")

	v.SetDefault("detector.min_points", 24)
	v.SetDefault("detector.weekly_min_points", 168)
	v.SetDefault("detector.daily_variation", 0.1)
	v.SetDefault("detector.weekend_delta", 0.3)
	v.SetDefault("detector.trend_strength", 0.01)
	v.SetDefault("detector.volatility_cv", 0.5)
	v.SetDefault("detector.outlier_sigma", 2.0)
	v.SetDefault("detector.extreme_sigma", 5.0)
	v.SetDefault("detector.outlier_ratio", 0.05)

	v.SetDefault("forecast.bucket_interval", "5m")
	v.SetDefault("forecast.baseline_window", 24)
	v.SetDefault("forecast.horizon_minutes", 60)

	v.SetDefault("policy.cooldown_period", "5m")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.idle_timeout", "60s")
	v.SetDefault("api.default_limit", 50)
	v.SetDefault("api.max_limit", 500)

	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.client_buffer", 64)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "autoscaler")
	v.SetDefault("database.user", "autoscaler")
	v.SetDefault("database.password", "autoscaler")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("events.buffer_size", 100)
}
