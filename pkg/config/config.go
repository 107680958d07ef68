package config

import (
	"time"

	"github.com/infralytics/inference-autoscaler/pkg/database"
	"github.com/infralytics/inference-autoscaler/pkg/models"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Collector CollectorConfig `mapstructure:"collector"`
	Detector  DetectorConfig  `mapstructure:"detector"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Services  []ServiceConfig `mapstructure:"services"`
	API       APIConfig       `mapstructure:"api"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Events    EventsConfig    `mapstructure:"events"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Mode            string        `mapstructure:"mode"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BackendConfig points at the Prometheus-compatible metrics backend.
type BackendConfig struct {
	Address string        `mapstructure:"address"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CollectorConfig struct {
	Interval        time.Duration        `mapstructure:"interval"`
	Lookback        time.Duration        `mapstructure:"lookback"`
	HistoryCapacity int                  `mapstructure:"history_capacity"`
	RetryAttempts   int                  `mapstructure:"retry_attempts"`
	RetryDelay      time.Duration        `mapstructure:"retry_delay"`
	CacheTTL        time.Duration        `mapstructure:"cache_ttl"`
	CacheSize       int                  `mapstructure:"cache_size"`
	CircuitBreaker  CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type CircuitBreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

type DetectorConfig struct {
	MinPoints       int     `mapstructure:"min_points"`
	WeeklyMinPoints int     `mapstructure:"weekly_min_points"`
	DailyVariation  float64 `mapstructure:"daily_variation"`
	WeekendDelta    float64 `mapstructure:"weekend_delta"`
	TrendStrength   float64 `mapstructure:"trend_strength"`
	VolatilityCV    float64 `mapstructure:"volatility_cv"`
	OutlierSigma    float64 `mapstructure:"outlier_sigma"`
	ExtremeSigma    float64 `mapstructure:"extreme_sigma"`
	OutlierRatio    float64 `mapstructure:"outlier_ratio"`
}

type ForecastConfig struct {
	BucketInterval time.Duration `mapstructure:"bucket_interval"`
	BaselineWindow int           `mapstructure:"baseline_window"`
	HorizonMinutes int           `mapstructure:"horizon_minutes"`
}

type PolicyConfig struct {
	CooldownPeriod time.Duration `mapstructure:"cooldown_period"`
}

// ServiceConfig declares one inference service to watch.
type ServiceConfig struct {
	Name            string               `mapstructure:"name"`
	Queue           string               `mapstructure:"queue"`
	InitialReplicas int                  `mapstructure:"initial_replicas"`
	Policy          models.ScalingPolicy `mapstructure:"policy"`
}

type APIConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type WebSocketConfig struct {
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	ClientBuffer    int           `mapstructure:"client_buffer"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxConnections  int           `mapstructure:"max_connections"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

func (d DatabaseConfig) ToDBConfig() database.Config {
	return database.Config{
		Host:            d.Host,
		Port:            d.Port,
		Name:            d.Name,
		User:            d.User,
		Password:        d.Password,
		MaxConnections:  d.MaxConnections,
		SSLMode:         d.SSLMode,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
		PingTimeout:     d.PingTimeout,
	}
}

type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}
