// Package config provides configuration management for the Kalshi analyzer.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Kalshi     KalshiConfig     `mapstructure:"kalshi" validate:"required"`
	Calculator CalculatorConfig `mapstructure:"calculator" validate:"required"`
	Refresh    RefreshConfig    `mapstructure:"refresh" validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ServerConfig represents the HTTP API and health server configuration
type ServerConfig struct {
	Port                int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	HealthPort          int      `mapstructure:"health_port" validate:"omitempty,min=1,max=65535"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
}

// KalshiConfig represents Kalshi trade API configuration
type KalshiConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	APIURL         string  `mapstructure:"api_url" validate:"required,url"`
	KeyID          string  `mapstructure:"key_id"`
	PrivateKey     string  `mapstructure:"private_key"`
	PrivateKeyFile string  `mapstructure:"private_key_file"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries     int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	EventLimit     int     `mapstructure:"event_limit" validate:"required,gt=0,lte=200"`
}

// CalculatorConfig represents stake calculation defaults
type CalculatorConfig struct {
	DefaultTotalStake         float64 `mapstructure:"default_total_stake" validate:"required,gt=0"`
	DefaultExchangeCommission float64 `mapstructure:"default_exchange_commission" validate:"gte=0,lt=100"`
	DefaultMaxLossPercent     float64 `mapstructure:"default_max_loss_percent" validate:"gte=0"`
	HedgeFloor                float64 `mapstructure:"hedge_floor" validate:"required,gte=1"`
}

// RefreshConfig represents the periodic event refresh configuration
type RefreshConfig struct {
	IntervalSeconds int  `mapstructure:"interval_seconds" validate:"required,gte=5"`
	MockFallback    bool `mapstructure:"mock_fallback"`
	FallbackOnError bool `mapstructure:"fallback_on_error"`
}

// CacheConfig represents the event snapshot store configuration
type CacheConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,cachebackend"`
	TTLSeconds    int    `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	RedisPassword string `mapstructure:"redis_password"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// SecretsConfig points at an optional AWS Secrets Manager secret
type SecretsConfig struct {
	AWSRegion  string `mapstructure:"aws_region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ListenAddress returns the API listen address
func (c *Config) ListenAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// CacheTTL returns the snapshot store TTL
func (c *Config) CacheTTL() time.Duration {
	return c.Cache.TTL()
}

// TTL returns the snapshot TTL as a duration
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// KalshiTimeout returns the upstream request timeout
func (c *Config) KalshiTimeout() time.Duration {
	return time.Duration(c.Kalshi.TimeoutSeconds) * time.Second
}

// HasKalshiCredentials reports whether a key id and a private key are configured
func (c *Config) HasKalshiCredentials() bool {
	return c.Kalshi.KeyID != "" && (c.Kalshi.PrivateKey != "" || c.Kalshi.PrivateKeyFile != "")
}
