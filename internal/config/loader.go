// Package config provides configuration management for the Kalshi analyzer.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is used when no path is given
	DefaultConfigPath = "config/config.yaml"
	envPrefix         = "KALSHI_ANALYZER"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables are used instead.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// Default returns the built-in configuration with no file and no environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// defaults are plain scalars and always decode
	_ = v.Unmarshal(cfg)
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "kalshi-analyzer")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", 3001)
	v.SetDefault("server.health_port", 8080)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("kalshi.enabled", true)
	v.SetDefault("kalshi.api_url", "https://api.elections.kalshi.com")
	v.SetDefault("kalshi.key_id", "")
	v.SetDefault("kalshi.private_key", "")
	v.SetDefault("kalshi.private_key_file", "")
	v.SetDefault("kalshi.timeout_seconds", 10)
	v.SetDefault("kalshi.max_retries", 3)
	v.SetDefault("kalshi.rate_limit", 10.0)
	v.SetDefault("kalshi.event_limit", 200)

	v.SetDefault("calculator.default_total_stake", 100.0)
	v.SetDefault("calculator.default_exchange_commission", 2.8)
	v.SetDefault("calculator.default_max_loss_percent", 10.0)
	v.SetDefault("calculator.hedge_floor", 1.01)

	v.SetDefault("refresh.interval_seconds", 60)
	v.SetDefault("refresh.mock_fallback", true)
	v.SetDefault("refresh.fallback_on_error", false)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.redis_password", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("secrets.aws_region", "us-east-1")
	v.SetDefault("secrets.secret_name", "")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := loadPrivateKeyFile(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadPrivateKeyFile reads kalshi.private_key_file when no inline key is set
func loadPrivateKeyFile(cfg *Config) error {
	if cfg.Kalshi.PrivateKey != "" || cfg.Kalshi.PrivateKeyFile == "" {
		return nil
	}
	data, err := os.ReadFile(cfg.Kalshi.PrivateKeyFile)
	if err != nil {
		return fmt.Errorf("failed to read kalshi private key file: %w", err)
	}
	cfg.Kalshi.PrivateKey = string(data)
	return nil
}
