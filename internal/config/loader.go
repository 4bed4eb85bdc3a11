// Package config provides centralized configuration management for BrandLens.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "BRANDLENS"

// Defaults applied before any file or environment override.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "brandlens.db")

	v.SetDefault("gateway.base_url", "")
	v.SetDefault("gateway.timeout", 60*time.Second)

	v.SetDefault("judge.model", "gpt-4o-mini")
	v.SetDefault("judge.temperature", 0)

	v.SetDefault("scan.batch_size", 5)
	v.SetDefault("scan.max_batch_size", 10)
	v.SetDefault("scan.competitor_limit", 3)
	v.SetDefault("scan.variation_attempts", 3)
	v.SetDefault("scan.variation_backoff", 2*time.Second)
	v.SetDefault("scan.drive_retry_delay", 5*time.Second)

	v.SetDefault("pricing.default_input_per_token", 0.000001)
	v.SetDefault("pricing.default_output_per_token", 0.000003)

	v.SetDefault("logging.level", "info")
}

// Load reads configuration from the optional config file, environment
// variables, and defaults, in reverse priority order.
func Load(cfgFile string) (*Config, error) {
	v := viper.GetViper()
	return load(v, cfgFile)
}

func load(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("brandlens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/brandlens")
		if err := v.ReadInConfig(); err != nil {
			// Missing config file is fine; defaults and env carry it.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Scan.MaxBatchSize <= 0 {
		return fmt.Errorf("scan.max_batch_size must be positive")
	}
	if cfg.Scan.BatchSize <= 0 || cfg.Scan.BatchSize > cfg.Scan.MaxBatchSize {
		return fmt.Errorf("scan.batch_size must be in 1..%d", cfg.Scan.MaxBatchSize)
	}
	if cfg.Scan.CompetitorLimit < 0 {
		return fmt.Errorf("scan.competitor_limit must not be negative")
	}
	if cfg.Scan.VariationAttempts <= 0 {
		return fmt.Errorf("scan.variation_attempts must be positive")
	}
	if cfg.Pricing.DefaultInputPerToken < 0 || cfg.Pricing.DefaultOutputPerToken < 0 {
		return fmt.Errorf("pricing defaults must not be negative")
	}
	return nil
}
