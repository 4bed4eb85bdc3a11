package config

import "time"

// Config represents the complete application configuration.
// Values are layered: built-in defaults, then an optional YAML config file,
// then BRANDLENS_* environment variables and flag overrides.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Judge   JudgeConfig   `mapstructure:"judge"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Pricing PricingConfig `mapstructure:"pricing"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// GatewayConfig configures the LLM gateway endpoint.
type GatewayConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// JudgeConfig configures the secondary evaluation pass.
//
// The judge model should be fast and cheap; it only reads a response and
// emits a three-field verdict.
type JudgeConfig struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// ScanConfig contains scan-engine tuning knobs.
type ScanConfig struct {
	// BatchSize is the default number of work items per advance call.
	BatchSize int `mapstructure:"batch_size"`

	// MaxBatchSize is the hard ceiling a caller-supplied batch size is
	// clamped to.
	MaxBatchSize int `mapstructure:"max_batch_size"`

	// CompetitorLimit bounds competitor expansion to the top N entries
	// of the account's competitor list. Zero disables expansion.
	CompetitorLimit int `mapstructure:"competitor_limit"`

	// VariationAttempts bounds retries of LLM-based prompt variation
	// generation before degrading to the base intent.
	VariationAttempts int           `mapstructure:"variation_attempts"`
	VariationBackoff  time.Duration `mapstructure:"variation_backoff"`

	// DriveRetryDelay is the fixed delay between retries when the drive
	// loop hits a transient processor failure.
	DriveRetryDelay time.Duration `mapstructure:"drive_retry_delay"`
}

// PricingConfig contains the default per-token prices applied when a model
// has no price entry.
type PricingConfig struct {
	DefaultInputPerToken  float64 `mapstructure:"default_input_per_token"`
	DefaultOutputPerToken float64 `mapstructure:"default_output_per_token"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: debug, info, warn, error.
	Level string `mapstructure:"level"`
}
