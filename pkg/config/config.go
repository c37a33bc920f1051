// Package config holds the runtime configuration of the BGG client:
// admission limits, retry policy, transport timeouts and the ambient
// settings of the bundled proxy.
//
// Configuration is loaded from YAML, defaulted, overridden from BGG_*
// environment variables and validated before any request is dispatched.
// Components never capture a Config at construction; they read the current
// snapshot from a Source on every admission and retry decision.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration value is out of bounds.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultBaseURL is the public BoardGameGeek XML API2 root.
const DefaultBaseURL = "https://boardgamegeek.com/xmlapi2"

// APIConfig describes the upstream service.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`

	// RequestTimeout bounds a single network attempt, independent of the gates.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// AdmissionConfig bounds outbound traffic.
type AdmissionConfig struct {
	// ConcurrencyLimit is the maximum number of requests in flight.
	ConcurrencyLimit int `yaml:"concurrency_limit"`

	// WindowLimit requests are admitted per WindowSize.
	WindowSize  time.Duration `yaml:"window_size"`
	WindowLimit int           `yaml:"window_limit"`
}

// RetryConfig controls the retry policy for transient upstream failures.
type RetryConfig struct {
	MaxRetries int `yaml:"max_retries"`

	// Delay before retry n is BackoffBase^n * BackoffUnit + rand[0, Jitter),
	// capped at BackoffMaxDelay.
	BackoffBase     float64       `yaml:"backoff_base"`
	BackoffUnit     time.Duration `yaml:"backoff_unit"`
	BackoffMaxDelay time.Duration `yaml:"backoff_max_delay"`
	Jitter          time.Duration `yaml:"jitter"`
}

// RedisConfig enables the shared window store when Addr is set.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// Config is the full client configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Admission AdmissionConfig `yaml:"admission"`
	Retry     RetryConfig     `yaml:"retry"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
}

// Default returns a configuration that stays well inside the public API's
// tolerance.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

// Load reads a YAML file, applies defaults and BGG_* environment overrides,
// then validates the result.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is provided by trusted config/flag.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse is Load without the file read.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.API.UserAgent) == "" {
		cfg.API.UserAgent = "bgg-xml-client/0.1.0"
	}
	if cfg.API.RequestTimeout <= 0 {
		cfg.API.RequestTimeout = 30 * time.Second
	}
	if cfg.Admission.ConcurrencyLimit == 0 {
		cfg.Admission.ConcurrencyLimit = 5
	}
	if cfg.Admission.WindowSize == 0 {
		cfg.Admission.WindowSize = 5 * time.Second
	}
	if cfg.Admission.WindowLimit == 0 {
		cfg.Admission.WindowLimit = 10
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 5
	}
	if cfg.Retry.BackoffBase == 0 {
		cfg.Retry.BackoffBase = 2
	}
	if cfg.Retry.BackoffUnit == 0 {
		cfg.Retry.BackoffUnit = time.Second
	}
	if cfg.Retry.BackoffMaxDelay == 0 {
		cfg.Retry.BackoffMaxDelay = 30 * time.Second
	}
	if cfg.Retry.Jitter == 0 {
		cfg.Retry.Jitter = 500 * time.Millisecond
	}
	if strings.TrimSpace(cfg.Redis.KeyPrefix) == "" {
		cfg.Redis.KeyPrefix = "bgg:window"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = ":8080"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("BGG_BASE_URL")); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("BGG_USER_AGENT")); v != "" {
		cfg.API.UserAgent = v
	}
	envDuration("BGG_REQUEST_TIMEOUT", &cfg.API.RequestTimeout)
	envInt("BGG_CONCURRENCY_LIMIT", &cfg.Admission.ConcurrencyLimit)
	envDuration("BGG_WINDOW_SIZE", &cfg.Admission.WindowSize)
	envInt("BGG_WINDOW_LIMIT", &cfg.Admission.WindowLimit)
	envInt("BGG_MAX_RETRIES", &cfg.Retry.MaxRetries)
	if v := strings.TrimSpace(os.Getenv("BGG_REDIS_ADDR")); v != "" {
		cfg.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("BGG_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("BGG_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
}

// Malformed overrides are ignored; the file value stays in effect.
func envInt(key string, dst *int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func envDuration(key string, dst *time.Duration) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

// Validate reports the first out-of-bounds value, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.API.UserAgent) == "" {
		return fmt.Errorf("%w: user_agent is required", ErrInvalidConfig)
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base_url %q is not an absolute URL", ErrInvalidConfig, c.API.BaseURL)
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be > 0 (got %s)", ErrInvalidConfig, c.API.RequestTimeout)
	}
	if c.Admission.ConcurrencyLimit < 1 {
		return fmt.Errorf("%w: concurrency_limit must be >= 1 (got %d)", ErrInvalidConfig, c.Admission.ConcurrencyLimit)
	}
	if c.Admission.WindowSize <= 0 {
		return fmt.Errorf("%w: window_size must be > 0 (got %s)", ErrInvalidConfig, c.Admission.WindowSize)
	}
	if c.Admission.WindowLimit < 1 {
		return fmt.Errorf("%w: window_limit must be >= 1 (got %d)", ErrInvalidConfig, c.Admission.WindowLimit)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be >= 0 (got %d)", ErrInvalidConfig, c.Retry.MaxRetries)
	}
	if c.Retry.BackoffBase < 1 {
		return fmt.Errorf("%w: backoff_base must be >= 1 (got %g)", ErrInvalidConfig, c.Retry.BackoffBase)
	}
	if c.Retry.BackoffUnit < 0 || c.Retry.BackoffMaxDelay < 0 || c.Retry.Jitter < 0 {
		return fmt.Errorf("%w: backoff durations must not be negative", ErrInvalidConfig)
	}
	return nil
}
