// Package config provides configuration management for the event hub service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the event hub service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Kafka contains Kafka consumer settings for inbound events.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// AI contains the risk assessment model client settings.
	AI AIConfig `mapstructure:"ai"`
	// Dedup contains duplicate detection settings.
	Dedup DedupConfig `mapstructure:"dedup"`
	// Ingest contains ingest gate and assessor worker settings.
	Ingest IngestConfig `mapstructure:"ingest"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use environment variable in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	// Default is "require" for production security. Use "disable" only for local development.
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 25).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 5).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// KafkaConfig holds Kafka consumer settings for inbound events.
type KafkaConfig struct {
	// Enabled controls whether the Kafka ingest listener is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic carrying inbound event submissions.
	Topic string `mapstructure:"topic"`
	// GroupID is the consumer group ID.
	GroupID string `mapstructure:"group_id"`
	// MinBytes is the minimum batch size the consumer will accept.
	MinBytes int `mapstructure:"min_bytes"`
	// MaxBytes is the maximum batch size the consumer will accept.
	MaxBytes int `mapstructure:"max_bytes"`
	// CommitInterval is how often consumed offsets are committed.
	CommitInterval time.Duration `mapstructure:"commit_interval"`
}

// AIConfig holds the risk assessment model client settings.
type AIConfig struct {
	// Enabled controls whether automatic risk assessment runs.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the OpenAI API key (loaded from EVENTHUB_AI_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Model is the model used for risk assessment.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for model API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the maximum number of retries for failed calls.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// Temperature is the model temperature setting.
	Temperature float64 `mapstructure:"temperature"`
	// RateLimitRPS is the requests per second limit for model calls.
	RateLimitRPS float64 `mapstructure:"rate_limit_rps"`
	// RateLimitBurst is the burst size for the rate limiter.
	RateLimitBurst int `mapstructure:"rate_limit_burst"`
}

// DedupConfig holds duplicate detection settings.
type DedupConfig struct {
	// Enabled controls whether duplicate checking runs at all.
	Enabled bool `mapstructure:"enabled"`
	// TitleThreshold is the minimum title similarity for a candidate to count (0.0-1.0).
	TitleThreshold float64 `mapstructure:"title_threshold"`
	// DateProximityDays is how many days apart two dates may be and still match.
	DateProximityDays int `mapstructure:"date_proximity_days"`
	// MinimumScore is the minimum composite score (0-100) for interactive checks.
	MinimumScore int `mapstructure:"minimum_score"`
	// StrictMinimumScore is the minimum composite score (0-100) for the ingest gate.
	StrictMinimumScore int `mapstructure:"strict_minimum_score"`
	// MaxResults is the maximum number of duplicate candidates to return.
	MaxResults int `mapstructure:"max_results"`
	// DebounceDelay is how long to wait after the last edit before checking.
	DebounceDelay time.Duration `mapstructure:"debounce_delay"`
	// FetchLimit is the maximum number of recent events fetched per partition.
	FetchLimit int `mapstructure:"fetch_limit"`
}

// IngestConfig holds ingest gate and assessor worker settings.
type IngestConfig struct {
	// AssessInterval is how often the assessor polls for approved events.
	AssessInterval time.Duration `mapstructure:"assess_interval"`
	// AssessBatchSize is the number of approved events assessed per poll.
	AssessBatchSize int `mapstructure:"assess_batch_size"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("EVENTHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/event-hub")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets are loaded exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	cfg.AI.APIKey = os.Getenv("EVENTHUB_AI_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "eventhub")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "event_hub")
	// Default to "require" for production security. Use EVENTHUB_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.inbound.submissions")
	v.SetDefault("kafka.group_id", "event-hub-ingest")
	v.SetDefault("kafka.min_bytes", 1)
	v.SetDefault("kafka.max_bytes", 10e6)
	v.SetDefault("kafka.commit_interval", "1s")

	// AI defaults
	// The API key is loaded exclusively from EVENTHUB_AI_API_KEY.
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.max_retries", 3)
	v.SetDefault("ai.retry_delay", "2s")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.rate_limit_rps", 2.0)
	v.SetDefault("ai.rate_limit_burst", 4)

	// Dedup defaults
	v.SetDefault("dedup.enabled", true)
	v.SetDefault("dedup.title_threshold", 0.6)
	v.SetDefault("dedup.date_proximity_days", 3)
	v.SetDefault("dedup.minimum_score", 50)
	v.SetDefault("dedup.strict_minimum_score", 60)
	v.SetDefault("dedup.max_results", 5)
	v.SetDefault("dedup.debounce_delay", "500ms")
	v.SetDefault("dedup.fetch_limit", 100)

	// Ingest defaults
	v.SetDefault("ingest.assess_interval", "15s")
	v.SetDefault("ingest.assess_batch_size", 10)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate Kafka config
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	// Validate AI config
	if c.AI.Enabled && c.AI.APIKey == "" {
		return fmt.Errorf("ai is enabled but EVENTHUB_AI_API_KEY is not set")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai temperature must be between 0 and 2")
	}
	if c.AI.RateLimitRPS <= 0 {
		return fmt.Errorf("ai rate_limit_rps must be positive")
	}

	// Validate dedup config
	if c.Dedup.TitleThreshold < 0 || c.Dedup.TitleThreshold > 1 {
		return fmt.Errorf("dedup title_threshold must be between 0 and 1")
	}
	if c.Dedup.DateProximityDays < 0 {
		return fmt.Errorf("dedup date_proximity_days must not be negative")
	}
	if c.Dedup.MinimumScore < 0 || c.Dedup.MinimumScore > 100 {
		return fmt.Errorf("dedup minimum_score must be between 0 and 100")
	}
	if c.Dedup.StrictMinimumScore < 0 || c.Dedup.StrictMinimumScore > 100 {
		return fmt.Errorf("dedup strict_minimum_score must be between 0 and 100")
	}
	if c.Dedup.MaxResults <= 0 {
		return fmt.Errorf("dedup max_results must be positive")
	}
	if c.Dedup.DebounceDelay < 0 {
		return fmt.Errorf("dedup debounce_delay must not be negative")
	}
	if c.Dedup.FetchLimit <= 0 {
		return fmt.Errorf("dedup fetch_limit must be positive")
	}

	// Validate ingest config
	if c.Ingest.AssessInterval <= 0 {
		return fmt.Errorf("ingest assess_interval must be positive")
	}
	if c.Ingest.AssessBatchSize <= 0 {
		return fmt.Errorf("ingest assess_batch_size must be positive")
	}

	return nil
}
