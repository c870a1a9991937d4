// Package config provides configuration management for the Turfsim service.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	DataSource DataSourceConfig `mapstructure:"data_source" validate:"required"`
	Backtest   BacktestConfig   `mapstructure:"backtest" validate:"required"`
	Jobs       JobsConfig       `mapstructure:"jobs" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ServerConfig represents the HTTP API server configuration
type ServerConfig struct {
	Port                int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// DataSourceConfig represents the historical data provider configuration
type DataSourceConfig struct {
	// Provider selects the backing implementation: remote, postgres or memory
	Provider       string  `mapstructure:"provider" validate:"required,oneof=remote postgres memory"`
	BaseURL        string  `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey         string  `mapstructure:"api_key"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"gte=0"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	MaxRetries     int     `mapstructure:"max_retries" validate:"gte=0"`
}

// BacktestConfig represents simulation defaults applied to every run
type BacktestConfig struct {
	InitialCapital        float64        `mapstructure:"initial_capital" validate:"required,gt=0"`
	DecisionOffsetMinutes int            `mapstructure:"decision_offset_minutes" validate:"required,gt=0"`
	CommissionRate        float64        `mapstructure:"commission_rate" validate:"gte=0,lte=0.1"`
	Slippage              SlippageConfig `mapstructure:"slippage"`
	// CancelGranularity controls how often a running simulation checks for
	// cancellation: at day boundaries or before every race
	CancelGranularity    string  `mapstructure:"cancel_granularity" validate:"required,oneof=day race"`
	MonteCarloIterations int     `mapstructure:"monte_carlo_iterations" validate:"gte=0"`
	RiskFreeRate         float64 `mapstructure:"risk_free_rate" validate:"gte=0"`
	OutputPath           string  `mapstructure:"output_path"`
}

// SlippageConfig parameterizes the odds drift model
type SlippageConfig struct {
	Floor      float64 `mapstructure:"floor" validate:"gte=0"`
	Volatility float64 `mapstructure:"volatility" validate:"gte=0"`
}

// JobsConfig represents async job execution configuration
type JobsConfig struct {
	Workers             int           `mapstructure:"workers" validate:"required,gt=0"`
	ResultTTL           time.Duration `mapstructure:"result_ttl" validate:"required"`
	JobRetention        time.Duration `mapstructure:"job_retention" validate:"required"`
	CleanupSchedule     string        `mapstructure:"cleanup_schedule" validate:"required"`
	MaxActivePerClient  int           `mapstructure:"max_active_per_client" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
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

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// DataSourceTimeout returns the provider timeout as a duration
func (c *Config) DataSourceTimeout() time.Duration {
	if c.DataSource.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.DataSource.TimeoutSeconds) * time.Second
}
