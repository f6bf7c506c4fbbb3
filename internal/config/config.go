// Package config provides configuration management for the Pitchside pipeline.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Feed       FeedConfig       `mapstructure:"feed" validate:"required"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit" validate:"required"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion" validate:"required"`
	Settlement SettlementConfig `mapstructure:"settlement" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Admin      AdminConfig      `mapstructure:"admin" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
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

// FeedConfig represents the external sports-data provider configuration.
// Provider, credential and season are runtime-reconfigurable so the pipeline
// can switch plans or seasons without a redeploy.
type FeedConfig struct {
	Provider              string `mapstructure:"provider" validate:"required,provider"`
	BaseURL               string `mapstructure:"base_url" validate:"required,url"`
	APIKey                string `mapstructure:"api_key" validate:"required"`
	Season                int    `mapstructure:"season" validate:"required,gt=2000"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	MaxRetries            int    `mapstructure:"max_retries" validate:"required,gte=0"`
	RetryBaseDelayMs      int    `mapstructure:"retry_base_delay_ms" validate:"required,gt=0"`
}

// RateLimitConfig represents the shared request-budget configuration. The
// ceiling matches the provider's plan tier, shared across all workers.
type RateLimitConfig struct {
	RequestsPerWindow int    `mapstructure:"requests_per_window" validate:"required,gt=0"`
	WindowSeconds     int    `mapstructure:"window_seconds" validate:"required,gt=0"`
	RedisAddr         string `mapstructure:"redis_addr"`
	RedisPassword     string `mapstructure:"redis_password"`
}

// IngestionConfig represents the fan-out scheduler configuration
type IngestionConfig struct {
	LeadWindowDays              int    `mapstructure:"lead_window_days" validate:"required,gt=0"`
	StalenessThresholdMinutes   int    `mapstructure:"staleness_threshold_minutes" validate:"required,gt=0"`
	FetchWorkers                int    `mapstructure:"fetch_workers" validate:"required,gt=0"`
	CompetitionCacheTTLMinutes  int    `mapstructure:"competition_cache_ttl_minutes" validate:"required,gt=0"`
	RunSchedule                 string `mapstructure:"run_schedule" validate:"required"`
	ScoreSyncIntervalSeconds    int    `mapstructure:"score_sync_interval_seconds" validate:"required,gt=0"`
}

// SettlementConfig represents the settlement pipeline configuration
type SettlementConfig struct {
	AssumedDurationMinutes int `mapstructure:"assumed_duration_minutes" validate:"required,gt=0"`
	SettleWorkers          int `mapstructure:"settle_workers" validate:"required,gt=0"`
	SweepIntervalMinutes   int `mapstructure:"sweep_interval_minutes" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// AdminConfig represents the operator surface configuration
type AdminConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
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

// RequestTimeout returns the per-request feed timeout as a duration
func (c *FeedConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// RetryBaseDelay returns the backoff base delay as a duration
func (c *FeedConfig) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

// Window returns the rate window as a duration
func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// LeadWindow returns the fixture lead window as a duration
func (c *IngestionConfig) LeadWindow() time.Duration {
	return time.Duration(c.LeadWindowDays) * 24 * time.Hour
}

// StalenessThreshold returns the odds staleness threshold as a duration
func (c *IngestionConfig) StalenessThreshold() time.Duration {
	return time.Duration(c.StalenessThresholdMinutes) * time.Minute
}

// AssumedDuration returns the assumed match completion window after kickoff
func (c *SettlementConfig) AssumedDuration() time.Duration {
	return time.Duration(c.AssumedDurationMinutes) * time.Minute
}
