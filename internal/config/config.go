// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

// Config holds the complete process configuration. Operator settings
// (base currency, enabled currencies, frequency) live in the database.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	FxRatesAPI  FxRatesAPIConfig  `mapstructure:"fxratesapi"`
	Frankfurter FrankfurterConfig `mapstructure:"frankfurter"`
	Worker      WorkerConfig
	Cache       CacheConfig
	History     HistoryConfig
	Admin       AdminConfig
	Display     DisplayConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int  `mapstructure:"port"`
	ServeSwagger  bool `mapstructure:"serve_swagger"`
	ServeAsynqmon bool `mapstructure:"serve_asynqmon"`
	SecureCookies bool `mapstructure:"secure_cookies"` // set the Secure flag on the admin cookie
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // scheduler and task queue
	CacheAddr string `mapstructure:"cache_addr"` // rate cache and admin notices
}

// FxRatesAPIConfig holds settings for the primary rate provider.
type FxRatesAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// FrankfurterConfig holds settings for the optional fallback provider.
// An empty BaseURL disables it.
type FrankfurterConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// WorkerConfig holds background worker and task queue settings.
type WorkerConfig struct {
	Concurrency      int `mapstructure:"concurrency"`
	TimeoutSec       int `mapstructure:"timeout_sec"`
	CheckIntervalSec int `mapstructure:"check_interval_sec"`
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	RatesTTLSec int `mapstructure:"rates_ttl_sec"`
}

// RatesTTL returns the rate cache lifetime.
func (c CacheConfig) RatesTTL() time.Duration {
	return time.Duration(c.RatesTTLSec) * time.Second
}

// HistoryConfig controls optional pruning of the history log.
// RetentionDays == 0 keeps every entry.
type HistoryConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// Retention returns the retention window, zero when pruning is off.
func (c HistoryConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// AdminConfig holds settings for the administration surface.
type AdminConfig struct {
	JWTSecret      string `mapstructure:"jwt_secret"`
	TokenTTLHours  int    `mapstructure:"token_ttl_hours"`
	NonceTTLSec    int    `mapstructure:"nonce_ttl_sec"`
	FetchRateLimit string `mapstructure:"fetch_rate_limit"` // ulule/limiter format, e.g. "10-M"
}

// DisplayConfig holds presentation settings.
type DisplayConfig struct {
	Timezone    string `mapstructure:"timezone"`
	DateFormat  string `mapstructure:"date_format"`
	PageTitle   string `mapstructure:"page_title"`
	PageContent string `mapstructure:"page_content"`
}

// Location resolves the configured timezone, falling back to UTC.
func (c DisplayConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("./internal/config")

	viper.SetEnvPrefix("RATEHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Config file not found: %v\n", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeSec <= 0 {
		cfg.Database.ConnMaxLifetimeSec = 300
	}

	cfg.Database.DSN = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.SSLMode)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.serve_swagger", true)
	v.SetDefault("server.serve_asynqmon", true)
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "ratehub")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_sec", 300)
	v.SetDefault("redis.asynq_addr", "redis_asynq:6380")
	v.SetDefault("redis.cache_addr", "redis_cache:6381")
	v.SetDefault("fxratesapi.base_url", "https://api.fxratesapi.com")
	v.SetDefault("fxratesapi.timeout_sec", 15)
	v.SetDefault("frankfurter.base_url", "")
	v.SetDefault("frankfurter.timeout_sec", 15)
	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.timeout_sec", 60)
	v.SetDefault("worker.check_interval_sec", 5)
	v.SetDefault("cache.rates_ttl_sec", 3600)
	v.SetDefault("history.retention_days", 0)
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.token_ttl_hours", 24)
	v.SetDefault("admin.nonce_ttl_sec", 43200)
	v.SetDefault("admin.fetch_rate_limit", "10-M")
	v.SetDefault("display.timezone", "UTC")
	v.SetDefault("display.date_format", "January 2, 2006 3:04 pm")
	v.SetDefault("display.page_title", "Exchange Rates")
	v.SetDefault("display.page_content", "")
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}

	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}

	if c.Redis.AsynqAddr == "" {
		errs = append(errs, fmt.Errorf("redis.asynq_addr is required (set RATEHUB_REDIS_ASYNQ_ADDR)"))
	}
	if c.Redis.CacheAddr == "" {
		errs = append(errs, fmt.Errorf("redis.cache_addr is required (set RATEHUB_REDIS_CACHE_ADDR)"))
	}

	if c.FxRatesAPI.BaseURL == "" {
		errs = append(errs, fmt.Errorf("fxratesapi.base_url is required"))
	}
	if c.FxRatesAPI.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fxratesapi.timeout_sec must be positive, got %d", c.FxRatesAPI.Timeout))
	}
	if c.Frankfurter.BaseURL != "" && c.Frankfurter.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("frankfurter.timeout_sec must be positive, got %d", c.Frankfurter.Timeout))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}
	if c.Worker.CheckIntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.check_interval_sec must be positive, got %d", c.Worker.CheckIntervalSec))
	}

	if c.Cache.RatesTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("cache.rates_ttl_sec must be positive, got %d", c.Cache.RatesTTLSec))
	}
	if c.History.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("history.retention_days must be non-negative, got %d", c.History.RetentionDays))
	}

	if c.Admin.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("admin.jwt_secret is required (set RATEHUB_ADMIN_JWT_SECRET)"))
	}
	if c.Admin.TokenTTLHours <= 0 {
		errs = append(errs, fmt.Errorf("admin.token_ttl_hours must be positive, got %d", c.Admin.TokenTTLHours))
	}
	if c.Admin.NonceTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("admin.nonce_ttl_sec must be positive, got %d", c.Admin.NonceTTLSec))
	}
	if _, err := limiter.NewRateFromFormatted(c.Admin.FetchRateLimit); err != nil {
		errs = append(errs, fmt.Errorf("admin.fetch_rate_limit %q: %w", c.Admin.FetchRateLimit, err))
	}

	if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("display.timezone %q: %w", c.Display.Timezone, err))
	}
	if c.Display.DateFormat == "" {
		errs = append(errs, fmt.Errorf("display.date_format is required"))
	}

	return errors.Join(errs...)
}
