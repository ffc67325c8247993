package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/middleware"
	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/telemetry"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Preview   PreviewConfig   `mapstructure:"preview"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	APIKey          string        `mapstructure:"api_key"` // guards rule changes
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// PoolConfig returns the pool sizing for the named application.
func (d DatabaseConfig) PoolConfig(applicationName string) database.PoolConfig {
	return database.PoolConfig{
		MaxConns:        d.MaxConnections,
		MinConns:        d.MinConnections,
		MaxConnLifetime: d.MaxConnLifetime,
		MaxConnIdleTime: d.MaxConnIdleTime,
		ApplicationName: applicationName,
	}
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"` // json or console
	NoColor bool   `mapstructure:"no_color"`
}

// PricingConfig holds the GP bands and rounding scales. GP values are
// fractions written as strings so they stay exact.
type PricingConfig struct {
	MinGP             string `mapstructure:"min_gp"`
	MaxGP             string `mapstructure:"max_gp"`
	WarnLowGP         string `mapstructure:"warn_low_gp"`
	WarnHighGP        string `mapstructure:"warn_high_gp"`
	IntermediateScale int32  `mapstructure:"intermediate_scale"`
	FinalScale        int32  `mapstructure:"final_scale"`
}

// BatchConfig holds batch pricing configuration
type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

// PreviewConfig holds rule preview configuration
type PreviewConfig struct {
	MaxRows int `mapstructure:"max_rows"`
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
}

// TelemetryConfig holds OpenTelemetry export configuration
type TelemetryConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Endpoint       string        `mapstructure:"endpoint"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Environment    string        `mapstructure:"environment"`
	SampleRatio    float64       `mapstructure:"sample_ratio"`
	ExportInterval time.Duration `mapstructure:"export_interval"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		// .env is optional
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix("PRICING_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if _, err := cfg.PricingEngine(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found into the process environment.
// Variables already set are not overridden.
func loadEnvFile() error {
	for _, path := range []string{".", "./config"} {
		envFile := path + "/.env"
		if _, err := os.Stat(envFile); err == nil {
			return loadDotEnvFile(envFile)
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), "\"'")
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds the conventional unprefixed variables
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.url", "PRICING_SERVICE_DATABASE_URL", "DATABASE_URL")
	v.BindEnv("server.port", "PRICING_SERVICE_SERVER_PORT", "PORT")
	v.BindEnv("server.host", "PRICING_SERVICE_SERVER_HOST", "HOST")
	v.BindEnv("server.api_key", "PRICING_SERVICE_SERVER_API_KEY", "PRICING_API_KEY")
	v.BindEnv("logging.level", "PRICING_SERVICE_LOGGING_LEVEL", "LOG_LEVEL")
	v.BindEnv("telemetry.endpoint", "PRICING_SERVICE_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.service_name", "PRICING_SERVICE_TELEMETRY_SERVICE_NAME", "OTEL_SERVICE_NAME")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	// Pricing defaults
	def := pricing.DefaultConfig()
	v.SetDefault("pricing.min_gp", def.MinGP.String())
	v.SetDefault("pricing.max_gp", def.MaxGP.String())
	v.SetDefault("pricing.warn_low_gp", def.WarnLowGP.String())
	v.SetDefault("pricing.warn_high_gp", def.WarnHighGP.String())
	v.SetDefault("pricing.intermediate_scale", def.IntermediateScale)
	v.SetDefault("pricing.final_scale", def.FinalScale)
	v.SetDefault("batch.workers", def.BatchWorkers)

	v.SetDefault("preview.max_rows", 500)

	// Rate limit defaults
	rl := middleware.DefaultRateLimiterConfig()
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", rl.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", rl.BurstSize)
	v.SetDefault("rate_limit.idle_timeout", rl.IdleTimeout)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.export_interval", 30*time.Second)
}

// PricingEngine builds and validates the pricing engine configuration.
func (c *Config) PricingEngine() (*pricing.Config, error) {
	out := pricing.DefaultConfig()

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"min_gp", c.Pricing.MinGP, &out.MinGP},
		{"max_gp", c.Pricing.MaxGP, &out.MaxGP},
		{"warn_low_gp", c.Pricing.WarnLowGP, &out.WarnLowGP},
		{"warn_high_gp", c.Pricing.WarnHighGP, &out.WarnHighGP},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, pricing.ErrInvalidConfig{Field: f.name, Reason: "not a decimal number"}
		}
		*f.dst = d
	}

	if c.Pricing.IntermediateScale != 0 {
		out.IntermediateScale = c.Pricing.IntermediateScale
	}
	if c.Pricing.FinalScale != 0 {
		out.FinalScale = c.Pricing.FinalScale
	}
	if c.Batch.Workers != 0 {
		out.BatchWorkers = c.Batch.Workers
	}

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing config: %w", err)
	}
	return out, nil
}

// RateLimiter returns the middleware rate limiter settings.
func (c *Config) RateLimiter() middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		RequestsPerSecond: c.RateLimit.RequestsPerSecond,
		BurstSize:         c.RateLimit.Burst,
		IdleTimeout:       c.RateLimit.IdleTimeout,
	}
}

// TelemetryInit returns the telemetry settings. Export is enabled when
// configured explicitly or when an OTLP endpoint is set.
func (c *Config) TelemetryInit() telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled || c.Telemetry.Endpoint != "",
		Endpoint:       c.Telemetry.Endpoint,
		ServiceName:    c.Telemetry.ServiceName,
		ServiceVersion: c.Telemetry.ServiceVersion,
		Environment:    c.Telemetry.Environment,
		SampleRatio:    c.Telemetry.SampleRatio,
		ExportInterval: c.Telemetry.ExportInterval,
	}
}

// SetupLogger configures the global zerolog logger from the logging section.
func (c *Config) SetupLogger(service string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level))
	if err != nil || c.Logging.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var logger zerolog.Logger
	if c.Logging.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: c.Logging.NoColor})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	logger = logger.With().Timestamp().Str("service", service).Logger()
	log.Logger = logger
	return logger
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
