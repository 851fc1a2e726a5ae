// Package config loads application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Log       LogConfig
	Auth      AuthConfig
	Persist   PersistConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string
	Environment string // development, staging, production
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level       string
	Development bool
}

// AuthConfig holds token signing settings and the bootstrap admin account.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// PersistConfig selects the durable storage backend.
// Driver is one of: memory, file, postgres.
type PersistConfig struct {
	Driver        string
	Dir           string        // file driver: directory for the JSON snapshots
	FlushInterval time.Duration // file driver: 0 writes synchronously, >0 batches
}

// DatabaseConfig holds PostgreSQL connection settings (postgres driver).
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// KafkaConfig holds Kafka publisher settings.
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	ClientID string
}

// RateLimitConfig holds the request rate limiter settings. When RedisAddr
// is empty the limiter keeps per-client buckets in process memory.
type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// EventsConfig holds registration and lifecycle policy settings.
type EventsConfig struct {
	AllowUnregisterCompleted bool
	AutoComplete             bool
	AutoCompleteInterval     time.Duration
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	// A missing .env is fine, the environment still applies.
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	bindConfig(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("APP_NAME", "campus-events")
	v.SetDefault("APP_ENVIRONMENT", "development")

	// Server
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "60s")

	// Logging
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEVELOPMENT", true)

	// Auth
	v.SetDefault("AUTH_JWT_SECRET", "change-me-in-production")
	v.SetDefault("AUTH_TOKEN_TTL", "24h")
	v.SetDefault("AUTH_ADMIN_USERNAME", "admin")
	v.SetDefault("AUTH_ADMIN_EMAIL", "admin@campus.local")
	v.SetDefault("AUTH_ADMIN_PASSWORD", "")

	// Persistence
	v.SetDefault("PERSIST_DRIVER", "file")
	v.SetDefault("PERSIST_DIR", "data")
	v.SetDefault("PERSIST_FLUSH_INTERVAL", "0s")

	// Database (postgres driver)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_DBNAME", "campus_events")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_CONNS", 20)
	v.SetDefault("DATABASE_MIN_CONNS", 2)

	// Kafka
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "campus.events")
	v.SetDefault("KAFKA_CLIENT_ID", "campus-events")

	// Rate limiting
	v.SetDefault("RATELIMIT_ENABLED", true)
	v.SetDefault("RATELIMIT_RPS", 20.0)
	v.SetDefault("RATELIMIT_BURST", 40)
	v.SetDefault("RATELIMIT_REDIS_ADDR", "")
	v.SetDefault("RATELIMIT_REDIS_PASSWORD", "")
	v.SetDefault("RATELIMIT_REDIS_DB", 0)

	// Event policy
	v.SetDefault("EVENTS_ALLOW_UNREGISTER_COMPLETED", true)
	v.SetDefault("EVENTS_AUTO_COMPLETE", true)
	v.SetDefault("EVENTS_AUTO_COMPLETE_INTERVAL", "10m")
}

func bindConfig(v *viper.Viper, cfg *Config) {
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")

	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")

	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Development = v.GetBool("LOG_DEVELOPMENT")

	cfg.Auth.JWTSecret = v.GetString("AUTH_JWT_SECRET")
	cfg.Auth.TokenTTL = v.GetDuration("AUTH_TOKEN_TTL")
	cfg.Auth.AdminUsername = v.GetString("AUTH_ADMIN_USERNAME")
	cfg.Auth.AdminEmail = v.GetString("AUTH_ADMIN_EMAIL")
	cfg.Auth.AdminPassword = v.GetString("AUTH_ADMIN_PASSWORD")

	cfg.Persist.Driver = v.GetString("PERSIST_DRIVER")
	cfg.Persist.Dir = v.GetString("PERSIST_DIR")
	cfg.Persist.FlushInterval = v.GetDuration("PERSIST_FLUSH_INTERVAL")

	cfg.Database.Host = v.GetString("DATABASE_HOST")
	cfg.Database.Port = v.GetInt("DATABASE_PORT")
	cfg.Database.User = v.GetString("DATABASE_USER")
	cfg.Database.Password = v.GetString("DATABASE_PASSWORD")
	cfg.Database.DBName = v.GetString("DATABASE_DBNAME")
	cfg.Database.SSLMode = v.GetString("DATABASE_SSLMODE")
	cfg.Database.MaxConns = v.GetInt32("DATABASE_MAX_CONNS")
	cfg.Database.MinConns = v.GetInt32("DATABASE_MIN_CONNS")

	cfg.Kafka.Enabled = v.GetBool("KAFKA_ENABLED")
	cfg.Kafka.Brokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.Kafka.Topic = v.GetString("KAFKA_TOPIC")
	cfg.Kafka.ClientID = v.GetString("KAFKA_CLIENT_ID")

	cfg.RateLimit.Enabled = v.GetBool("RATELIMIT_ENABLED")
	cfg.RateLimit.RPS = v.GetFloat64("RATELIMIT_RPS")
	cfg.RateLimit.Burst = v.GetInt("RATELIMIT_BURST")
	cfg.RateLimit.RedisAddr = v.GetString("RATELIMIT_REDIS_ADDR")
	cfg.RateLimit.RedisPassword = v.GetString("RATELIMIT_REDIS_PASSWORD")
	cfg.RateLimit.RedisDB = v.GetInt("RATELIMIT_REDIS_DB")

	cfg.Events.AllowUnregisterCompleted = v.GetBool("EVENTS_ALLOW_UNREGISTER_COMPLETED")
	cfg.Events.AutoComplete = v.GetBool("EVENTS_AUTO_COMPLETE")
	cfg.Events.AutoCompleteInterval = v.GetDuration("EVENTS_AUTO_COMPLETE_INTERVAL")
}

// Validate checks settings that would otherwise fail at an awkward moment.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Persist.Driver {
	case "memory", "file", "postgres":
	default:
		return fmt.Errorf("unknown persist driver: %q", c.Persist.Driver)
	}
	if c.Persist.Driver == "file" && c.Persist.Dir == "" {
		return fmt.Errorf("persist dir is required for the file driver")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt secret is required")
	}
	if c.IsProduction() && c.Auth.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("auth jwt secret must be set in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token ttl must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive")
	}
	if c.Events.AutoComplete && c.Events.AutoCompleteInterval <= 0 {
		return fmt.Errorf("auto complete interval must be positive")
	}
	return nil
}

// IsProduction returns true when running in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true when running in development.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
