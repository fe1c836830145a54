package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	Booking   BookingConfig
	SMTP      SMTPConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type NewRelicConfig struct {
	LicenseKey string
	AppName    string
	Enabled    bool
}

// BookingConfig bounds the optimistic retry loop of the seat controller.
type BookingConfig struct {
	MaxRetries  int
	BackoffBase time.Duration
}

type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	From      string
	Workers   int
	QueueSize int
	Enabled   bool
}

type RateLimitConfig struct {
	BookingsPerMinute      int
	GeneralPerMinute       int
	CheckUsernamePerMinute int
}

type CacheConfig struct {
	TTLOpenRides time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "bikepool"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MaxIdle:  getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
		},
		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			MaxRetries:  getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:    getEnvAsInt("REDIS_POOL_SIZE", 100),
			MinIdleConn: 10,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		},
		NewRelic: NewRelicConfig{
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			AppName:    getEnv("NEW_RELIC_APP_NAME", "BikePool"),
			Enabled:    getEnvAsBool("NEW_RELIC_ENABLED", false),
		},
		Booking: BookingConfig{
			MaxRetries:  getEnvAsInt("BOOKING_MAX_RETRIES", 4),
			BackoffBase: time.Duration(getEnvAsInt("BOOKING_BACKOFF_BASE_MS", 80)) * time.Millisecond,
		},
		SMTP: SMTPConfig{
			Host:      getEnv("MAIL_SERVER", ""),
			Port:      getEnv("MAIL_PORT", "587"),
			Username:  getEnv("MAIL_USERNAME", ""),
			Password:  getEnv("MAIL_PASSWORD", ""),
			From:      getEnv("MAIL_DEFAULT_SENDER", "noreply@bikepool.com"),
			Workers:   getEnvAsInt("MAIL_WORKERS", 2),
			QueueSize: getEnvAsInt("MAIL_QUEUE_SIZE", 128),
			Enabled:   getEnvAsBool("MAIL_ENABLED", false),
		},
		RateLimit: RateLimitConfig{
			BookingsPerMinute:      getEnvAsInt("RATE_LIMIT_BOOKINGS_PER_MINUTE", 5),
			GeneralPerMinute:       getEnvAsInt("RATE_LIMIT_GENERAL_PER_MINUTE", 100),
			CheckUsernamePerMinute: getEnvAsInt("RATE_LIMIT_CHECK_USERNAME_PER_MINUTE", 10),
		},
		Cache: CacheConfig{
			TTLOpenRides: time.Duration(getEnvAsInt("CACHE_TTL_OPEN_RIDES_SECONDS", 30)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.Booking.MaxRetries < 1 {
		return fmt.Errorf("BOOKING_MAX_RETRIES must be at least 1")
	}
	if c.Booking.BackoffBase <= 0 {
		return fmt.Errorf("BOOKING_BACKOFF_BASE_MS must be positive")
	}
	if c.SMTP.Enabled && c.SMTP.Host == "" {
		return fmt.Errorf("MAIL_SERVER is required when MAIL_ENABLED is set")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
