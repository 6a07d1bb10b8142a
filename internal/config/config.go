package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Port        string `mapstructure:"PORT"`
	Origin      string `mapstructure:"ORIGIN"`
	Environment string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUsername  string `mapstructure:"DB_USERNAME"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int    `mapstructure:"DB_MAX_CONNS"`
	DBRetries   int    `mapstructure:"DB_CONNECT_RETRIES"`

	JWTSecret            string `mapstructure:"JWT_SECRET"`
	JWTExpirationMinutes int    `mapstructure:"JWT_EXPIRATION_MINUTES"`
	AuthRequired         bool   `mapstructure:"AUTH_REQUIRED"`

	RedisURL           string `mapstructure:"REDIS_URL"`
	CacheTTLSeconds    int    `mapstructure:"CACHE_TTL_SECONDS"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	BookingMaxRetries int    `mapstructure:"BOOKING_MAX_RETRIES"`
	SlotPruneEnabled  bool   `mapstructure:"SLOT_PRUNE_ENABLED"`
	SlotPruneSchedule string `mapstructure:"SLOT_PRUNE_SCHEDULE"`

	OTelEnabled       bool    `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint      string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelSamplingRatio float64 `mapstructure:"OTEL_SAMPLING_RATIO"`
	ServiceName       string  `mapstructure:"SERVICE_NAME"`

	Database DatabaseConfig `mapstructure:"-"`
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver string
	DSN    string
}

var defaults = map[string]interface{}{
	"PORT":                        "3001",
	"ORIGIN":                      "http://localhost:4200",
	"ENV":                         "development",
	"LOG_LEVEL":                   "info",
	"DB_DRIVER":                   "mysql",
	"DB_HOST":                     "localhost",
	"DB_PORT":                     "3306",
	"DB_USERNAME":                 "root",
	"DB_PASSWORD":                 "",
	"DB_NAME":                     "healthcare",
	"DATABASE_URL":                "",
	"DB_MAX_CONNS":                20,
	"DB_CONNECT_RETRIES":          5,
	"JWT_SECRET":                  "default_jwt_secret",
	"JWT_EXPIRATION_MINUTES":      60,
	"AUTH_REQUIRED":               false,
	"REDIS_URL":                   "",
	"CACHE_TTL_SECONDS":           60,
	"RATE_LIMIT_PER_MINUTE":       60,
	"BOOKING_MAX_RETRIES":         5,
	"SLOT_PRUNE_ENABLED":          true,
	"SLOT_PRUNE_SCHEDULE":         "0 2 * * *",
	"OTEL_ENABLED":                false,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4317",
	"OTEL_SAMPLING_RATIO":         1.0,
	"SERVICE_NAME":                "healthcare-booking-server",
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
		// Bind env vars explicitly so Unmarshal picks them up
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.Database = DatabaseConfig{
		Driver: cfg.DBDriver,
		DSN:    cfg.buildDSN(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildDSN prefers DATABASE_URL and otherwise assembles a DSN for the driver.
func (c *Config) buildDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, c.DBPort, c.DBUsername, c.DBPassword, c.DBName)
	case "sqlite":
		return c.DBName + ".db"
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.DBUsername, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be \"mysql\", \"postgres\" or \"sqlite\", got %q", c.DBDriver)
	}
	if c.JWTExpirationMinutes <= 0 {
		return fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %d", c.JWTExpirationMinutes)
	}
	if c.BookingMaxRetries <= 0 {
		return fmt.Errorf("invalid BOOKING_MAX_RETRIES: %d", c.BookingMaxRetries)
	}
	if c.CacheTTLSeconds < 0 {
		return fmt.Errorf("invalid CACHE_TTL_SECONDS: %d", c.CacheTTLSeconds)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %d", c.RateLimitPerMinute)
	}
	if c.OTelSamplingRatio < 0 || c.OTelSamplingRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLING_RATIO must be between 0 and 1, got %v", c.OTelSamplingRatio)
	}
	if c.IsProduction() && c.JWTSecret == defaults["JWT_SECRET"] {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDev reports whether ENV is development.
func (c *Config) IsDev() bool {
	return c.Environment == "development"
}

// TokenTTL is how long issued session tokens stay valid.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpirationMinutes) * time.Minute
}

// CacheTTL is how long cached hospital searches live.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
