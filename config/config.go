package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration read from the environment (and an optional .env file).
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`
	Port   string `envconfig:"PORT" default:"8080"`

	// Fiber default BodyLimit is 4MB; BODY_LIMIT_BYTES wins over BODY_LIMIT_MB.
	BodyLimitBytes int `envconfig:"BODY_LIMIT_BYTES" default:"0"`
	BodyLimitMB    int `envconfig:"BODY_LIMIT_MB" default:"4"`

	AllowedOrigins  string        `envconfig:"ALLOWED_ORIGINS" default:"*"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
	LogOutput string `envconfig:"LOG_OUTPUT" default:"stdout"`

	DB DatabaseConfig

	// Empty secret disables bearer auth (local development only).
	JWTSecret string `envconfig:"JWT_SECRET"`

	Geocoder GeocoderConfig
}

// DatabaseConfig selects the GORM dialector and its connection settings.
type DatabaseConfig struct {
	Driver        string        `envconfig:"DB_DRIVER" default:"postgres"`
	DSN           string        `envconfig:"DB_DSN"`
	Host          string        `envconfig:"DB_HOST" default:"db"`
	Port          int           `envconfig:"DB_PORT" default:"5432"`
	User          string        `envconfig:"DB_USER"`
	Password      string        `envconfig:"DB_PASSWORD"`
	Name          string        `envconfig:"DB_NAME"`
	SSLMode       string        `envconfig:"DB_SSLMODE" default:"disable"`
	LogLevel      string        `envconfig:"DB_LOG_LEVEL" default:"warn"`
	SlowThreshold time.Duration `envconfig:"DB_SLOW_THRESHOLD" default:"200ms"`
}

// GeocoderConfig configures the outbound address lookup service.
type GeocoderConfig struct {
	URL          string        `envconfig:"GEOCODER_URL" default:"https://nominatim.openstreetmap.org/search"`
	UserAgent    string        `envconfig:"GEOCODER_USER_AGENT" default:"crm-backend/1.0"`
	Timeout      time.Duration `envconfig:"GEOCODER_TIMEOUT" default:"10s"`
	Delay        time.Duration `envconfig:"GEOCODER_DELAY" default:"1s"`
	CountryCodes string        `envconfig:"GEOCODER_COUNTRY_CODES"`
}

// Load reads .env (if present) and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DB.Driver) {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.Driver != "sqlite" && c.DB.DSN == "" && c.DB.Name == "" {
		return fmt.Errorf("DB_NAME or DB_DSN must be set for %s", c.DB.Driver)
	}
	if c.IsProduction() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive")
	}
	return nil
}

// BodyLimit returns the request body limit in bytes.
func (c *Config) BodyLimit() int {
	if c.BodyLimitBytes > 0 {
		return c.BodyLimitBytes
	}
	return c.BodyLimitMB * 1024 * 1024
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
