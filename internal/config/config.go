package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/lorrc/broker-roster/internal/infrastructure/logging"
)

// Config is the process configuration, read once at startup from the
// environment (and an optional .env file).
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Metrics   MetricsConfig
	Logging   LoggingConfig
	App       AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// StoreConfig selects the broker store implementation
type StoreConfig struct {
	Driver string // postgres, memory
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	AutoMigrate     bool
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	MaxMessageSize  int64
	SendBufferSize  int
}

// CORSConfig holds cross-origin settings for the REST API
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load reads the configuration from the environment and validates it.
// Malformed numeric, boolean and duration values are reported as errors
// instead of silently falling back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	env := &envReader{}
	cfg := &Config{
		Server: ServerConfig{
			Port:            env.String("SERVER_PORT", ":8080"),
			ReadTimeout:     env.Duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    env.Duration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     env.Duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.Duration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(env.String("STORE_DRIVER", StoreDriverPostgres)),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.Duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: env.Duration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			AutoMigrate:     env.Bool("DB_AUTO_MIGRATE", false),
		},
		RateLimit: RateLimitConfig{
			Enabled:           env.Bool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: env.Float("RATE_LIMIT_RPS", 10),
			BurstSize:         env.Int("RATE_LIMIT_BURST", 20),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  env.List("WS_ALLOWED_ORIGINS"),
			ReadBufferSize:  env.Int("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: env.Int("WS_WRITE_BUFFER_SIZE", 1024),
			PingInterval:    env.Duration("WS_PING_INTERVAL", 54*time.Second),
			PongWait:        env.Duration("WS_PONG_WAIT", 60*time.Second),
			WriteWait:       env.Duration("WS_WRITE_WAIT", 10*time.Second),
			MaxMessageSize:  int64(env.Int("WS_MAX_MESSAGE_SIZE", 1024)),
			SendBufferSize:  env.Int("WS_SEND_BUFFER_SIZE", 256),
		},
		CORS: CORSConfig{
			AllowedOrigins: env.List("CORS_ALLOWED_ORIGINS"),
			MaxAge:         env.Int("CORS_MAX_AGE", 300),
		},
		Metrics: MetricsConfig{
			Enabled: env.Bool("METRICS_ENABLED", true),
			Path:    env.String("METRICS_PATH", "/metrics"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(env.String("LOG_LEVEL", "info")),
			Format: strings.ToLower(env.String("LOG_FORMAT", logging.FormatJSON)),
		},
		App: AppConfig{
			Name:        env.String("APP_NAME", "broker-roster"),
			Version:     env.String("APP_VERSION", "dev"),
			Environment: env.String("APP_ENV", "development"),
		},
	}

	if err := errors.Join(env.Err(), cfg.Validate()); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field rules and production requirements
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER must be %q or %q, got %q",
			StoreDriverPostgres, StoreDriverMemory, c.Store.Driver))
	}

	if c.IsProduction() {
		if c.Store.Driver == StoreDriverMemory {
			errs = append(errs, "STORE_DRIVER=memory is not allowed in production")
		}
		if len(c.WebSocket.AllowedOrigins) == 0 {
			errs = append(errs, "WS_ALLOWED_ORIGINS must be set in production")
		}
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}
	if c.WebSocket.PingInterval >= c.WebSocket.PongWait {
		errs = append(errs, "WS_PING_INTERVAL must be shorter than WS_PONG_WAIT")
	}
	if c.WebSocket.SendBufferSize < 1 {
		errs = append(errs, "WS_SEND_BUFFER_SIZE must be at least 1")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, "LOG_LEVEL must be one of debug, info, warn, error")
	}
	if !logging.ValidFormat(c.Logging.Format) {
		errs = append(errs, "LOG_FORMAT must be json or text")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, "METRICS_PATH must start with /")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsDevelopment reports whether APP_ENV is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// String returns a summary that is safe to log
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Store: %s, DB: %s, RateLimit: %v, Environment: %s}",
		c.Server.Port,
		c.Store.Driver,
		redactURL(c.Database.URL),
		c.RateLimit.Enabled,
		c.App.Environment,
	)
}

// redactURL masks the password of a connection URL
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[REDACTED]"
	}
	return u.Redacted()
}

// envReader reads typed environment variables and remembers the ones
// that could not be parsed.
type envReader struct {
	errs []error
}

func (e *envReader) Err() error {
	return errors.Join(e.errs...)
}

func (e *envReader) String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (e *envReader) Int(key string, def int) int {
	return parseEnv(e, key, def, strconv.Atoi)
}

func (e *envReader) Float(key string, def float64) float64 {
	return parseEnv(e, key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func (e *envReader) Bool(key string, def bool) bool {
	return parseEnv(e, key, def, strconv.ParseBool)
}

func (e *envReader) Duration(key string, def time.Duration) time.Duration {
	return parseEnv(e, key, def, time.ParseDuration)
}

// List splits a comma-separated variable, dropping blank entries
func (e *envReader) List(key string) []string {
	result := []string{}
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseEnv[T any](e *envReader, key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid value %q", key, raw))
		return def
	}
	return v
}
