package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported session storage backends.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Session  SessionConfig
	Routes   RoutesConfig
	Activity ActivityConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SessionConfig describes where visitor sessions are persisted.
type SessionConfig struct {
	Backend    string
	KeyPrefix  string
	RecordKey  string
	LegacyKey  string
	CookieName string
	TTLMinutes int
}

// RoutesConfig holds the redirect targets used by the guard.
type RoutesConfig struct {
	LoginPath        string
	UnauthorizedPath string
	DashboardPath    string
	AdminPath        string
}

// ActivityConfig bounds the per-visitor activity log.
type ActivityConfig struct {
	MaxEntries int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := strings.ToLower(getEnv("SESSION_BACKEND", BackendRedis))
	switch backend {
	case BackendRedis, BackendPostgres, BackendMemory:
	default:
		return nil, fmt.Errorf("invalid SESSION_BACKEND %q", backend)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "storefront-guard"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			Backend:    backend,
			KeyPrefix:  getEnv("SESSION_KEY_PREFIX", "storefront"),
			RecordKey:  getEnv("SESSION_RECORD_KEY", "authData"),
			LegacyKey:  getEnv("SESSION_LEGACY_KEY", "token"),
			CookieName: getEnv("SESSION_COOKIE_NAME", "visitor_id"),
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 0),
		},
		Routes: RoutesConfig{
			LoginPath:        getEnv("ROUTE_LOGIN_PATH", "/login"),
			UnauthorizedPath: getEnv("ROUTE_UNAUTHORIZED_PATH", "/unauthorized"),
			DashboardPath:    getEnv("ROUTE_DASHBOARD_PATH", "/dashboard"),
			AdminPath:        getEnv("ROUTE_ADMIN_PATH", "/admin"),
		},
		Activity: ActivityConfig{
			MaxEntries: getEnvAsInt("ACTIVITY_LOG_SIZE", 50),
		},
	}

	if cfg.Session.Backend == BackendPostgres && cfg.Postgres.DSN == "" {
		return nil, errors.New("SESSION_BACKEND=postgres requires POSTGRES_DSN")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TTL returns how long a persisted record lives in the backend. Zero means no expiry.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
