package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"gofalre.io/storefront/storage"
)

type Config struct {
	ServerPort  string
	Environment string

	StorageDriver string
	StoragePrefix string
	CartKey       string
	WishlistKey   string
	SnapshotTTL   time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string
	NatsURL       string
	NotifyWorkers int
	SessionCookie string
	MergeCeiling  bool

	// SessionIdleTTL releases a session's in-memory scope after this long
	// without a request. Zero keeps scopes until shutdown.
	SessionIdleTTL time.Duration
}

func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	config := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		StorageDriver: getEnv("STORAGE_DRIVER", storage.DriverMemory),
		StoragePrefix: getEnv("STORAGE_PREFIX", "storefront"),
		CartKey:       getEnv("CART_STORAGE_KEY", "cafe-aurora-cart"),
		WishlistKey:   getEnv("WISHLIST_STORAGE_KEY", "cafe-aurora-wishlist"),
		SnapshotTTL:   time.Duration(getEnvAsInt64("SNAPSHOT_TTL_HOURS", 720)) * time.Hour,
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       int(getEnvAsInt64("REDIS_DB", 0)),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		NatsURL:       getEnv("NATS_URL", ""),
		NotifyWorkers: int(getEnvAsInt64("NOTIFY_WORKERS", 4)),
		SessionCookie: getEnv("SESSION_COOKIE", "aurora_session"),
		MergeCeiling:  getEnvAsBool("CART_MERGE_CEILING", false),

		SessionIdleTTL: time.Duration(getEnvAsInt64("SESSION_IDLE_TTL_MINUTES", 30)) * time.Minute,
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case storage.DriverMemory, storage.DriverRedis:
	case storage.DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the %s driver", c.StorageDriver)
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.NotifyWorkers < 1 {
		return fmt.Errorf("config: NOTIFY_WORKERS must be positive, got %d", c.NotifyWorkers)
	}
	if c.SessionIdleTTL < 0 {
		return fmt.Errorf("config: SESSION_IDLE_TTL_MINUTES must not be negative, got %s", c.SessionIdleTTL)
	}
	if c.SessionCookie == "" {
		return fmt.Errorf("config: SESSION_COOKIE must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}
