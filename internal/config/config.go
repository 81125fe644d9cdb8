package config

import (
	"os"
	"strconv"
	"time"

	"boxoffice/internal/cache"
	"boxoffice/internal/database"
	"boxoffice/internal/external"
	"boxoffice/internal/messaging"
	"boxoffice/internal/search"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	MetricsPort    string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Reservations
	HoldDuration  time.Duration
	SweepInterval time.Duration
	SweepLockTTL  time.Duration
	SweepLockKey  string

	Database      database.Config
	NATS          messaging.Config
	Payment       external.PaymentConfig
	Redis         cache.Config
	Elasticsearch search.Config
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		MetricsPort:    getEnv("METRICS_PORT", "9091"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		HoldDuration:  time.Duration(getEnvInt("HOLD_DURATION_MIN", 15)) * time.Minute,
		SweepInterval: getEnvDuration("SWEEP_INTERVAL", time.Minute),
		SweepLockTTL:  getEnvDuration("SWEEP_LOCK_TTL", 50*time.Second),
		SweepLockKey:  getEnv("SWEEP_LOCK_KEY", "boxoffice:sweeper"),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "boxoffice"),
			Password:           getEnv("DB_PASSWORD", "boxoffice"),
			DBName:             getEnv("DB_NAME", "boxoffice"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			Enabled:   getEnvBool("NATS_ENABLED", false),
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "boxoffice"),
			ClientID:  getEnv("NATS_CLIENT_ID", "boxoffice-api"),
		},

		Payment: external.PaymentConfig{
			Mode:     getEnv("PAYMENT_MODE", "sandbox"),
			BaseURL:  getEnv("PAYMENT_GATEWAY_URL", "http://localhost:8090"),
			TeamSlug: getEnv("PAYMENT_TEAM_SLUG", ""),
			Password: getEnv("PAYMENT_PASSWORD", ""),
			Currency: getEnv("PAYMENT_CURRENCY", "USD"),
			Timeout:  time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},

		Redis: cache.Config{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		Elasticsearch: search.Config{
			Enabled:    getEnvBool("ELASTICSEARCH_ENABLED", false),
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Index:      getEnv("ELASTICSEARCH_INDEX", "orders"),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration принимает формат time.ParseDuration ("90s", "1m")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
