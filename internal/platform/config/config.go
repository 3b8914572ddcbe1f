package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean; cmd binaries load a .env first in dev.
type Config struct {
	Addr          string
	LogLevel      string
	JWTSigningKey string

	// StoreDriver selects the collection gateway: "memory" for dev and
	// tests, "postgres" for real deployments.
	StoreDriver string
	PostgresURL string

	// RedisURL enables the conviction match cache when non-empty.
	RedisURL      string
	MatchCacheTTL time.Duration

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string
	AuditTopic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("REGOFFICE_ADDR", ":8080"),
		LogLevel:      getenv("REGOFFICE_LOG_LEVEL", "info"),
		JWTSigningKey: getenv("REGOFFICE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		StoreDriver:   getenv("REGOFFICE_STORE_DRIVER", "memory"),
		PostgresURL:   os.Getenv("REGOFFICE_POSTGRES_URL"),
		RedisURL:      os.Getenv("REGOFFICE_REDIS_URL"),
		MatchCacheTTL: duration("REGOFFICE_MATCH_CACHE_TTL", 15*time.Minute),
		AuditTopic:    getenv("REGOFFICE_AUDIT_TOPIC", "regoffice.audit"),
	}
	if brokers := os.Getenv("REGOFFICE_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
