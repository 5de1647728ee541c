package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis (client-state snapshots; empty addr falls back to in-memory)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka (settlement event publication; empty brokers disables it)
	KafkaBrokers     []string
	TopicPurchases   string
	TopicRedemptions string
	OutboxInterval   time.Duration
	OutboxBatchSize  int
	OutboxMaxRetry   int

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Wallet
	ReconcileInterval    time.Duration
	UsernameChangeWindow time.Duration

	// Server
	Port        string
	CORSOrigins string

	// Product catalog
	CatalogPath string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "shop_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		KafkaBrokers:     parseCSV(getEnv("KAFKA_BROKERS", "")),
		TopicPurchases:   getEnv("KAFKA_TOPIC_PURCHASES", "shop.purchases"),
		TopicRedemptions: getEnv("KAFKA_TOPIC_REDEMPTIONS", "shop.redemptions"),
		OutboxInterval:   parseDuration(getEnv("OUTBOX_INTERVAL", "5s"), 5*time.Second),
		OutboxBatchSize:  50,
		OutboxMaxRetry:   5,

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		ReconcileInterval:    parseDuration(getEnv("RECONCILE_INTERVAL", "30s"), 30*time.Second),
		UsernameChangeWindow: parseDuration(getEnv("USERNAME_CHANGE_WINDOW", "720h"), 720*time.Hour),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		CatalogPath: getEnv("CATALOG_PATH", "catalog.json"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
