package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Polygon  PolygonConfig
	Backfill BackfillConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers        []string
	IngestionTopic string
	QuoteTopic     string
	QuoteGroupID   string
}

// RedisConfig holds Redis configuration for the quote cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	QuoteTTL time.Duration
}

// PolygonConfig holds the market-data API configuration
type PolygonConfig struct {
	APIKey  string
	BaseURL string
}

// BackfillConfig holds the ingestion pacing and classification settings.
// PacingDelay honors the free-tier limit of 5 calls per minute; the
// completeness threshold is the minimum distinct-ticker count for a date to
// be considered fully ingested (the feed tracks ~101 tickers but sometimes
// omits a handful).
type BackfillConfig struct {
	PacingDelay           time.Duration
	CompletenessThreshold int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "marketdata"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:        []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			IngestionTopic: getEnv("KAFKA_INGESTION_TOPIC", "ingestion-events"),
			QuoteTopic:     getEnv("KAFKA_QUOTE_TOPIC", "quote-events"),
			QuoteGroupID:   getEnv("KAFKA_QUOTE_GROUP_ID", "market-data-service"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			QuoteTTL: time.Duration(getEnvInt("REDIS_QUOTE_TTL_SECONDS", 60)) * time.Second,
		},
		Polygon: PolygonConfig{
			APIKey:  getEnv("POLYGON_API_KEY", ""),
			BaseURL: getEnv("POLYGON_BASE_URL", "https://api.polygon.io"),
		},
		Backfill: BackfillConfig{
			PacingDelay:           time.Duration(getEnvInt("BACKFILL_PACING_SECONDS", 12)) * time.Second,
			CompletenessThreshold: getEnvInt("BACKFILL_COMPLETENESS_THRESHOLD", 90),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
