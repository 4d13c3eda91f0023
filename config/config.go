package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"waitlist-system/models"
)

type Config struct {
	Environment string

	// Redis configuration
	RedisURL string

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUUID         string

	// Tenant defaults, used when a restaurant has no stored settings row.
	DefaultWaitingAlertMin     int
	DefaultCalledAlertMin      int
	DefaultEstimationWindowMin int

	// Metrics snapshot cache
	MetricsCacheTTL time.Duration

	// Rate limiting
	RateLimitPerMinute int

	// Monitoring
	EnableMetrics   bool
	CollectInterval time.Duration
}

func LoadConfig() *Config {
	// Optional .env for local development; real env vars always win.
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),

		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUUID:         getEnv("PUBNUB_UUID", "waitlist-server"),

		DefaultWaitingAlertMin:     getEnvAsInt("DEFAULT_WAITING_ALERT_MIN", 30),
		DefaultCalledAlertMin:      getEnvAsInt("DEFAULT_CALLED_ALERT_MIN", 10),
		DefaultEstimationWindowMin: getEnvAsInt("DEFAULT_ESTIMATION_WINDOW_MIN", 120),

		MetricsCacheTTL: getEnvAsDuration("METRICS_CACHE_TTL", "5s"),

		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),

		EnableMetrics:   getEnvAsBool("ENABLE_METRICS", true),
		CollectInterval: getEnvAsDuration("COLLECT_INTERVAL", "30s"),
	}
}

// DefaultSettings is the settings snapshot applied to tenants that have not
// configured their own thresholds yet.
func (c *Config) DefaultSettings() models.QueueSettings {
	return models.QueueSettings{
		WaitingAlertThresholdMin: c.DefaultWaitingAlertMin,
		CalledAlertThresholdMin:  c.DefaultCalledAlertMin,
		EstimationWindowMin:      c.DefaultEstimationWindowMin,
	}
}

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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, fall back to the default value.
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
