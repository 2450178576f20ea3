package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// QR credential configuration
	QRSecretKey   string
	QRTokenExpiry time.Duration

	// Queue configuration
	QueueMaxCapacity   int
	AvgSwapMinutes     int
	QueueBufferMinutes int
	StaleQueueAge      time.Duration

	// Geofence configuration
	GeofenceRadiusMeters    float64
	ApproachingRadiusMeters float64
	LocationCacheTTL        time.Duration

	// Credit configuration
	SwapCompletionCredits       int
	TransportBaseCredits        int
	TransportDistanceMultiplier float64
	TransportPerBatteryCredits  int

	// Rate limiting
	LocationUpdatesPerMinute int

	// Cleanup configuration
	CleanupInterval time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// QR credentials
		QRSecretKey:   getEnv("QR_SECRET_KEY", "dev-secret-change-me"),
		QRTokenExpiry: getEnvAsDuration("QR_TOKEN_EXPIRY", "15m"),

		// Queue
		QueueMaxCapacity:   getEnvAsInt("QUEUE_MAX_CAPACITY", 20),
		AvgSwapMinutes:     getEnvAsInt("AVG_SWAP_MINUTES", 5),
		QueueBufferMinutes: getEnvAsInt("QUEUE_BUFFER_MINUTES", 2),
		StaleQueueAge:      getEnvAsDuration("STALE_QUEUE_AGE", "2h"),

		// Geofence
		GeofenceRadiusMeters:    getEnvAsFloat("GEOFENCE_RADIUS_METERS", 500),
		ApproachingRadiusMeters: getEnvAsFloat("APPROACHING_RADIUS_METERS", 1000),
		LocationCacheTTL:        getEnvAsDuration("LOCATION_CACHE_TTL", "5m"),

		// Credits
		SwapCompletionCredits:       getEnvAsInt("SWAP_COMPLETION_CREDITS", 10),
		TransportBaseCredits:        getEnvAsInt("TRANSPORT_BASE_CREDITS", 100),
		TransportDistanceMultiplier: getEnvAsFloat("TRANSPORT_DISTANCE_MULTIPLIER", 2.5),
		TransportPerBatteryCredits:  getEnvAsInt("TRANSPORT_PER_BATTERY_CREDITS", 20),

		// Rate limiting
		LocationUpdatesPerMinute: getEnvAsInt("LOCATION_UPDATES_PER_MINUTE", 60),

		// Cleanup
		CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", "1h"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
