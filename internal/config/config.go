package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "satgas-data/internal/common/config"
)

// Config satgas-data HTTP API settings.
type Config struct {
	HTTP struct {
		Addr            string
		ShutdownTimeout time.Duration
	}
	Database commoncfg.DatabaseConfig
	Redis    commoncfg.RedisConfig
	// CachePrefix namespaces every cache key in Redis.
	CachePrefix string
	Log      struct {
		Level  string
		Format string
	}
	Geocoder GeocoderConfig
	Events   struct {
		Enabled bool
		Stream  string
		MaxLen  int64
	}
}

// GeocoderConfig reverse geocoding provider used by /me/update.
type GeocoderConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.ShutdownTimeout = time.Duration(parseInt(getEnv("HTTP_SHUTDOWN_TIMEOUT_SEC", "5"), 5)) * time.Second

	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "satgas",
		SSLMode:  "disable",
		MaxConns: 20,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.CachePrefix = getEnv("CACHE_PREFIX", "satgas-data:")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Geocoder.BaseURL = getEnv("GEOCODER_BASE_URL", "https://revgeocode.search.hereapi.com")
	cfg.Geocoder.APIKey = getEnv("GEOCODER_API_KEY", "")
	cfg.Geocoder.Timeout = time.Duration(parseInt(getEnv("GEOCODER_TIMEOUT_SEC", "10"), 10)) * time.Second
	cfg.Geocoder.CacheTTL = time.Duration(parseInt(getEnv("GEOCODER_CACHE_TTL_HOURS", "720"), 720)) * time.Hour

	cfg.Events.Enabled = getEnv("EVENTS_ENABLED", "true") != "false"
	cfg.Events.Stream = getEnv("EVENTS_STREAM", "satgas:account-events")
	cfg.Events.MaxLen = int64(parseInt(getEnv("EVENTS_MAX_LEN", "100000"), 100000))

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
