package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the funnel service reads from its environment.
// Every external dependency is optional: an empty URL or DSN means the
// corresponding feature degrades (no session cache, no event archive, ...)
// rather than failing startup.
type Config struct {
	Addr string

	// Upstream checkout/identity API.
	CheckoutBaseURL  string
	SessionAuthToken string
	SessionTimeout   time.Duration

	// Reverse geocoding provider.
	GeocoderBaseURL string
	GeocoderToken   string
	GeocoderTimeout time.Duration

	// Outbound quiz application.
	QuizBaseURL string

	Redis      RedisConfig
	SessionTTL time.Duration

	Kafka KafkaConfig

	// Optional Postgres DSN for the analytics event archive.
	ArchiveDSN string
}

// RedisConfig mirrors the go-redis options we override.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig locates the analytics event pipeline.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:             envOr("FUNNELGATE_ADDR", ":8080"),
		CheckoutBaseURL:  envOr("CHECKOUT_API_URL", "https://api.palisade.ai"),
		SessionAuthToken: os.Getenv("SESSION_AUTH_TOKEN"),
		SessionTimeout:   envDuration("SESSION_MINT_TIMEOUT", 5*time.Second),
		GeocoderBaseURL:  envOr("GEOCODER_URL", "https://api.mapbox.com/geocoding/v5/mapbox.places"),
		GeocoderToken:    os.Getenv("GEOCODER_TOKEN"),
		GeocoderTimeout:  envDuration("GEOCODER_TIMEOUT", 10*time.Second),
		QuizBaseURL:      envOr("QUIZ_URL", "https://www.homelight.com"),
		SessionTTL:       envDuration("SESSION_TTL", 30*time.Minute),
		ArchiveDSN:       os.Getenv("ARCHIVE_DSN"),
	}

	cfg.Redis = RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     envInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka = KafkaConfig{
			Brokers: splitComma(brokers),
			Topic:   envOr("KAFKA_TOPIC", "funnel.events"),
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
