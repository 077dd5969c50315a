package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akylbek/payment-system/tilopay-connector/internal/tilopay"
)

type Config struct {
	Port         string
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	NatsURL      string
	OTLPEndpoint string

	TilopayAPIURL      string
	TilopayAPIUser     string
	TilopayAPIPassword string
	TilopayAPIKey      string

	// BaseURL is the public address of the shop, used to build the
	// provider redirect.
	BaseURL         string
	StatusPath      string
	ShutdownTimeout time.Duration
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	shutdownTimeout, err := time.ParseDuration(getString("SHUTDOWN_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:               getString("PORT", "8082"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           getString("REDIS_URL", "localhost:6379"),
		KafkaBrokers:       splitList(getString("KAFKA_BROKERS", "localhost:9092")),
		NatsURL:            getString("NATS_URL", "nats://localhost:4222"),
		OTLPEndpoint:       os.Getenv("OTLP_ENDPOINT"),
		TilopayAPIURL:      getString("TILOPAY_API_URL", tilopay.DefaultAPIURL),
		TilopayAPIUser:     os.Getenv("TILOPAY_API_USER"),
		TilopayAPIPassword: os.Getenv("TILOPAY_API_PASSWORD"),
		TilopayAPIKey:      os.Getenv("TILOPAY_API_KEY"),
		BaseURL:            getString("BASE_URL", "http://localhost:8082"),
		StatusPath:         getString("STATUS_PATH", "/payment/status"),
		ShutdownTimeout:    shutdownTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	if c.TilopayAPIUser == "" || c.TilopayAPIPassword == "" || c.TilopayAPIKey == "" {
		errs = append(errs, errors.New("TILOPAY_API_USER, TILOPAY_API_PASSWORD and TILOPAY_API_KEY are required"))
	}
	if !strings.HasPrefix(c.StatusPath, "/") {
		errs = append(errs, fmt.Errorf("STATUS_PATH must start with '/': %q", c.StatusPath))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func getString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
