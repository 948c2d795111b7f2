// Package config loads the bot's configuration from environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sunsetbot/sunsetbot/internal/sunset"
)

// Environment variable names.
const (
	EnvSunsethueAPIKey    = "SUNSETHUE_API_KEY"
	EnvTelegramBotToken   = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID     = "TELEGRAM_CHAT_ID"
	EnvCoordinatesURL     = "COORDINATES_URL"
	EnvNotifyQualities    = "NOTIFY_QUALITIES"
	EnvTriggerSigningKey  = "TRIGGER_SIGNING_KEY"
	EnvPubSubProject      = "PUBSUB_PROJECT_ID"
	EnvPubSubSubscription = "PUBSUB_SUBSCRIPTION"
)

// DefaultEnvFile is read by LoadEnvFile when no path is given.
const DefaultEnvFile = ".env"

var (
	// ErrMissingConfig is returned by Validate when required keys are unset.
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrInvalidConfig is returned by Load when a value cannot be parsed.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds the bot configuration.
type Config struct {
	// Upstreams
	SunsethueAPIKey    string
	SunsethueBaseURL   string
	TelegramBotToken   string
	TelegramChatID     string
	TelegramBaseURL    string
	CoordinatesURL     string
	NominatimBaseURL   string
	NominatimUserAgent string
	HTTPTimeout        time.Duration

	// NotifyQualities are the quality labels that produce a forecast message.
	NotifyQualities []sunset.Quality

	// Runtime
	Environment string
	Port        string
	LogLevel    zerolog.Level

	// Telemetry
	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64

	// Worker triggers
	PubSubProjectID      string
	PubSubSubscription   string
	TriggerSigningKey    string
	TriggerRatePerMinute int
}

// LoadEnvFile loads variables from a .env file without overriding variables
// already set. A missing default file is not an error; a missing explicit
// path is.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from the environment. It fails only on values
// that are present but malformed; call Validate for required keys.
func Load() (*Config, error) {
	timeout, err := time.ParseDuration(envOr("HTTP_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("%w: HTTP_TIMEOUT %q", ErrInvalidConfig, os.Getenv("HTTP_TIMEOUT"))
	}

	qualities, err := ParseQualities(os.Getenv(EnvNotifyQualities))
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(strings.ToLower(envOr("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("%w: LOG_LEVEL: %v", ErrInvalidConfig, err)
	}

	ratePerMinute, err := envInt("TRIGGER_RATE_PER_MINUTE", 6)
	if err != nil {
		return nil, err
	}
	if ratePerMinute <= 0 {
		return nil, fmt.Errorf("%w: TRIGGER_RATE_PER_MINUTE must be positive", ErrInvalidConfig)
	}

	sampleRatio, err := strconv.ParseFloat(envOr("OTEL_SAMPLE_RATIO", "1"), 64)
	if err != nil || sampleRatio <= 0 || sampleRatio > 1 {
		return nil, fmt.Errorf("%w: OTEL_SAMPLE_RATIO must be in (0, 1]", ErrInvalidConfig)
	}

	otelEnabled, err := envBool("OTEL_ENABLED", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		SunsethueAPIKey:    os.Getenv(EnvSunsethueAPIKey),
		SunsethueBaseURL:   envOr("SUNSETHUE_BASE_URL", "https://api.sunsethue.com"),
		TelegramBotToken:   os.Getenv(EnvTelegramBotToken),
		TelegramChatID:     os.Getenv(EnvTelegramChatID),
		TelegramBaseURL:    envOr("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		CoordinatesURL:     os.Getenv(EnvCoordinatesURL),
		NominatimBaseURL:   envOr("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: envOr("NOMINATIM_USER_AGENT", "SunsetBot/1.0"),
		HTTPTimeout:        timeout,

		NotifyQualities: qualities,

		Environment: envOr("APP_ENV", "development"),
		Port:        envOr("APP_PORT", "8080"),
		LogLevel:    level,

		OTelEnabled:     otelEnabled,
		OTLPEndpoint:    envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: sampleRatio,

		PubSubProjectID:      os.Getenv(EnvPubSubProject),
		PubSubSubscription:   os.Getenv(EnvPubSubSubscription),
		TriggerSigningKey:    os.Getenv(EnvTriggerSigningKey),
		TriggerRatePerMinute: ratePerMinute,
	}, nil
}

type requiredKey struct {
	key   string
	value string
}

// Validate reports every required key that is unset.
func (c *Config) Validate() error {
	return validateRequired([]requiredKey{
		{EnvSunsethueAPIKey, c.SunsethueAPIKey},
		{EnvTelegramBotToken, c.TelegramBotToken},
		{EnvTelegramChatID, c.TelegramChatID},
		{EnvCoordinatesURL, c.CoordinatesURL},
	})
}

// ValidateDryRun is Validate without the Telegram keys, for runs that only
// log the message.
func (c *Config) ValidateDryRun() error {
	return validateRequired([]requiredKey{
		{EnvSunsethueAPIKey, c.SunsethueAPIKey},
		{EnvCoordinatesURL, c.CoordinatesURL},
	})
}

func validateRequired(keys []requiredKey) error {
	var missing []string
	for _, kv := range keys {
		if strings.TrimSpace(kv.value) == "" {
			missing = append(missing, kv.key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// PubSubEnabled reports whether the worker should subscribe to Pub/Sub.
func (c *Config) PubSubEnabled() bool {
	return c.PubSubProjectID != "" && c.PubSubSubscription != ""
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ParseQualities parses a comma-separated list of quality labels. An empty
// list selects every known label.
func ParseQualities(list string) ([]sunset.Quality, error) {
	var qualities []sunset.Quality
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		q, ok := sunset.ParseQuality(part)
		if !ok {
			return nil, fmt.Errorf("%w: %s: unknown quality %q", ErrInvalidConfig, EnvNotifyQualities, strings.TrimSpace(part))
		}
		qualities = append(qualities, q)
	}

	if len(qualities) == 0 {
		return append([]sunset.Quality(nil), sunset.KnownQualities...), nil
	}
	return qualities, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidConfig, key, v)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s %q", ErrInvalidConfig, key, v)
	}
	return b, nil
}
