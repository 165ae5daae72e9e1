package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the intake voice service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// Realtime speech model connection.
	ModelRealtimeURL string
	ModelAPIKey      string
	ModelName        string
	ModelVoice       string
	ModelTemperature float64

	// Telephony provider REST API (call control + recordings).
	ProviderAccountSID string
	ProviderAuthToken  string
	ProviderAPIBaseURL string
	PublicBaseURL      string

	DatabaseURL string

	// Call registry housekeeping.
	CallInactivityTimeout time.Duration

	// Model event types logged verbosely in addition to the handled set.
	VerboseModelEvents []string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:           envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:   envOrDefault("APP_METRICS_NAMESPACE", "intakeline"),
		AllowAnyOrigin:     false,
		ModelRealtimeURL:   envOrDefault("MODEL_REALTIME_URL", "wss://api.openai.com/v1/realtime"),
		ModelAPIKey:        trimmedEnv("MODEL_API_KEY"),
		ModelName:          envOrDefault("MODEL_NAME", "gpt-4o-realtime-preview"),
		ModelVoice:         envOrDefault("MODEL_VOICE", "alloy"),
		ModelTemperature:   0.7,
		ProviderAccountSID: trimmedEnv("PROVIDER_ACCOUNT_SID"),
		ProviderAuthToken:  trimmedEnv("PROVIDER_AUTH_TOKEN"),
		ProviderAPIBaseURL: envOrDefault("PROVIDER_API_BASE_URL", "https://api.twilio.com/2010-04-01"),
		PublicBaseURL:      trimmedEnv("APP_PUBLIC_BASE_URL"),
		DatabaseURL:        trimmedEnv("DATABASE_URL"),

		ShutdownTimeout:       15 * time.Second,
		CallInactivityTimeout: 5 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CallInactivityTimeout, err = durationFromEnv("APP_CALL_INACTIVITY_TIMEOUT", cfg.CallInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.ModelTemperature, err = floatFromEnv("MODEL_TEMPERATURE", cfg.ModelTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.VerboseModelEvents = listFromEnv("MODEL_VERBOSE_EVENTS")

	if cfg.CallInactivityTimeout < 30*time.Second {
		return Config{}, fmt.Errorf("APP_CALL_INACTIVITY_TIMEOUT must be at least 30s")
	}
	if cfg.ModelTemperature < 0 || cfg.ModelTemperature > 2 {
		return Config{}, fmt.Errorf("MODEL_TEMPERATURE must be in [0, 2]")
	}
	if !strings.HasPrefix(cfg.ModelRealtimeURL, "ws://") && !strings.HasPrefix(cfg.ModelRealtimeURL, "wss://") {
		return Config{}, fmt.Errorf("MODEL_REALTIME_URL must be a ws:// or wss:// URL")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}

func listFromEnv(key string) []string {
	v := trimmedEnv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
