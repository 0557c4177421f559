// Package config loads explorer settings from a .env file and the
// environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDataset is the public cars2017 extract.
const DefaultDataset = "https://flunky.github.io/cars2017.csv"

// Config holds all runtime configuration.
type Config struct {
	Dataset      string
	FetchTimeout time.Duration
	FetchRetries int

	Port        string
	GRPCPort    string
	MetricsPort string
	CORSOrigin  string

	RateLimitRPS   float64
	RateLimitBurst int

	NATSURL       string
	SubjectPrefix string

	LogLevel         slog.Level
	DismissOnExplore bool
}

// Load reads .env files (if any) and returns the resulting Config. Real
// environment variables take precedence over .env entries.
func Load(files ...string) *Config {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("config: no .env file, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	return &Config{
		Dataset:      envOr("MPG_DATASET", DefaultDataset),
		FetchTimeout: envDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchRetries: envInt("FETCH_ATTEMPTS", 3),

		Port:        envOr("PORT", "8080"),
		GRPCPort:    envOr("GRPC_PORT", "9090"),
		MetricsPort: envOr("METRICS_PORT", ""),
		CORSOrigin:  envOr("CORS_ORIGIN", "*"),

		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 40),

		NATSURL:       envOr("NATS_URL", ""),
		SubjectPrefix: envOr("NATS_SUBJECT_PREFIX", "mpg"),

		LogLevel:         envLevel("LOG_LEVEL", slog.LevelInfo),
		DismissOnExplore: envBool("DISMISS_ON_EXPLORE", false),
	}
}

// CommandSubject is where control commands are requested over NATS.
func (c *Config) CommandSubject() string { return c.SubjectPrefix + ".command" }

// FrameSubject is where rendered frames are published over NATS.
func (c *Config) FrameSubject() string { return c.SubjectPrefix + ".frames" }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("config: ignoring malformed integer", "key", key, "value", v)
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("config: ignoring malformed number", "key", key, "value", v)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("config: ignoring malformed duration", "key", key, "value", v)
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		slog.Warn("config: ignoring malformed bool", "key", key, "value", v)
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		slog.Warn("config: ignoring malformed log level", "key", key, "value", v)
		return fallback
	}
	return l
}
