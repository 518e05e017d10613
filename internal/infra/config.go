package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	SessionSecret     string
	PlatformBaseURL   string
	PlatformAPIKey    string
	EngineCatalogPath string
	AllowedOrigins    []string
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	RemoteTimeout     time.Duration
	JobPollInterval   time.Duration
	JobPollTimeout    time.Duration
	HistoryLimit      int
	RateLimitPerMin   int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		PlatformBaseURL:   os.Getenv("PLATFORM_BASE_URL"),
		PlatformAPIKey:    os.Getenv("PLATFORM_API_KEY"),
		EngineCatalogPath: os.Getenv("ENGINE_CATALOG_PATH"),
		AllowedOrigins:    splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RemoteTimeout:     time.Second * time.Duration(getEnvInt("REMOTE_TIMEOUT_SECONDS", 60)),
		JobPollInterval:   time.Second * time.Duration(getEnvInt("JOB_POLL_INTERVAL_SECONDS", 4)),
		JobPollTimeout:    time.Second * time.Duration(getEnvInt("JOB_POLL_TIMEOUT_SECONDS", 600)),
		HistoryLimit:      getEnvInt("HISTORY_LIMIT", 50),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.PlatformBaseURL == "" {
		return nil, fmt.Errorf("PLATFORM_BASE_URL is required")
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}
