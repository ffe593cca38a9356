package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	PixverseAPIKey   string
	PixverseBaseURL  string
	HistoryDir       string
	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	UpstreamTimeout  time.Duration
	RateLimitPerMin  int
	PollInterval     time.Duration
	PollMaxTicks     int
	ProgressInterval time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "4000"),
		PixverseAPIKey:   os.Getenv("PIXVERSE_API_KEY"),
		PixverseBaseURL:  getEnv("PIXVERSE_BASE_URL", "https://app-api.pixverse.ai"),
		HistoryDir:       getEnv("HISTORY_DIR", defaultHistoryDir()),
		AllowedOrigins:   []string{getEnv("ALLOWED_ORIGIN", "*")},
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		UpstreamTimeout:  time.Second * time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 90)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		PollInterval:     time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 4)),
		PollMaxTicks:     getEnvInt("POLL_MAX_TICKS", 90),
		ProgressInterval: time.Millisecond * time.Duration(getEnvInt("PROGRESS_INTERVAL_MS", 800)),
	}

	if cfg.PixverseAPIKey == "" {
		return nil, fmt.Errorf("PIXVERSE_API_KEY is required")
	}

	return cfg, nil
}

func defaultHistoryDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".pixverse-webui")
	}
	return ".pixverse-webui"
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
