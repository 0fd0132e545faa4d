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
	AppEnv                 string
	Port                   string
	DatabaseURL            string
	GeoIPDBPath            string
	GeminiAPIKey           string
	GeminiBaseURL          string
	VideoModel             string
	ContentModel           string
	PollInterval           time.Duration
	MaxPolls               int
	MaxPollErrors          int
	SubmitRetries          int
	SubmitPerSecond        float64
	ProbeTimeout           time.Duration
	ProbeCacheTTL          time.Duration
	BridgeURL              string
	MaxReferenceImageBytes int64
	MaxAssetBytes          int64
	CORSAllowedOrigins     []string
	RateLimitPerMin        int
	HTTPReadTimeout        time.Duration
	HTTPWriteTimeout       time.Duration
	HTTPIdleTimeout        time.Duration
	StoragePath            string
	LogFile                string
	DefaultLocale          string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		Port:                   getEnv("PORT", "3005"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		GeoIPDBPath:            os.Getenv("GEOIP_DB_PATH"),
		GeminiAPIKey:           strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:          getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		VideoModel:             getEnv("VIDEO_MODEL", "veo-3.0-generate-preview"),
		ContentModel:           getEnv("CONTENT_MODEL", "gemini-1.5-flash"),
		PollInterval:           time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)),
		MaxPolls:               getEnvInt("MAX_POLLS", 60),
		MaxPollErrors:          getEnvInt("MAX_POLL_ERRORS", 3),
		SubmitRetries:          getEnvInt("SUBMIT_RETRIES", 3),
		SubmitPerSecond:        getEnvFloat("SUBMIT_PER_SECOND", 1),
		ProbeTimeout:           time.Second * time.Duration(getEnvInt("PROBE_TIMEOUT_SECONDS", 3)),
		ProbeCacheTTL:          time.Second * time.Duration(getEnvInt("PROBE_CACHE_SECONDS", 10)),
		BridgeURL:              getEnv("BRIDGE_URL", "http://localhost:3005"),
		MaxReferenceImageBytes: int64(getEnvInt("MAX_REFERENCE_IMAGE_BYTES", 10<<20)),
		MaxAssetBytes:          int64(getEnvInt("MAX_ASSET_BYTES", 200<<20)),
		CORSAllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitPerMin:        getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		HTTPReadTimeout:        time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:       time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:        time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		StoragePath:            getEnv("STORAGE_PATH", "./output"),
		LogFile:                os.Getenv("LOG_FILE"),
		DefaultLocale:          getEnv("DEFAULT_LOCALE", "en"),
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.MaxPolls < 1 {
		return nil, fmt.Errorf("MAX_POLLS must be at least 1")
	}
	if cfg.MaxPollErrors < 1 {
		return nil, fmt.Errorf("MAX_POLL_ERRORS must be at least 1")
	}
	if cfg.SubmitRetries < 0 {
		return nil, fmt.Errorf("SUBMIT_RETRIES must not be negative")
	}
	if cfg.SubmitPerSecond <= 0 {
		return nil, fmt.Errorf("SUBMIT_PER_SECOND must be positive")
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
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
