package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Config struct {
	ProjectID       string
	CredentialsFile string
	Port            string
	CrawlInterval   time.Duration
	FetchTimeout    time.Duration
	MaxStoredDeals  int
	UserAgent       string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required but not set")
	}

	credentialsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
	if credentialsFile == "" {
		slog.Warn("FIREBASE_CREDENTIALS_FILE not set, push notifications will be unavailable")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	crawlInterval, err := durationEnv("CRAWL_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := durationEnv("FETCH_TIMEOUT", 8*time.Second)
	if err != nil {
		return nil, err
	}

	maxStoredDeals := 1000
	if v := os.Getenv("MAX_STORED_DEALS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_STORED_DEALS %q: %w", v, err)
		}
		maxStoredDeals = parsed
	}

	userAgent := os.Getenv("USER_AGENT")
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Config{
		ProjectID:       projectID,
		CredentialsFile: credentialsFile,
		Port:            port,
		CrawlInterval:   crawlInterval,
		FetchTimeout:    fetchTimeout,
		MaxStoredDeals:  maxStoredDeals,
		UserAgent:       userAgent,
	}, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
