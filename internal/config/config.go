package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultFeedURL = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`
	StaticDir       string        `json:"static_dir"`

	// Feed configuration
	FeedURL          string        `json:"feed_url"`
	FeedDefaultQuery string        `json:"feed_default_query"`
	FeedTimeout      time.Duration `json:"feed_timeout"`
	FeedWindow       time.Duration `json:"feed_window"`
	UserAgent        string        `json:"user_agent"`

	// Extraction cache store
	KVURL          string        `json:"kv_url"`
	KVToken        string        `json:"-"`
	CacheOpTimeout time.Duration `json:"cache_op_timeout"`
	ExtractTimeout time.Duration `json:"extract_timeout"`

	// Logging
	LogLevel string `json:"log_level"`
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

// FromEnv reads the configuration from the process environment without validating it.
func FromEnv() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		StaticDir:       getEnv("STATIC_DIR", "./web/static"),

		FeedURL:          getEnv("FEED_URL", defaultFeedURL),
		FeedDefaultQuery: getEnv("FEED_DEFAULT_QUERY", "Golden State Warriors"),
		FeedTimeout:      getEnvAsDuration("FEED_TIMEOUT", 10*time.Second),
		FeedWindow:       getEnvAsDuration("FEED_WINDOW", 24*time.Hour),
		UserAgent:        getEnv("USER_AGENT", "newsdesk/1.0 (+https://github.com/bilgisen/newsdesk)"),

		KVURL:          strings.TrimSpace(getEnv("KV_REST_API_URL", "")),
		KVToken:        strings.TrimSpace(getEnv("KV_REST_API_TOKEN", "")),
		CacheOpTimeout: getEnvAsDuration("CACHE_OP_TIMEOUT", 2*time.Second),
		ExtractTimeout: getEnvAsDuration("EXTRACT_TIMEOUT", 15*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.Count(c.FeedURL, "%s") != 1 {
		return fmt.Errorf("FEED_URL must contain exactly one %%s placeholder: %q", c.FeedURL)
	}
	if strings.TrimSpace(c.FeedDefaultQuery) == "" {
		return errors.New("FEED_DEFAULT_QUERY must not be empty")
	}

	for name, d := range map[string]time.Duration{
		"FEED_TIMEOUT":     c.FeedTimeout,
		"FEED_WINDOW":      c.FeedWindow,
		"CACHE_OP_TIMEOUT": c.CacheOpTimeout,
		"EXTRACT_TIMEOUT":  c.ExtractTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	return nil
}

// CacheEnabled reports whether both store settings are present. A partial
// configuration counts as disabled.
func (c *Config) CacheEnabled() bool {
	return c.KVURL != "" && c.KVToken != ""
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		// plain integers are read as seconds
		if secs, convErr := strconv.Atoi(valueStr); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
