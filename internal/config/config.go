package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultWebhookURL points at a local n8n instance.
const DefaultWebhookURL = "http://localhost:5678/webhook/stock-analysis"

type Config struct {
	// Analysis webhook
	WebhookURL            string `json:"webhook_url" validate:"required,url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" validate:"gte=0"`
	UserAgent             string `json:"user_agent"`

	// Web server
	ListenAddr string  `json:"listen_addr" validate:"required,hostname_port"`
	PagePath   string  `json:"page_path,omitempty" validate:"omitempty,file"`
	RateLimit  float64 `json:"rate_limit" validate:"gte=0"`
	RateBurst  int     `json:"rate_burst" validate:"gte=0"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	Debug    bool   `json:"debug"`
}

var (
	validate   = validator.New()
	dotenvOnce sync.Once
)

// Defaults is the built-in configuration with no environment applied. It is
// what a fresh config file contains.
func Defaults() Config {
	return Config{
		WebhookURL: DefaultWebhookURL,
		UserAgent:  "tickerview/1.0",

		ListenAddr: "127.0.0.1:8080",
		RateLimit:  2,
		RateBurst:  5,

		LogLevel: "info",
	}
}

// DefaultConfig is Defaults with .env and TICKERVIEW_* overrides applied.
func DefaultConfig() *Config {
	cfg := Defaults()
	cfg.LoadFromEnv()
	return &cfg
}

func loadDotEnv() {
	dotenvOnce.Do(func() {
		// Load environment variables from .env file
		_ = godotenv.Load()
	})
}

// LoadFromEnv overrides fields from TICKERVIEW_* environment variables.
func (c *Config) LoadFromEnv() {
	loadDotEnv()
	if val := os.Getenv("TICKERVIEW_WEBHOOK_URL"); val != "" {
		c.WebhookURL = val
	}
	if val := os.Getenv("TICKERVIEW_REQUEST_TIMEOUT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.RequestTimeoutSeconds = v
		}
	}
	if val := os.Getenv("TICKERVIEW_USER_AGENT"); val != "" {
		c.UserAgent = val
	}

	if val := os.Getenv("TICKERVIEW_ADDR"); val != "" {
		c.ListenAddr = val
	}
	if val := os.Getenv("TICKERVIEW_PAGE"); val != "" {
		c.PagePath = val
	}
	if val := os.Getenv("TICKERVIEW_RATE_LIMIT"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.RateLimit = v
		}
	}
	if val := os.Getenv("TICKERVIEW_RATE_BURST"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.RateBurst = v
		}
	}

	if val := os.Getenv("TICKERVIEW_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("TICKERVIEW_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

// RequestTimeout is the per-request webhook timeout; zero means none.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
