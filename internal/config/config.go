// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every runtime knob, read from the environment. A .env file
// is honored in development; production injects env vars through infra.
type Config struct {
	Port           string
	BaseURL        string
	UploadDir      string
	AllowedOrigins string
	LogLevel       string

	// SessionTTL deletes artifacts not touched within the window. Zero
	// disables reclamation entirely (the default — sessions live forever).
	SessionTTL   time.Duration
	ReapInterval time.Duration
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		godotenv.Load()
	}

	cfg := &Config{
		Port:           getenv("PORT", "8083"),
		UploadDir:      getenv("UPLOAD_DIR", "./uploads"),
		AllowedOrigins: getenv("ALLOWED_ORIGINS", "*"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		ReapInterval:   10 * time.Minute,
	}
	cfg.BaseURL = getenv("BASE_URL", "http://localhost:"+cfg.Port)

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}
	if v := os.Getenv("REAP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse REAP_INTERVAL: %w", err)
		}
		cfg.ReapInterval = d
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
