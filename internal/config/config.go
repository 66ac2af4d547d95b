package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Inference service
	InferenceURL     string
	InferenceTimeout time.Duration

	// Storage
	StorageBackend string // "disk" or "supabase"
	UploadDir      string
	MaxUploadSize  int64

	// Supabase (required when StorageBackend is "supabase")
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// Server
	Port        string
	Environment string
}

func Load() (*Config, error) {
	cfg := &Config{
		InferenceURL:     getEnv("INFERENCE_URL", "http://localhost:5000"),
		InferenceTimeout: time.Duration(getEnvInt("INFERENCE_TIMEOUT_SECONDS", 120)) * time.Second,

		StorageBackend: getEnv("STORAGE_BACKEND", "disk"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadSize:  int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 500)) << 20,

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "media-uploads"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.InferenceURL == "" {
		return fmt.Errorf("INFERENCE_URL is required")
	}
	if c.StorageBackend != "disk" && c.StorageBackend != "supabase" {
		return fmt.Errorf("STORAGE_BACKEND must be \"disk\" or \"supabase\", got %q", c.StorageBackend)
	}
	if c.StorageBackend == "supabase" {
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required when STORAGE_BACKEND is \"supabase\"")
		}
		if c.SupabasePublishableKey == "" {
			return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required when STORAGE_BACKEND is \"supabase\"")
		}
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
