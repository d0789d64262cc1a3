package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Postgres connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis job queue
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Embedding model server
	EncoderBaseURL   string
	EncoderModelName string

	// Vector dimensionality. Required; must match the vector index exactly.
	VectorSize int

	// Search tuning
	FusionPolicy   string
	DefaultLimit   int
	CandidateWidth int

	// Interactive embedding bound
	SyncEmbedTimeout time.Duration

	// Temp query file lifecycle
	UploadRoot    string
	PurgeAge      time.Duration
	PurgeInterval time.Duration

	WorkerCount int
	APIPort     string

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory, it is loaded first; variables
// already set in the environment take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "modalsearch"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		EncoderBaseURL:   getEnv("ENCODER_BASE_URL", "http://localhost:8081"),
		EncoderModelName: getEnv("ENCODER_MODEL_NAME", "imagebind-huge"),
		FusionPolicy:     getEnv("FUSION_POLICY", "threshold"),
		UploadRoot:       getEnv("UPLOAD_ROOT", "./tmp/uploads"),
		APIPort:          getEnv("API_PORT", "9000"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// The vector size has no default: it must match both the encoder output
	// and the vector index, and a silent mismatch corrupts every search.
	sizeStr := os.Getenv("EMBED_VECTOR_SIZE")
	if sizeStr == "" {
		return nil, fmt.Errorf("EMBED_VECTOR_SIZE is required")
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return nil, fmt.Errorf("EMBED_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if size <= 0 {
		return nil, fmt.Errorf("EMBED_VECTOR_SIZE must be greater than 0")
	}
	cfg.VectorSize = size

	if cfg.FusionPolicy != "threshold" && cfg.FusionPolicy != "softmax" {
		return nil, fmt.Errorf("FUSION_POLICY must be %q or %q, got %q", "threshold", "softmax", cfg.FusionPolicy)
	}

	if cfg.DefaultLimit, err = getEnvInt("SEARCH_DEFAULT_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.CandidateWidth, err = getEnvInt("SEARCH_CANDIDATE_WIDTH", 50); err != nil {
		return nil, err
	}
	if cfg.CandidateWidth < cfg.DefaultLimit {
		return nil, fmt.Errorf("SEARCH_CANDIDATE_WIDTH (%d) must be at least SEARCH_DEFAULT_LIMIT (%d)", cfg.CandidateWidth, cfg.DefaultLimit)
	}

	if cfg.SyncEmbedTimeout, err = getEnvDuration("SYNC_EMBED_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.PurgeAge, err = getEnvDuration("TEMP_FILE_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.PurgeInterval, err = getEnvDuration("TEMP_FILE_PURGE_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.WorkerCount, err = getEnvInt("WORKER_COUNT", 4); err != nil {
		return nil, err
	}
	if cfg.WorkerCount <= 0 {
		return nil, fmt.Errorf("WORKER_COUNT must be greater than 0")
	}

	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	if err := os.MkdirAll(cfg.UploadRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root: %w", err)
	}

	return cfg, nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
