package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort string

	// Database; empty disables persistence
	DatabaseURL string

	// YouTube Data API
	YouTubeAPIKey string

	// Pipeline
	StageTimeout time.Duration
	MaxRetries   int

	// Batch processing
	MaxConcurrent int
	MinScore      float64

	// Export
	S3Bucket  string
	S3Region  string
	S3Prefix  string
	ExportDir string

	// Media processing
	OutputDir string
	YtdlpPath string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		YouTubeAPIKey: getEnv("YOUTUBE_API_KEY", ""),
		StageTimeout:  getDuration("STAGE_TIMEOUT", 300*time.Second),
		MaxRetries:    getInt("STAGE_MAX_RETRIES", 1),
		MaxConcurrent: getInt("BATCH_MAX_CONCURRENT", 3),
		MinScore:      getFloat("MIN_SCORE_FOR_DOWNLOAD", 6.0),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3Prefix:      getEnv("S3_PREFIX", "reports"),
		ExportDir:     getEnv("EXPORT_DIR", "exports"),
		OutputDir:     getEnv("OUTPUT_DIR", "processed"),
		YtdlpPath:     getEnv("YTDLP_PATH", "yt-dlp"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
