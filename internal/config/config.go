package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string

	// Document store: sqlite (default), postgres or mysql
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	// Object storage: local (default) or s3
	StorageBackend   string
	StorageLocalPath string
	StorageBaseURL   string
	S3Bucket         string
	S3KeyPrefix      string

	// Email notifications via SES; disabled when EmailFromAddress is empty
	AWSRegion        string
	EmailFromAddress string
	EmailFromName    string
	AppBaseURL       string

	UploadMaxSize int64
	RateLimit     int
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	return &Config{
		ServerPort:       getEnv("PORT", "8080"),
		DatabaseType:     getEnv("DB_TYPE", "sqlite"),
		DatabasePath:     getEnv("DB_PATH", "./chorepoints.db"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		StorageBackend:   getEnv("STORAGE_BACKEND", "local"),
		StorageLocalPath: getEnv("STORAGE_PATH", "./uploads"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", "/uploads"),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3KeyPrefix:      getEnv("S3_KEY_PREFIX", "chorepoints"),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		EmailFromAddress: getEnv("SES_FROM_EMAIL", ""),
		EmailFromName:    getEnv("SES_FROM_NAME", "ChorePoints"),
		AppBaseURL:       getEnv("APP_BASE_URL", "http://localhost:8080"),
		UploadMaxSize:    getEnvInt64("UPLOAD_MAX_SIZE", 5*1024*1024), // 5MB
		RateLimit:        int(getEnvInt64("RATE_LIMIT", 60)),          // requests per minute
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
