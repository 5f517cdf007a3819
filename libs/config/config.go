// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Logging    LoggingConfig
	CORS       CORSConfig
	JWT        JWTConfig
	Classifier ClassifierConfig
	Upload     UploadConfig
	S3         S3Config
	Admin      AdminConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings.
// Redis is optional, an empty Host disables verdict counters.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port               int
	RateLimitPerMinute int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// ClassifierConfig holds settings of the external classification service
type ClassifierConfig struct {
	URL     string
	Timeout time.Duration
}

// UploadConfig holds settings for uploaded files
type UploadConfig struct {
	Dir     string
	MaxSize int64
}

// S3Config holds S3-compatible object storage settings.
// An empty Bucket keeps uploads on the local filesystem.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// AdminConfig holds credentials of the bootstrap admin account
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	if err := loadDatabase(cfg); err != nil {
		return nil, err
	}

	// Server configuration
	serverPort, err := intFromEnv("SERVER_PORT", 5000)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	rateLimit, err := intFromEnv("RATE_LIMIT_PER_MINUTE", 100)
	if err != nil {
		return nil, err
	}
	cfg.Server.RateLimitPerMinute = rateLimit

	// Logging configuration
	cfg.Logging.Level = stringFromEnv("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	// Token expiry (default: 30 days)
	jwtExpiry, err := durationFromEnv("JWT_EXPIRY", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWT.Expiry = jwtExpiry

	// Classifier configuration
	cfg.Classifier.URL = stringFromEnv("CLASSIFIER_URL", "http://127.0.0.1:3002/analyze")
	classifierTimeout, err := durationFromEnv("CLASSIFIER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Classifier.Timeout = classifierTimeout

	// Upload configuration
	cfg.Upload.Dir = stringFromEnv("UPLOAD_DIR", "uploads")
	maxSize, err := intFromEnv("UPLOAD_MAX_SIZE", 10*1024*1024)
	if err != nil {
		return nil, err
	}
	cfg.Upload.MaxSize = int64(maxSize)

	// S3 configuration (optional)
	cfg.S3.Bucket = os.Getenv("S3_BUCKET")
	cfg.S3.Region = stringFromEnv("S3_REGION", "us-east-1")
	cfg.S3.Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3.AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.S3.SecretKey = os.Getenv("S3_SECRET_KEY")

	// Redis configuration (optional)
	cfg.Redis.Host = os.Getenv("REDIS_HOST")
	redisPort, err := intFromEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}
	cfg.Redis.Port = redisPort
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	redisDB, err := intFromEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.Redis.DB = redisDB

	// Bootstrap admin (only read by cmd/seedadmin)
	cfg.Admin.Username = stringFromEnv("ADMIN_USERNAME", "admin")
	cfg.Admin.Email = os.Getenv("ADMIN_EMAIL")
	cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")

	return cfg, nil
}

// loadDatabase fills database settings, DB_DSN takes precedence over the separate parts
func loadDatabase(cfg *Config) error {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
		return nil
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	return nil
}

func stringFromEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// parseOrigins splits a comma-separated origin list, defaulting to all origins
func parseOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	if c.Database.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns host:port of the Redis server, or empty string when Redis is not configured
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
