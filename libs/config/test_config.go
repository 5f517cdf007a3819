package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration for integration tests from the .env file or TEST_* environment variables.
// If the test database is not configured, the returned Config has an empty DSN and integration tests skip themselves.
func LoadTestConfig() (*Config, error) {
	// Try loading from project root (ignore error if file doesn't exist - it's optional)
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Database.DSN = os.Getenv("TEST_DB_DSN")

	cfg.JWT.Secret = os.Getenv("TEST_JWT_SECRET")
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "test-secret-key-for-integration-tests"
	}

	expiry, err := durationFromEnv("TEST_JWT_EXPIRY", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWT.Expiry = expiry

	cfg.Upload.Dir = os.Getenv("TEST_UPLOAD_DIR")

	return cfg, nil
}
