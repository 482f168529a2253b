// ABOUTME: Configuration loader for the studio backend
// ABOUTME: Loads settings from environment variables and an optional .env file

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// minSecretLength is the shortest TOKEN_SECRET accepted for HS256 signing.
const minSecretLength = 32

type Config struct {
	// Server
	Port               string
	PublicURL          string   // base for blob URLs handed to clients
	CORSAllowedOrigins []string // allowed CORS origins (empty = block all cross-origin)

	// Sessions
	TokenSecret  string
	TokenTTL     time.Duration
	ChallengeTTL time.Duration

	// Roles
	AdminPrincipals     []string
	BootstrapFirstAdmin bool // first principal to log in becomes admin when no admin exists

	// Blobs
	MaxBlobBytes int64

	// Rate Limiting
	RateLimitEnabled bool // Enable rate limiting (default: true)
	RateLimitAuth    int  // Requests per minute for challenge/login (default: 10)
	RateLimitWrite   int  // Requests per minute for writes and uploads (default: 60)
	RateLimitDefault int  // Requests per minute for all other endpoints (default: 300)
}

// Load reads the configuration. Values from a .env file in the working
// directory are used for keys the environment does not set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	port := getEnv("PORT", "8080")
	cfg := &Config{
		Port:               port,
		PublicURL:          strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+port), "/"),
		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS"),

		TokenSecret:  os.Getenv("TOKEN_SECRET"),
		TokenTTL:     time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 24*60)) * time.Minute,
		ChallengeTTL: time.Duration(getEnvInt("CHALLENGE_TTL_SECONDS", 120)) * time.Second,

		AdminPrincipals:     getEnvStringList("ADMIN_PRINCIPALS"),
		BootstrapFirstAdmin: getEnvBool("BOOTSTRAP_FIRST_ADMIN", false),

		MaxBlobBytes: int64(getEnvInt("MAX_BLOB_BYTES", 5<<20)),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitAuth:    getEnvInt("RATE_LIMIT_AUTH", 10),
		RateLimitWrite:   getEnvInt("RATE_LIMIT_WRITE", 60),
		RateLimitDefault: getEnvInt("RATE_LIMIT_DEFAULT", 300),
	}

	// Validate required fields
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}
	if len(cfg.TokenSecret) < minSecretLength {
		return nil, fmt.Errorf("TOKEN_SECRET must be at least %d characters", minSecretLength)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL_MINUTES must be positive")
	}
	if cfg.ChallengeTTL <= 0 {
		return nil, fmt.Errorf("CHALLENGE_TTL_SECONDS must be positive")
	}
	if cfg.MaxBlobBytes <= 0 {
		return nil, fmt.Errorf("MAX_BLOB_BYTES must be positive")
	}

	// Validate rate limit values
	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_AUTH", cfg.RateLimitAuth},
		{"RATE_LIMIT_WRITE", cfg.RateLimitWrite},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
