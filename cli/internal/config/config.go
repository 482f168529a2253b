// ABOUTME: CLI configuration loaded from the environment and an optional .env file
// ABOUTME: Flags override these values in the cobra root command

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/caffeinepub/crocheting-app/cli/internal/identity"
	"github.com/caffeinepub/crocheting-app/cli/internal/upload"
)

// Config holds every CLI setting.
type Config struct {
	APIURL    string `env:"CROCHET_API_URL, default=http://localhost:8080"`
	ConfigDir string `env:"CROCHET_CONFIG_DIR"`
	DebugLog  string `env:"CROCHET_DEBUG_LOG"`

	Upload UploadConfig
	Login  LoginConfig
	Blobs  BlobConfig
}

// UploadConfig bounds the image pipeline.
type UploadConfig struct {
	Limit       int `env:"CROCHET_UPLOAD_LIMIT,       default=5"`
	Concurrency int `env:"CROCHET_UPLOAD_CONCURRENCY, default=3"`
}

// LoginConfig tunes login recovery.
type LoginConfig struct {
	RetryDelay time.Duration `env:"CROCHET_LOGIN_RETRY_DELAY, default=300ms"`
}

// BlobConfig sizes the fetched-image cache.
type BlobConfig struct {
	CacheSize int           `env:"CROCHET_BLOB_CACHE_SIZE, default=64"`
	CacheTTL  time.Duration `env:"CROCHET_BLOB_CACHE_TTL,  default=10m"`
}

// Load reads .env (if present) and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return process(ctx, envconfig.OsLookuper())
}

func process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = identity.DefaultConfigDir()
	}
	if cfg.Upload.Limit < 1 || cfg.Upload.Limit > upload.MaxLimit {
		return nil, fmt.Errorf("CROCHET_UPLOAD_LIMIT must be between 1 and %d, got %d", upload.MaxLimit, cfg.Upload.Limit)
	}
	if cfg.Upload.Concurrency < 1 {
		return nil, fmt.Errorf("CROCHET_UPLOAD_CONCURRENCY must be at least 1, got %d", cfg.Upload.Concurrency)
	}
	return &cfg, nil
}
