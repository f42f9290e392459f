// Package config loads client and devserver configuration.
//
// Sources, highest priority first:
//  1. explicit -config path;
//  2. MM_CONFIG_PATH;
//  3. ./mm.yaml;
//  4. environment only.
//
// Configuration is read once at process start.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// LocalFile is the config file picked up from the working directory.
const LocalFile = "mm.yaml"

// Config is the client configuration.
type Config struct {
	Env      string         `yaml:"env" env:"MM_ENV" env-default:"local"`
	DevMode  bool           `yaml:"dev_mode" env:"MM_DEV_MODE" env-default:"false"`
	Services ServicesConfig `yaml:"services"`
	HTTP     HTTPConfig     `yaml:"http"`
	Cache    CacheConfig    `yaml:"cache"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ServicesConfig holds the base URLs of the backend services.
type ServicesConfig struct {
	AuthURL           string `yaml:"auth_url" env:"MM_AUTH_URL" env-default:"http://localhost:8080/auth"`
	MoviesURL         string `yaml:"movies_url" env:"MM_MOVIES_URL" env-default:"http://localhost:8080/movies"`
	ActivityURL       string `yaml:"activity_url" env:"MM_ACTIVITY_URL" env-default:"http://localhost:8080/activity"`
	RecommendationURL string `yaml:"recommendation_url" env:"MM_RECOMMENDATION_URL" env-default:"http://localhost:8080/recommendation"`
}

// HTTPConfig tunes the outgoing HTTP client.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout" env:"MM_HTTP_TIMEOUT" env-default:"15s"`
	UserAgent string        `yaml:"user_agent" env:"MM_USER_AGENT" env-default:"movie-mate-cli"`
}

// CacheConfig tunes the query cache.
type CacheConfig struct {
	StaleAfter time.Duration `yaml:"stale_after" env:"MM_CACHE_STALE_AFTER" env-default:"30s"`
	Size       int           `yaml:"size" env:"MM_CACHE_SIZE" env-default:"512"`
}

// StorageConfig locates the credential store; empty means the XDG default.
type StorageConfig struct {
	Dir string `yaml:"dir" env:"MM_STORAGE_DIR"`
}

// LogConfig sets the zap level.
type LogConfig struct {
	Level string `yaml:"level" env:"MM_LOG_LEVEL" env-default:"warn"`
}

// MustLoad panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the client configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := load(path, "MM_CONFIG_PATH", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("config: http timeout must be positive, got %s", c.HTTP.Timeout)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("config: cache size must be positive, got %d", c.Cache.Size)
	}
	if c.DevMode {
		return nil
	}
	for name, v := range map[string]string{
		"auth_url":           c.Services.AuthURL,
		"movies_url":         c.Services.MoviesURL,
		"activity_url":       c.Services.ActivityURL,
		"recommendation_url": c.Services.RecommendationURL,
	} {
		if v == "" {
			return fmt.Errorf("config: services.%s is required in live mode", name)
		}
	}
	return nil
}

// load applies the source priority to any cleanenv-tagged struct.
func load(path, pathEnv string, cfg any) error {
	tryRead := func(p string) error {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, cfg); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}

	// 1) -config
	if path != "" {
		return tryRead(path)
	}

	// 2) env path
	if envPath := os.Getenv(pathEnv); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./mm.yaml
	if _, err := os.Stat(LocalFile); err == nil {
		return tryRead(LocalFile)
	}

	// 4) env only
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("config not found: provide -config, %s, %s or env vars: %w", pathEnv, LocalFile, err)
	}
	return nil
}
