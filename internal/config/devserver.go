package config

import (
	"errors"
	"time"
)

// DevServer configures cmd/devserver.
type DevServer struct {
	Env        string        `yaml:"env" env:"MMD_ENV" env-default:"local"`
	Addr       string        `yaml:"addr" env:"MMD_ADDR" env-default:"127.0.0.1:8080"`
	JWTKey     string        `yaml:"jwt_key" env:"MMD_JWT_KEY"`
	AccessTTL  time.Duration `yaml:"access_ttl" env:"MMD_ACCESS_TTL" env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"MMD_REFRESH_TTL" env-default:"720h"`
	DSN        string        `yaml:"dsn" env:"MMD_DSN"`
	LogLevel   string        `yaml:"log_level" env:"MMD_LOG_LEVEL" env-default:"info"`
	Limiter    LimiterConfig `yaml:"limiter"`
}

// LimiterConfig tunes the login attempt limiter.
type LimiterConfig struct {
	Window   time.Duration `yaml:"window" env:"MMD_LIMIT_WINDOW" env-default:"15m"`
	MaxFails int           `yaml:"max_fails" env:"MMD_LIMIT_MAX_FAILS" env-default:"5"`
	BlockFor time.Duration `yaml:"block_for" env:"MMD_LIMIT_BLOCK_FOR" env-default:"15m"`
}

// LoadDevServer reads the devserver configuration (path env: MMD_CONFIG_PATH).
func LoadDevServer(path string) (*DevServer, error) {
	var cfg DevServer
	if err := load(path, "MMD_CONFIG_PATH", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTKey == "" {
		return nil, errors.New("config: jwt_key is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("config: token TTLs must be positive")
	}
	return &cfg, nil
}
