// Package logger builds the zap logger for a given environment.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environments.
const (
	EnvLocal = "local"
	EnvProd  = "prod"
)

// New returns a development logger for "local" and a JSON production logger otherwise.
// An unparsable level falls back to info.
func New(env, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	var cfg zap.Config
	if env == EnvLocal {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
