// Package logger builds the structured zap logger shared by the
// validator and miner binaries, replacing a hand-rolled writer with the
// same library used for admission-decision logging in pkg/validator.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
	// JSON selects JSON encoding; false uses zap's human-readable console
	// encoding, suited to local development.
	JSON bool
}

// DefaultConfig returns the config used when a binary is run without
// logging flags: info level, console encoding.
func DefaultConfig() Config {
	return Config{Level: "info", JSON: false}
}

// New builds a *zap.SugaredLogger from cfg. An invalid Level falls back
// to info.
func New(cfg Config) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	if !cfg.JSON {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: build zap logger: %w", err)
	}
	return l.Sugar(), nil
}

// Nop returns a logger that discards everything, used as a safe default
// in tests and library callers that don't care about log output.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
