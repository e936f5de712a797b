// Package logging builds the process logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var levels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

// LookupLevel maps a level name to a zap level. Names are case-insensitive.
func LookupLevel(s string) (zapcore.Level, bool) {
	lvl, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	return lvl, ok
}

// ParseLevel is LookupLevel with unknown names mapped to info.
func ParseLevel(s string) zapcore.Level {
	if lvl, ok := LookupLevel(s); ok {
		return lvl
	}
	return zapcore.InfoLevel
}

// New returns a sugared development logger writing to stderr.
func New(level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()

	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}
