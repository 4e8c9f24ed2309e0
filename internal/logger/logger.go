// Package logger builds the process-wide zap logger from configuration.
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu            sync.Mutex
	defaultLogger *zap.Logger
)

// Setup builds the default logger. format "json" gives production encoding,
// anything else a console encoder. Unknown levels fall back to info.
func Setup(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.ToLower(format) == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	return l, nil
}

// L returns the default logger, or a no-op logger before Setup.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		return zap.NewNop()
	}
	return defaultLogger
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}
