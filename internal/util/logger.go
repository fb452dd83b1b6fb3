package util

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "restaurant-ops"

var logger *zap.Logger

// InitLogger initializes the global logger. An empty level keeps the
// environment default: info in production, debug elsewhere.
func InitLogger(env, level string) error {
	config, err := newLoggerConfig(env, level)
	if err != nil {
		return err
	}

	logger, err = config.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)
	return nil
}

func newLoggerConfig(env, level string) (zap.Config, error) {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.InitialFields = map[string]interface{}{"service": serviceName}
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return zap.Config{}, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	return config, nil
}

// SetLogger replaces the global logger, e.g. with zap.NewNop() in tests.
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}
