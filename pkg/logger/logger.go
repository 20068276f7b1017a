package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap logger; "debug" switches to the development
// encoder at debug level.
func New(level string) (*zap.Logger, error) {
	switch strings.ToLower(level) {
	case "debug":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	case "warn", "error":
		cfg := zap.NewProductionConfig()
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		return cfg.Build()
	default:
		return zap.NewProduction()
	}
}
