package logger

import (
	"fmt"
	"strings"

	"github.com/King12-D/hypegrow-boost/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the application logger from the LOG_LEVEL / LOG_FORMAT settings.
func New(cfg config.Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var zapConfig zap.Config
	switch strings.ToLower(cfg.Format) {
	case "console", "text":
		zapConfig = zap.NewDevelopmentConfig()
	case "json", "":
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapConfig.EncoderConfig.TimeKey = "timestamp"
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	return zapConfig.Build()
}
