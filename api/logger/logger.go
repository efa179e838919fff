package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger

// Init builds the process logger. Production emits JSON with ISO8601
// timestamps; anything else gets the console encoder.
func Init(serviceName, level string, production bool) (*zap.Logger, error) {
	var config zap.Config
	if production {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if lvl, err := zapcore.ParseLevel(strings.TrimSpace(level)); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	Log = logger.With(zap.String("service", serviceName))
	return Log, nil
}

// L returns the process logger, or a no-op logger before Init.
func L() *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log
}

func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
