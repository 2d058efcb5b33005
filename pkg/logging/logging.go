// Package logging builds the service logger: an ectologger facade over zap
package logging

import (
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human-readable console output for local development
}

// New creates the service logger. Structured fields attached through the
// ectologger API come out as zap fields.
func New(cfg Config) (ectologger.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Pretty {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zl, err := zapCfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		fields := make([]zap.Field, 0, len(msg.Fields)+1)
		for k, v := range msg.Fields {
			fields = append(fields, zap.Any(k, v))
		}
		if msg.Err != nil {
			fields = append(fields, zap.Error(msg.Err))
		}

		switch strings.ToLower(fmt.Sprint(msg.Level)) {
		case "debug":
			zl.Debug(msg.Message, fields...)
		case "warn", "warning":
			zl.Warn(msg.Message, fields...)
		case "error":
			zl.Error(msg.Message, fields...)
		case "fatal":
			zl.Fatal(msg.Message, fields...)
		default:
			zl.Info(msg.Message, fields...)
		}
	}), nil
}
