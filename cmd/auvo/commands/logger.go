package commands

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts a zap logger to auvo.Logger.
type zapLogger struct {
	logger *zap.Logger
}

// newLogger builds a development logger when verbose and a production logger
// otherwise. Logs go to stderr so they never mix with command output.
func newLogger(verbose bool) (*zapLogger, error) {
	var cfg zap.Config

	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &zapLogger{logger: logger}, nil
}

func (l *zapLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, zapFields(fields)...)
}

func (l *zapLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, zapFields(fields)...)
}

func (l *zapLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, zapFields(fields)...)
}

func (l *zapLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, zapFields(fields)...)
}

// Sync flushes any buffered logs.
func (l *zapLogger) Sync() {
	_ = l.logger.Sync()
}

func zapFields(fields map[string]interface{}) []zap.Field {
	keys := sortedKeys(fields)

	zapped := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		zapped = append(zapped, zap.Any(key, fields[key]))
	}

	return zapped
}
