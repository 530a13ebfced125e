package logger

import (
	"fmt"

	"dscatalog/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a stdout logger for env: JSON in production, colored console
// otherwise
func New(env string) (*zap.Logger, error) {
	return NewFromConfig(env, config.LogConfig{})
}

// NewFromConfig builds the process logger. When cfg.File is set every entry
// is also written as JSON to a lumberjack-rotated file.
func NewFromConfig(env string, cfg config.LogConfig) (*zap.Logger, error) {
	level, err := parseLevel(env, cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewDevelopmentConfig()
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		zc = zap.NewProductionConfig()
		zc.Encoding = "json"
	}
	zc.Level = level
	// containers collect stdout
	zc.OutputPaths = []string{"stdout"}
	zc.ErrorOutputPaths = []string{"stderr"}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.File != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotatingFile(cfg)),
			level,
		)
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	return zc.Build(opts...)
}

func rotatingFile(cfg config.LogConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// parseLevel falls back to info in production and debug elsewhere
func parseLevel(env, raw string) (zap.AtomicLevel, error) {
	if raw == "" {
		if env == "production" {
			return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
		}
		return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
	}

	level, err := zap.ParseAtomicLevel(raw)
	if err != nil {
		return level, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}
