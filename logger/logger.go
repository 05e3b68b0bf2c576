package logger

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base  atomic.Pointer[zap.Logger]
)

func init() {
	l, err := build("console")
	if err != nil {
		l = zap.NewNop()
	}
	base.Store(l)
}

// Init replaces the process logger. format is "json" or "console".
func Init(lvl string, format string) error {
	SetLevel(lvl)
	l, err := build(format)
	if err != nil {
		return err
	}
	base.Store(l)
	return nil
}

func build(format string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if strings.EqualFold(format, "console") {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func SetLevel(lvl string) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

func IsDebugEnabled() bool {
	return level.Enabled(zapcore.DebugLevel)
}

func L() *zap.Logger {
	return base.Load()
}

// Replace swaps the process logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) func() {
	prev := base.Swap(l)
	return func() { base.Store(prev) }
}

func Debugf(format string, v ...any) {
	if !IsDebugEnabled() {
		return
	}
	L().Sugar().Debugf(format, v...)
}

func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

func Sync() {
	_ = L().Sync()
}
