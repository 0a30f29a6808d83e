package utils

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger = zap.NewNop()
	sugar  = logger.Sugar()
)

// InitLogger настраивает глобальный логгер. format: "json" или "console"
func InitLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("неверный уровень логирования %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(format) {
	case "console", "text":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("не удалось создать логгер: %w", err)
	}

	SetLogger(l)
	return l, nil
}

// SetLogger заменяет глобальный логгер
func SetLogger(l *zap.Logger) {
	logger = l
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Logger возвращает структурированный логгер
func Logger() *zap.Logger {
	return logger
}

// Sync сбрасывает буферы логгера
func Sync() {
	_ = logger.Sync()
}

// LogInfo логирует информационное сообщение
func LogInfo(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

// LogWarn логирует предупреждение
func LogWarn(format string, v ...interface{}) {
	sugar.Warnf(format, v...)
}

// LogError логирует сообщение об ошибке
func LogError(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

// LogDebug логирует отладочное сообщение
func LogDebug(format string, v ...interface{}) {
	sugar.Debugf(format, v...)
}

// LogOperation логирует операцию с длительностью
func LogOperation(operation string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	if err != nil {
		logger.Error("operation failed",
			zap.String("op", operation),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	logger.Debug("operation completed",
		zap.String("op", operation),
		zap.Duration("duration", duration),
	)
}
