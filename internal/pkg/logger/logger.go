package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *slog.Logger

// Options описывает настройки логгера из конфига.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console или json
	File   string // дополнительный файл логов
	// Telegram получает записи уровня ERROR и выше, если задан.
	Telegram *TelegramNotifier
}

// ParseLevel maps a config level to slog, defaulting to INFO.
func ParseLevel(levelStr string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO", "":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR", "CRITICAL":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level <= slog.LevelDebug:
		return zapcore.DebugLevel
	case level <= slog.LevelInfo:
		return zapcore.InfoLevel
	case level <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// Setup строит zap логгер и делает его обработчиком slog по умолчанию.
// Возвращённый *zap.Logger передаётся в инфраструктурные клиенты.
func Setup(opts Options) (*zap.Logger, error) {
	level, ok := ParseLevel(opts.Level)

	var zcfg zap.Config
	if strings.EqualFold(opts.Format, "json") {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	if opts.File != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, opts.File)
	}

	var zopts []zap.Option
	if opts.Telegram != nil {
		alerts := opts.Telegram.Core()
		zopts = append(zopts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, alerts)
		}))
	}
	zl, err := zcfg.Build(zopts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}

	handler := slogzap.Option{Level: level, Logger: zl}.NewZapHandler()
	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	if !ok {
		globalLogger.Warn("Invalid log level string, defaulting to INFO", "input", opts.Level)
	}
	return zl, nil
}

// InitSlog: запасная инициализация без zap (тесты, ранний старт).
func InitSlog(levelStr string) {
	level, _ := ParseLevel(levelStr)
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

func ensureInitialized() {
	if globalLogger == nil {
		InitSlog("INFO")
	}
}

func logAt(level slog.Level, msg string, args ...any) {
	ensureInitialized()
	ctx := context.Background()
	if globalLogger.Enabled(ctx, level) {
		globalLogger.Log(ctx, level, msg, args...)
	}
}

// Debug logs a message at DebugLevel.
func Debug(msg string, args ...any) { logAt(slog.LevelDebug, msg, args...) }

// Info logs a message at InfoLevel.
func Info(msg string, args ...any) { logAt(slog.LevelInfo, msg, args...) }

// Warn logs a message at WarnLevel.
func Warn(msg string, args ...any) { logAt(slog.LevelWarn, msg, args...) }

// Error logs a message at ErrorLevel.
func Error(msg string, args ...any) { logAt(slog.LevelError, msg, args...) }

// Fatal logs at ErrorLevel and exits.
func Fatal(msg string, args ...any) {
	ensureInitialized()
	globalLogger.Error(msg, args...)
	os.Exit(1)
}
