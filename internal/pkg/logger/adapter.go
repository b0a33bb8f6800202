package logger

import (
	"context"
	"log/slog"

	"airdrop_farmer/internal/app/port"
)

// slogAdapter реализует port.Logger поверх глобального slog и добавляет
// постоянные атрибуты (например, номер профиля).
type slogAdapter struct {
	attrs []any
}

// NewSlogAdapter returns a port.Logger writing through the package logger.
func NewSlogAdapter(attrs ...any) port.Logger {
	return &slogAdapter{attrs: attrs}
}

func (a *slogAdapter) log(level slog.Level, msg string, args []any) {
	if len(a.attrs) > 0 {
		args = append(append(make([]any, 0, len(a.attrs)+len(args)), a.attrs...), args...)
	}
	ensureInitialized()
	globalLogger.Log(context.Background(), level, msg, args...)
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.log(slog.LevelInfo, msg, args) }
func (a *slogAdapter) Debug(msg string, args ...any) { a.log(slog.LevelDebug, msg, args) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.log(slog.LevelWarn, msg, args) }
func (a *slogAdapter) Error(msg string, args ...any) { a.log(slog.LevelError, msg, args) }
