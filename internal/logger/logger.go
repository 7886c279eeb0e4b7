package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

type ctxKey struct{}

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to w in "json" or "text" format.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	defaultLogger = New(os.Stdout, level, format)
	slog.SetDefault(defaultLogger)
}

// Get returns the default logger
func Get() *slog.Logger {
	if defaultLogger == nil {
		Initialize("info", "text")
	}
	return defaultLogger
}

// WithContext stores a request scoped logger in ctx.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request scoped logger, or the default one.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return Get()
}

// With adds attributes to the logger carried by ctx.
func With(ctx context.Context, args ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(args...))
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).ErrorContext(ctx, msg, args...)
}

// WithService returns a logger with service name attached
func WithService(serviceName string) *slog.Logger {
	return Get().With("service", serviceName)
}

// EnterMethod logs method entry (process tracking)
func EnterMethod(ctx context.Context, methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "enter"}, args...)
	FromContext(ctx).DebugContext(ctx, "→ Method entered", allArgs...)
}

// ExitMethod logs method exit (process tracking)
func ExitMethod(ctx context.Context, methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit"}, args...)
	FromContext(ctx).DebugContext(ctx, "← Method exited", allArgs...)
}

// ExitMethodWithError logs method exit with error. Rejected requests (bad
// input, conflicts) are logged at warn, everything else at error.
func ExitMethodWithError(ctx context.Context, methodName string, err error, expected bool, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit", "error", err}, args...)
	if expected {
		FromContext(ctx).WarnContext(ctx, "← Method rejected", allArgs...)
		return
	}
	FromContext(ctx).ErrorContext(ctx, "← Method exited with error", allArgs...)
}

// DatabaseCall logs database operation (debug log for external resources)
func DatabaseCall(ctx context.Context, operation, query string, args ...any) {
	allArgs := append([]any{"operation", operation, "query", query}, args...)
	FromContext(ctx).DebugContext(ctx, "→ Database call", allArgs...)
}

// DatabaseResult logs database operation result (debug log for external resources)
func DatabaseResult(ctx context.Context, operation string, rowsAffected int64, err error, args ...any) {
	allArgs := append([]any{"operation", operation, "rows_affected", rowsAffected}, args...)
	if err != nil {
		allArgs = append(allArgs, "error", err)
		FromContext(ctx).ErrorContext(ctx, "← Database call failed", allArgs...)
	} else {
		FromContext(ctx).DebugContext(ctx, "← Database call succeeded", allArgs...)
	}
}

// ExternalServiceCall logs calls to redis and other network services.
func ExternalServiceCall(ctx context.Context, service, operation string, args ...any) {
	allArgs := append([]any{"service", service, "operation", operation}, args...)
	FromContext(ctx).DebugContext(ctx, "→ External service call", allArgs...)
}

func ExternalServiceResult(ctx context.Context, service, operation string, err error, args ...any) {
	allArgs := append([]any{"service", service, "operation", operation}, args...)
	if err != nil {
		allArgs = append(allArgs, "error", err)
		FromContext(ctx).ErrorContext(ctx, "← External service call failed", allArgs...)
	} else {
		FromContext(ctx).DebugContext(ctx, "← External service call succeeded", allArgs...)
	}
}
