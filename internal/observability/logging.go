// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogOptions configures the global logger.
type LogOptions struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	// Output overrides stdout as the console sink. Nil means stdout.
	Output io.Writer
}

// SetupLogging replaces GlobalLogger according to opts. When File is set,
// records are also written to a size-rotated file. The returned closer
// releases the file sink.
func SetupLogging(opts LogOptions) io.Closer {
	var out io.Writer = os.Stdout
	if opts.Output != nil {
		out = opts.Output
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    nz(opts.MaxSizeMB, 10),
			MaxBackups: nz(opts.MaxBackups, 3),
			Compress:   true,
		}
		out = io.MultiWriter(out, lj)
		closer = lj
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
	return closer
}

// ParseLevel maps a textual level to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func nz(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// CorrelationID is the context key for the per-command correlation id.
const CorrelationID LogContextKey = "correlation_id"

// LoggingConfig defines which types of automated logging are enabled.
type LoggingConfig struct {
	EnableStoreLogging bool
	EnableSimLogging   bool
}

var (
	// Config holds the current logging configuration.
	Config = LoggingConfig{
		EnableStoreLogging: true,
		EnableSimLogging:   true,
	}
)

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// StoreLogger provides structured logging for entity store transitions.
type StoreLogger struct {
	collection string
}

// NewStoreLogger creates a new StoreLogger for the given collection.
func NewStoreLogger(collection string) *StoreLogger {
	return &StoreLogger{collection: collection}
}

// LogMutation logs a committed store mutation.
func (l *StoreLogger) LogMutation(ctx context.Context, operation string, fields map[string]interface{}) {
	if !Config.EnableStoreLogging {
		return
	}
	attrs := []any{
		slog.String("collection", l.collection),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.InfoContext(ctx, "store mutation", attrs...)
}

// LogError logs a failed store operation.
func (l *StoreLogger) LogError(ctx context.Context, err error, operation string) {
	if !Config.EnableStoreLogging {
		return
	}
	GlobalLogger.ErrorContext(ctx, "store error",
		slog.String("collection", l.collection),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

// SimLogger provides structured logging for the layout simulator lifecycle.
type SimLogger struct {
	name string
}

// NewSimLogger creates a new SimLogger.
func NewSimLogger(name string) *SimLogger {
	return &SimLogger{name: name}
}

// LogLifecycle logs a simulator lifecycle event such as start, stop or restart.
func (l *SimLogger) LogLifecycle(ctx context.Context, event string, fields map[string]interface{}) {
	if !Config.EnableSimLogging {
		return
	}
	attrs := []any{
		slog.String("simulation", l.name),
		slog.String("event", event),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.InfoContext(ctx, "simulation lifecycle", attrs...)
}
