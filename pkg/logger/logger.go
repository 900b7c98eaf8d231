// Package logger provides a small structured logging interface backed by zap.
package logger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the logging interface.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Fatal(ctx context.Context, msg string, fields ...Field)

	Named(name string) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// Field constructors.
func String(key, val string) Field                 { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field            { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field        { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field              { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }
func Any(key string, val any) Field                { return Field{Key: key, Value: val} }
func Error(err error) Field                        { return Field{Key: "error", Value: err} }

type ctxFieldsKey struct{}

// WithFields returns a context carrying fields that every log call made with
// it will include.
func WithFields(ctx context.Context, fields ...Field) context.Context {
	existing, _ := ctx.Value(ctxFieldsKey{}).([]Field)
	merged := make([]Field, 0, len(existing)+len(fields))
	merged = append(merged, existing...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, ctxFieldsKey{}, merged)
}

func fieldsFrom(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(ctxFieldsKey{}).([]Field)
	return f
}

// zapLogger implements Logger on top of *zap.Logger.
type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name)}
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.z.Info(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.z.Error(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.z.Debug(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.z.Warn(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.z.Fatal(msg, convertFields(ctx, fields)...)
}

func convertFields(ctx context.Context, fields []Field) []zap.Field {
	scoped := fieldsFrom(ctx)
	out := make([]zap.Field, 0, len(scoped)+len(fields))
	for _, f := range scoped {
		out = append(out, toZap(f))
	}
	for _, f := range fields {
		out = append(out, toZap(f))
	}
	return out
}

func toZap(f Field) zap.Field {
	if err, ok := f.Value.(error); ok {
		return zap.NamedError(f.Key, err)
	}
	return zap.Any(f.Key, f.Value)
}

var (
	mu     sync.RWMutex
	global Logger
	base   *zap.Logger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init initializes the global logger with a JSON production encoder.
func Init() error {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build zap logger: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	base = z
	global = &zapLogger{z: z}
	return nil
}

// New wraps an existing zap logger.
func New(z *zap.Logger) Logger {
	return &zapLogger{z: z}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &zapLogger{z: zap.NewNop()}
}

// Get returns the global logger. Before Init it returns a no-op logger.
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return NewNop()
	}
	return global
}

// Named creates a named logger.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	z := base
	mu.RUnlock()
	if z == nil {
		return nil
	}
	return z.Sync()
}

// SetLevelString parses and sets the logging level.
// Accepts: debug, info, warn/warning, error (case-insensitive).
func SetLevelString(lvl string) error {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "", "info":
		level.SetLevel(zapcore.InfoLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %s", lvl)
	}
	return nil
}

// Level returns the current global level as a string.
func Level() string {
	return level.Level().String()
}
