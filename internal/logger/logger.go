package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger
type Options struct {
	Development bool
	Level       string
	Path        string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
}

type contextKey string

const loggerKey contextKey = "logger"

var (
	global      atomic.Pointer[zap.Logger]
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
)

// Init builds the process logger and installs it as the zap global
func Init(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	atomicLevel.SetLevel(level)

	var l *zap.Logger
	if opts.Development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeCaller = shortCaller
		cfg.Level = atomicLevel
		l, err = cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		l, err = newProduction(opts)
	}
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	Set(l)
	return nil
}

// newProduction writes JSON to a rotated file and console lines to stdout
func newProduction(opts Options) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	encoderConfig.EncodeCaller = shortCaller

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		atomicLevel,
	)
	if opts.Path == "" {
		return zap.New(consoleCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    orDefault(opts.MaxSizeMB, 100),
		MaxBackups: orDefault(opts.MaxBackups, 5),
		MaxAge:     orDefault(opts.MaxAgeDays, 30),
		Compress:   true,
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), w, atomicLevel)

	return zap.New(zapcore.NewTee(fileCore, consoleCore),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// ParseLevel maps a level name to a zap level; empty means info
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// SetLevel changes the level of the running logger
func SetLevel(level zapcore.Level) {
	atomicLevel.SetLevel(level)
}

// Set replaces the process logger
func Set(l *zap.Logger) {
	global.Store(l)
	zap.ReplaceGlobals(l)
}

// L returns the process logger, a no-op logger before Init
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// Sync flushes buffered entries
func Sync() error {
	if l := global.Load(); l != nil {
		return l.Sync()
	}
	return nil
}

// WithLogger stores a request-scoped logger in ctx
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the request-scoped logger or the process logger
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return L()
}

func shortCaller(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	path := caller.TrimmedPath()
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	enc.AppendString(path)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
