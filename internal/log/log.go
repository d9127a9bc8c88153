// Package log provides categorised structured logging for vmkit.
// It keeps the level/category/key-value call shape used across the codebase
// and delegates encoding and output to zap. Logging is a no-op until Init
// is called with Enabled set.
package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category groups related log messages.
type Category string

const (
	CatContainer  Category = "container"  // Registration and resolution
	CatLifecycle  Category = "lifecycle"  // Activation and deactivation transitions
	CatObservable Category = "observable" // Reactive property materialization
	CatDialog     Category = "dialog"     // Modal result channels and dialog host
	CatNotes      Category = "notes"      // Note repository
	CatApp        Category = "app"        // Navigation shell
	CatConfig     Category = "config"     // Configuration loading/saving
)

// Config controls logger construction.
type Config struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Level       string `mapstructure:"level" yaml:"level"`
	Path        string `mapstructure:"path" yaml:"path"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init builds the global logger from cfg.
// Returns a cleanup function that flushes buffered entries.
func Init(cfg Config) (func(), error) {
	if !cfg.Enabled {
		SetLogger(zap.NewNop())
		return func() {}, nil
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Path != "" {
		zc.OutputPaths = []string{cfg.Path}
		zc.ErrorOutputPaths = []string{cfg.Path}
	}

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	SetLogger(l)

	return func() { _ = l.Sync() }, nil
}

// SetLogger replaces the global logger. A nil logger disables logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// Logger returns the current global logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	emit(zapcore.DebugLevel, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	emit(zapcore.InfoLevel, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	emit(zapcore.WarnLevel, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	emit(zapcore.ErrorLevel, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	emit(zapcore.ErrorLevel, cat, msg, fields...)
}

func emit(level zapcore.Level, cat Category, msg string, fields ...any) {
	ce := Logger().Check(level, msg)
	if ce == nil {
		return
	}
	ce.Write(toFields(cat, fields)...)
}

// toFields converts alternating key/value pairs into zap fields.
// An orphan trailing key is recorded with a <missing> value.
func toFields(cat Category, kv []any) []zap.Field {
	out := make([]zap.Field, 0, len(kv)/2+2)
	out = append(out, zap.String("category", string(cat)))
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, zap.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	if len(kv)%2 != 0 {
		out = append(out, zap.String(fmt.Sprint(kv[len(kv)-1]), "<missing>"))
	}
	return out
}
