package logger

import (
	"context"
	"sync"
	"sync/atomic"
)

//nolint:gochecknoglobals // global logger singleton
var (
	global   atomic.Value // stores Logger
	setOnce  sync.Once
	initOnce sync.Once
)

// SetGlobal sets the global logger instance. It must be called once during
// startup, before the logging functions of this package are used.
func SetGlobal(cfg Config) {
	called := false
	setOnce.Do(func() {
		// prevent lazy initialization from happening after this
		initOnce.Do(func() {})

		l, err := New(cfg)
		if err != nil {
			panic("[logger]: failed to initialize global logger: " + err.Error())
		}
		global.Store(l)
		called = true
	})
	if !called {
		panic("[logger]: SetGlobal can only be called once")
	}
}

// Debug logs a message at debug level using the global logger.
func Debug(msg any) { getGlobal().Debug(msg) }

// Info logs a message at info level using the global logger.
func Info(msg any) { getGlobal().Info(msg) }

// Warn logs a message at warn level using the global logger.
func Warn(msg any) { getGlobal().Warn(msg) }

// Error logs a message at error level using the global logger.
func Error(msg any) { getGlobal().Error(msg) }

// Infof logs a formatted message at info level using the global logger.
func Infof(format string, args ...any) { getGlobal().Infof(format, args...) }

// Errorx logs an errx error at error level using the global logger.
func Errorx(err error) { getGlobal().Errorx(err) }

// Fatalx logs an errx error at fatal level using the global logger and exits.
func Fatalx(err error) { getGlobal().Fatalx(err) }

// With creates a child of the global logger with the given key-value pairs.
func With(keysAndValues ...any) Logger { return getGlobal().With(keysAndValues...) }

// WithContext creates a child of the global logger enriched with request metadata.
func WithContext(ctx context.Context) Logger { return getGlobal().WithContext(ctx) }

// Named adds a sub-scope to the global logger's name.
func Named(name string) Logger { return getGlobal().Named(name) }

// Sync flushes any buffered log entries from the global logger.
func Sync() error { return getGlobal().Sync() }

// Global returns the current global logger.
func Global() Logger { return getGlobal() }

func initDefault() {
	initOnce.Do(func() {
		l, err := New(Config{Level: levelDebug, Encoding: EncodingConsole})
		if err != nil {
			panic("[logger]: failed to initialize default logger: " + err.Error())
		}
		global.Store(l)
	})
}

// getGlobal returns the global logger, initializing a default one lazily.
func getGlobal() Logger {
	if l, ok := global.Load().(Logger); ok {
		return l
	}
	initDefault()
	l, ok := global.Load().(Logger)
	if !ok {
		panic("[logger]: global contains invalid type after initialization")
	}
	return l
}
