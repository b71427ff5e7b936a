// Package logger is a small facade over pluggable logging backends.
// Until Init is called every function is a no-op, so library code can log
// unconditionally.
package logger

import "sync/atomic"

// Backend is implemented by every logging sink.
type Backend interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

type dispatcher struct {
	backends []Backend
}

var active atomic.Pointer[dispatcher]

// Init installs the backends that receive all subsequent log calls.
func Init(backends ...Backend) {
	active.Store(&dispatcher{backends: backends})
}

// Reset removes all backends.
func Reset() {
	active.Store(nil)
}

func each(fn func(Backend)) {
	d := active.Load()
	if d == nil {
		return
	}
	for _, b := range d.backends {
		fn(b)
	}
}

// Debug writes a message at DEBUG level.
func Debug(message string, keyvals ...any) {
	each(func(b Backend) { b.Debug(message, keyvals...) })
}

// Info writes a message at INFO level.
func Info(message string, keyvals ...any) {
	each(func(b Backend) { b.Info(message, keyvals...) })
}

// Warn writes a message at WARN level.
func Warn(message string, keyvals ...any) {
	each(func(b Backend) { b.Warn(message, keyvals...) })
}

// Error writes a message at ERROR level.
func Error(message string, keyvals ...any) {
	each(func(b Backend) { b.Error(message, keyvals...) })
}

// Fatal writes a message at FATAL level. Backends are expected to exit.
func Fatal(message string, keyvals ...any) {
	each(func(b Backend) { b.Fatal(message, keyvals...) })
}
