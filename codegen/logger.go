package codegen

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package logger, a no-op unless SetLogger installed one.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs the logger used by this package. The CLI calls this
// once at startup, before any worker goroutine is spawned.
func SetLogger(l *zap.Logger) {
	logger = l
}
