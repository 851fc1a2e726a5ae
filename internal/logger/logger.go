// Package logger provides structured logging built on zap. Init is called
// once at startup; Get returns the process-wide logger afterwards.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls how the logger is built.
type Config struct {
	Level       string // debug, info, warn, error
	ServiceName string
	Development bool // console output with colors instead of JSON
}

// Logger wraps zap.Logger so call sites stay decoupled from the backend.
type Logger struct {
	*zap.Logger
}

var (
	mu     sync.RWMutex
	global = &Logger{zap.NewNop()}
)

// Init builds the global logger from config and returns it.
func Init(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	base, err := zapCfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if cfg.ServiceName != "" {
		base = base.With(zap.String("service", cfg.ServiceName))
	}

	l := &Logger{base}
	mu.Lock()
	global = l
	mu.Unlock()
	return l, nil
}

// Get returns the global logger. Before Init it returns a no-op logger,
// which keeps tests quiet.
func Get() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = global.Logger.Sync()
}
