// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger owns the process-wide structured logger.
//
// The shared logger starts as a no-op so library code and tests stay quiet
// until Init is called with a Config. Close flushes it and releases the
// rotating log file.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.RWMutex
	log     = zap.NewNop()
	rotator *lumberjack.Logger
)

// Config controls where log records go.
type Config struct {
	// Level is one of debug, info, warn, error (default: info)
	Level string

	// File enables a rotating JSON log file when set
	File string

	// Development switches the console encoder to the human-readable form
	Development bool
}

// Init builds the shared logger from cfg and returns it.
func Init(cfg Config) *zap.Logger {
	level := ParseLevel(cfg.Level)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	var consoleEncoder zapcore.Encoder
	if cfg.Development {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		consoleEncoder = jsonEncoder
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level),
	}

	var fileOut *lumberjack.Logger
	if path := strings.TrimSpace(cfg.File); path != "" {
		fileOut = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(fileOut), level))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	swap(l, fileOut)
	return l
}

// Set replaces the shared logger. A nil logger resets it to a no-op.
// Any log file opened by Init is closed.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	swap(l, nil)
}

// swap installs l and closes the rotator it replaces.
func swap(l *zap.Logger, out *lumberjack.Logger) {
	mu.Lock()
	prev := rotator
	log, rotator = l, out
	mu.Unlock()

	if prev != nil && prev != out {
		_ = prev.Close()
	}
}

// L returns the shared logger. Never nil.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Named returns a child of the shared logger tagged with a module name.
func Named(module string) *zap.Logger {
	return L().With(zap.String("module", module))
}

// Sync flushes buffered records.
func Sync() error {
	return L().Sync()
}

// Close flushes the shared logger, closes its log file and resets it to a
// no-op. Stderr sync errors are ignored since they fail on pipes and
// terminals.
func Close() error {
	mu.Lock()
	l, out := log, rotator
	log, rotator = zap.NewNop(), nil
	mu.Unlock()

	_ = l.Sync()
	if out == nil {
		return nil
	}
	return out.Close()
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
