// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for ralf components.
//
// The logging system is layered on top of Go's standard library slog
// package:
//
//   - Default: stderr output, human-oriented text handler.
//   - Optional: JSON file logging under a log directory, rotated by date.
//   - Extensible: an Exporter interface for shipping records elsewhere.
//
// Components that log (the thread store and the git-safety layer) take a
// *Logger via constructor injection rather than reaching for a
// package-level global, so tests can supply a discard logger and
// production code can supply one bound to a run or thread id via With.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level mirrors slog.Level with names that read naturally in config files.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Exporter ships completed log records to an external system. Implementations
// must not block the caller for long: Export is called synchronously for
// every handled record, on the logging goroutine.
type Exporter interface {
	Export(record slog.Record) error
}

// Config controls how New builds a Logger.
type Config struct {
	// Level is the minimum level that reaches any handler.
	Level Level
	// LogDir, if non-empty, enables file logging under this directory
	// (supports a leading "~" for the user home directory). Files are
	// named "{Service}_{date}.log" and contain one JSON object per line.
	LogDir string
	// Service names the component for file naming and the "service" field.
	Service string
	// Exporter, if non-nil, additionally receives every record.
	Exporter Exporter
}

// Logger wraps slog.Logger and tracks an optional open log file so callers
// can Close it on shutdown.
type Logger struct {
	*slog.Logger

	mu   sync.Mutex
	file *os.File
}

// Default returns a Logger that only writes human-readable text to stderr
// at Info level, matching Unix CLI conventions.
func Default() *Logger {
	l, _ := New(Config{Level: LevelInfo})
	return l
}

// Discard returns a Logger that drops every record; useful in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// New builds a Logger from cfg. The returned error is non-nil only if file
// logging was requested and the directory could not be created/opened.
func New(cfg Config) (*Logger, error) {
	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level}),
	}

	logger := &Logger{}

	var file *os.File
	if cfg.LogDir != "" {
		dir, err := expandHome(cfg.LogDir)
		if err != nil {
			return nil, fmt.Errorf("logging: expanding log dir: %w", err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: creating log dir: %w", err)
		}
		service := cfg.Service
		if service == "" {
			service = "ralf"
		}
		name := fmt.Sprintf("%s_%s.log", service, time.Now().UTC().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: opening log file: %w", err)
		}
		file = f
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: cfg.Level}))
	}

	h := slog.Handler(multiHandler{handlers: handlers})
	if cfg.Exporter != nil {
		h = exportingHandler{Handler: h, exporter: cfg.Exporter}
	}
	if cfg.Service != "" {
		h = h.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}

	logger.Logger = slog.New(h)
	logger.file = file
	return logger, nil
}

// Close flushes and closes the underlying log file, if any. Safe to call on
// a Logger with no file (no-op).
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// With returns a Logger whose records all carry the given attributes,
// sharing the same file handle (Close on the child has no effect on the
// parent's file — call Close only on the root Logger).
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), file: nil}
}

func expandHome(p string) (string, error) {
	if p == "~" || (len(p) >= 2 && p[:2] == "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if p == "~" {
			return home, nil
		}
		return filepath.Join(home, p[2:]), nil
	}
	return p, nil
}
