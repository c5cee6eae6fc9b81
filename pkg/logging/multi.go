// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"context"
	"log/slog"
)

// multiHandler fans a record out to every wrapped handler, matching the
// layered stderr+file architecture described in the package doc.
type multiHandler struct {
	handlers []slog.Handler
}

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return multiHandler{handlers: next}
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return multiHandler{handlers: next}
}

// exportingHandler additionally forwards every handled record to an Exporter,
// the extension point for enterprise log sinks (GCS, Loki, Datadog, ...).
type exportingHandler struct {
	slog.Handler
	exporter Exporter
}

func (e exportingHandler) Handle(ctx context.Context, record slog.Record) error {
	err := e.Handler.Handle(ctx, record)
	if expErr := e.exporter.Export(record); expErr != nil && err == nil {
		err = expErr
	}
	return err
}

func (e exportingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return exportingHandler{Handler: e.Handler.WithAttrs(attrs), exporter: e.exporter}
}

func (e exportingHandler) WithGroup(name string) slog.Handler {
	return exportingHandler{Handler: e.Handler.WithGroup(name), exporter: e.exporter}
}
