// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"

	"github.com/ralfcli/ralf/internal/ralferr"
)

var validate = validator.New()

// Load reads and validates config.json at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ralferr.New(ralferr.KindIO, "config not found: "+path)
		}
		return nil, ralferr.Wrap(ralferr.KindIO, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, ralferr.Wrap(ralferr.KindParse, fmt.Errorf("parsing config: %w", err))
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, ralferr.Wrap(ralferr.KindParse, fmt.Errorf("validating config: %w", err))
	}
	return &cfg, nil
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validating config before save: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ralferr.Wrap(ralferr.KindIO, err)
	}
	return nil
}

// Watcher reloads config from path whenever the file changes on disk. No
// ralf command uses it.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
}

// NewWatcher starts watching path for writes. Call Close when done.
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: starting watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watching %s: %w", path, err)
	}
	return &Watcher{watcher: w, path: path}, nil
}

// Events delivers a fresh Config each time path is written, skipping
// updates that fail to parse or validate (the caller's prior config stays
// in effect; Events does not surface the error — callers that care should
// call Load themselves on their own schedule instead).
func (w *Watcher) Events() <-chan *Config {
	out := make(chan *Config)
	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(w.path)
				if err != nil {
					continue
				}
				out <- cfg
			case _, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
