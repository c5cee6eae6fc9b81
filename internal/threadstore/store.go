// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package threadstore implements the atomic, schema-versioned, durable
// thread store described in spec §4.2: one directory per thread holding
// thread.json and numbered spec revisions, plus a base-directory active
// pointer file.
package threadstore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ralfcli/ralf/internal/ralferr"
	"github.com/ralfcli/ralf/internal/threadmodel"
	"github.com/ralfcli/ralf/pkg/logging"
)

// Store is rooted at a base directory (commonly ".ralf/" in the repo).
//
// Thread Safety: mutating operations on a single thread are serialized by
// the caller (the runner or the UI task owning the transition) — Store
// does not itself arbitrate cross-process or cross-goroutine access beyond
// the atomicity of each individual file write.
type Store struct {
	baseDir string
	log     *logging.Logger
}

// New returns a Store rooted at baseDir, which need not yet exist.
func New(baseDir string, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{baseDir: baseDir, log: log}
}

func (s *Store) threadDir(id string) string    { return filepath.Join(s.baseDir, "threads", id) }
func (s *Store) threadFile(id string) string   { return filepath.Join(s.threadDir(id), "thread.json") }
func (s *Store) specDir(id string) string      { return filepath.Join(s.threadDir(id), "spec") }
func (s *Store) activePointer() string         { return filepath.Join(s.baseDir, "active_thread") }

// Save persists t atomically, stamping schema_version and UpdatedAt.
func (s *Store) Save(t *threadmodel.Thread) error {
	if err := ValidateID(t.ID); err != nil {
		return err
	}
	t.UpdatedAt = time.Now().UTC()

	data, err := encodeThreadFile(t)
	if err != nil {
		return ralferr.Wrap(ralferr.KindIO, err)
	}
	if err := atomicWrite(s.threadFile(t.ID), data, 0o644); err != nil {
		return err
	}
	s.log.Debug("thread saved", "thread_id", t.ID, "phase", threadmodel.String(t.Phase))
	return nil
}

// Load reads and decodes a thread by id.
func (s *Store) Load(id string) (*threadmodel.Thread, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.threadFile(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ralferr.New(ralferr.KindThreadNotFound, "thread not found: "+id)
		}
		return nil, ralferr.Wrap(ralferr.KindIO, err)
	}
	return decodeThreadFile(data)
}

// Exists reports whether a loadable thread.json exists for id. A
// corrupted or unsupported-schema file is treated as not existing.
func (s *Store) Exists(id string) bool {
	_, err := s.Load(id)
	return err == nil
}

// Delete removes a thread's entire directory, including spec revisions,
// and clears the active pointer if it named this thread.
func (s *Store) Delete(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if !s.Exists(id) {
		return ralferr.New(ralferr.KindThreadNotFound, "thread not found: "+id)
	}
	active, err := s.GetActive()
	if err := os.RemoveAll(s.threadDir(id)); err != nil {
		return ralferr.Wrap(ralferr.KindIO, err)
	}

	if err == nil && active == id {
		_ = atomicWrite(s.activePointer(), []byte(""), 0o644)
	}
	return nil
}

// List returns a summary per thread, corrupted directories skipped rather
// than treated as fatal, sorted by UpdatedAt descending.
func (s *Store) List() ([]threadmodel.Summary, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "threads"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ralferr.Wrap(ralferr.KindIO, err)
	}

	active, _ := s.GetActive()

	var out []threadmodel.Summary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		t, err := s.Load(entry.Name())
		if err != nil {
			s.log.Warn("skipping unreadable thread directory", "thread_id", entry.Name(), "error", err)
			continue
		}
		out = append(out, t.ToSummary(active))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// SetActive points the active-thread pointer at id, which must exist.
func (s *Store) SetActive(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if !s.Exists(id) {
		return ralferr.New(ralferr.KindThreadNotFound, "thread not found: "+id)
	}
	return atomicWrite(s.activePointer(), []byte(id), 0o644)
}

// GetActive returns the active thread id, or "" if the pointer is empty,
// whitespace, or names a missing/corrupted thread.
func (s *Store) GetActive() (string, error) {
	data, err := os.ReadFile(s.activePointer())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", ralferr.Wrap(ralferr.KindIO, err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", nil
	}
	if !s.Exists(id) {
		return "", nil
	}
	return id, nil
}

// ClearActive empties the active-thread pointer.
func (s *Store) ClearActive() error {
	return atomicWrite(s.activePointer(), []byte(""), 0o644)
}
