// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package threadstore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/ralfcli/ralf/internal/ralferr"
)

var specFilePattern = regexp.MustCompile(`^v(\d+)\.md$`)

// ListSpecRevisions returns the revision numbers present for a thread,
// ascending.
func (s *Store) ListSpecRevisions(threadID string) ([]int, error) {
	if err := ValidateID(threadID); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.specDir(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ralferr.Wrap(ralferr.KindIO, err)
	}

	var revisions []int
	for _, entry := range entries {
		m := specFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		revisions = append(revisions, n)
	}
	sort.Ints(revisions)
	return revisions, nil
}

// SaveSpec numbers and writes a new spec revision for threadID, at
// max(existing)+1. Revision numbers never reuse and a revision is
// immutable once written. Fails with ThreadNotFound if the thread does
// not exist.
func (s *Store) SaveSpec(threadID, content string) (int, error) {
	if err := ValidateID(threadID); err != nil {
		return 0, err
	}
	if !s.Exists(threadID) {
		return 0, ralferr.New(ralferr.KindThreadNotFound, "thread not found: "+threadID)
	}

	existing, err := s.ListSpecRevisions(threadID)
	if err != nil {
		return 0, err
	}
	next := 1
	if len(existing) > 0 {
		next = existing[len(existing)-1] + 1
	}

	path := filepath.Join(s.specDir(threadID), fmt.Sprintf("v%d.md", next))
	if err := atomicWrite(path, []byte(content), 0o644); err != nil {
		return 0, err
	}
	return next, nil
}

// LoadSpec reads a specific spec revision for a thread.
func (s *Store) LoadSpec(threadID string, revision int) (string, error) {
	if err := ValidateID(threadID); err != nil {
		return "", err
	}
	path := filepath.Join(s.specDir(threadID), fmt.Sprintf("v%d.md", revision))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ralferr.New(ralferr.KindThreadNotFound, fmt.Sprintf("spec revision %d not found for thread %s", revision, threadID))
		}
		return "", ralferr.Wrap(ralferr.KindIO, err)
	}
	return string(data), nil
}

// LoadLatestSpec loads the highest-numbered spec revision for a thread, a
// convenience over ListSpecRevisions + LoadSpec.
func (s *Store) LoadLatestSpec(threadID string) (revision int, content string, err error) {
	revisions, err := s.ListSpecRevisions(threadID)
	if err != nil {
		return 0, "", err
	}
	if len(revisions) == 0 {
		return 0, "", ralferr.New(ralferr.KindThreadNotFound, "no spec revisions for thread "+threadID)
	}
	latest := revisions[len(revisions)-1]
	content, err = s.LoadSpec(threadID, latest)
	return latest, content, err
}
