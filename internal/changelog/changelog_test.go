// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package changelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendCreatesFileAndSection(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)

	err := w.Append("claude", Entry{
		RunID:     "run-1",
		Iteration: 1,
		Status:    StatusSuccess,
		Prompt:    "do the thing",
		Branch:    "ralf/abc123",
		Dirty:     true,
		ChangedFiles: []FileChange{
			{NewName: "main.go"}, {NewName: "util.go"},
		},
		Verifiers: []VerifierOutcome{{Name: "tests", Passed: true}},
		LogPath:   "runs/run-1/claude.log",
	})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "changelog", "claude.md"))
	require.NoError(t, err)
	require.Contains(t, string(content), "Run run-1, iteration 1")
	require.Contains(t, string(content), "main.go, util.go")
	require.Contains(t, string(content), "tests=pass")
}

func TestAppendTruncatesMoreThanTenFiles(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)

	var files []FileChange
	for i := 0; i < 14; i++ {
		files = append(files, FileChange{NewName: "file.go"})
	}

	require.NoError(t, w.Append("codex", Entry{RunID: "r", Iteration: 2, Status: StatusVerifierFailed, ChangedFiles: files}))

	content, err := os.ReadFile(filepath.Join(dir, "changelog", "codex.md"))
	require.NoError(t, err)
	require.Contains(t, string(content), "(and 4 more)")
}

func TestAppendAccumulatesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)

	require.NoError(t, w.Append("claude", Entry{RunID: "r", Iteration: 1, Status: StatusSuccess}))
	require.NoError(t, w.Append("claude", Entry{RunID: "r", Iteration: 2, Status: StatusSuccess}))

	content, err := os.ReadFile(filepath.Join(dir, "changelog", "claude.md"))
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(content), "## Run"))
}

func TestPromptHashIsStableSHA256Hex(t *testing.T) {
	h1 := PromptHash("hello")
	h2 := PromptHash("hello")
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
}
