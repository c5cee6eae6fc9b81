// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package changelog appends a markdown record of every run iteration to
// a per-model file, changelog/<model>.md (spec §4.5 "Changelog"), as its
// own component independent of the runner's event stream.
package changelog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ralfcli/ralf/internal/gitsafety"
)

// Status is the outcome of one iteration, as recorded in the changelog.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusRateLimited    Status = "rate_limited"
	StatusTimeout        Status = "timeout"
	StatusError          Status = "error"
	StatusVerifierFailed Status = "verifier_failed"
)

// VerifierOutcome is one verifier's pass/fail for the changelog entry.
type VerifierOutcome struct {
	Name   string
	Passed bool
}

// Entry is one appended changelog record.
type Entry struct {
	RunID         string
	Iteration     int
	Status        Status
	Reason        string
	Prompt        string
	Branch        string
	Dirty         bool
	ChangedFiles  []FileChange
	Verifiers     []VerifierOutcome
	LogPath       string
	Timestamp     time.Time
}

// FileChange is the minimal shape a changelog entry needs from a diff —
// satisfied directly by gitsafety.FileChange.
type FileChange = gitsafety.FileChange

// PromptHash returns the SHA-256 hex digest of the prompt text sent for
// this iteration.
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// Writer appends entries under baseDir/changelog/<model>.md.
type Writer struct {
	baseDir string
}

// New returns a Writer rooted at baseDir (commonly the thread's run
// directory's parent, ".ralf/").
func New(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

func (w *Writer) path(model string) string {
	return filepath.Join(w.baseDir, "changelog", model+".md")
}

// Append renders e as a markdown section and appends it to
// changelog/<model>.md, creating the file and its directory if absent.
func (w *Writer) Append(model string, e Entry) error {
	dir := filepath.Join(w.baseDir, "changelog")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("changelog: mkdir: %w", err)
	}

	f, err := os.OpenFile(w.path(model), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("changelog: open: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(render(e)); err != nil {
		return fmt.Errorf("changelog: write: %w", err)
	}
	return nil
}

func render(e Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Run %s, iteration %d\n\n", e.RunID, e.Iteration)
	fmt.Fprintf(&b, "- Status: %s\n", e.Status)
	if e.Reason != "" {
		fmt.Fprintf(&b, "- Reason: %s\n", e.Reason)
	}
	fmt.Fprintf(&b, "- Prompt hash: `%s`\n", PromptHash(e.Prompt))
	fmt.Fprintf(&b, "- Branch: %s\n", e.Branch)
	fmt.Fprintf(&b, "- Dirty: %t\n", e.Dirty)
	fmt.Fprintf(&b, "- Changed files: %s\n", renderChangedFiles(e.ChangedFiles))
	if len(e.Verifiers) > 0 {
		fmt.Fprintf(&b, "- Verifiers: %s\n", renderVerifiers(e.Verifiers))
	}
	fmt.Fprintf(&b, "- Log: `%s`\n\n", e.LogPath)

	return b.String()
}

func renderChangedFiles(files []FileChange) string {
	if len(files) == 0 {
		return "(none)"
	}
	const maxShown = 10
	names := make([]string, 0, len(files))
	for _, f := range files {
		name := f.NewName
		if name == "" {
			name = f.OrigName
		}
		names = append(names, name)
	}
	if len(names) > maxShown {
		return strings.Join(names[:maxShown], ", ") + fmt.Sprintf(" (and %d more)", len(names)-maxShown)
	}
	return strings.Join(names, ", ")
}

func renderVerifiers(outcomes []VerifierOutcome) string {
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		mark := "fail"
		if o.Passed {
			mark = "pass"
		}
		parts = append(parts, fmt.Sprintf("%s=%s", o.Name, mark))
	}
	return strings.Join(parts, ", ")
}
