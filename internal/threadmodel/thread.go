// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package threadmodel

import "time"

// Mode is a thread's operating mode, set at creation.
type Mode string

const (
	ModeQuick      Mode = "Quick"
	ModeMethodical Mode = "Methodical"
)

// GitBaseline is the (branch, commit, captured_at) triple captured at entry
// to implementation, used to reset a thread's working tree back to its
// starting point.
type GitBaseline struct {
	Branch     string    `json:"branch"`
	CommitSHA  string    `json:"commit_sha"`
	CapturedAt time.Time `json:"captured_at"`
}

// RunConfig is a thread's optional run configuration: how many iterations
// and how much wall-clock time a run may consume, which models to prefer,
// and where to find the prompt and repo the run operates on.
type RunConfig struct {
	MaxIterations      int      `json:"max_iterations"`
	MaxWallClockSecs   int      `json:"max_wall_clock_secs"`
	Models             []string `json:"models"`
	Branch             string   `json:"branch,omitempty"`
	PromptPath         string   `json:"prompt_path,omitempty"`
	RepoPath           string   `json:"repo_path,omitempty"`
}

// Thread is the unit of work: one task from spec to merge, with a single
// phase trajectory. The thread store exclusively owns persisted threads;
// callers hold short-lived copies obtained via load and mutate them only
// through guarded phase transitions.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Phase Phase `json:"phase"`
	Mode  Mode  `json:"mode"`

	CurrentSpecRevision int `json:"current_spec_revision"`

	CurrentRunID *string      `json:"current_run_id,omitempty"`
	RunConfig    *RunConfig   `json:"run_config,omitempty"`
	Baseline     *GitBaseline `json:"baseline,omitempty"`
}

// IsRunActive reports whether the thread occupies a run-active phase
// (Running, Verifying, or Paused) — at most one such thread may exist
// across the whole store at any moment (spec §3 invariant).
func (t *Thread) IsRunActive() bool {
	switch t.Phase.Kind() {
	case KindRunning, KindVerifying, KindPaused:
		return true
	default:
		return false
	}
}

// Summary is the listing projection of a Thread (spec §4.2 Listing).
type Summary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	PhaseName  string    `json:"phase_name"`
	Category   Category  `json:"category"`
	UpdatedAt  time.Time `json:"updated_at"`
	IsActive   bool      `json:"is_active"`
}

// ToSummary projects a Thread into its listing Summary.
func (t *Thread) ToSummary(activeID string) Summary {
	return Summary{
		ID:        t.ID,
		Title:     t.Title,
		PhaseName: String(t.Phase),
		Category:  CategoryOf(t.Phase.Kind()),
		UpdatedAt: t.UpdatedAt,
		IsActive:  activeID != "" && activeID == t.ID,
	}
}
