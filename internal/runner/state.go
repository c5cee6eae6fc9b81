// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Status is a run's coarse lifecycle status.
type Status string

const (
	StatusIdle      Status = "Idle"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
	StatusFailed    Status = "Failed"
)

// State is the per-run persisted record (spec §3 "Run state"): restart
// recovery reloads this and the cooldowns file before resuming.
type State struct {
	RunID     string    `json:"run_id"`
	Iteration int       `json:"iteration"`
	Status    Status    `json:"status"`
	Cursor    uint64    `json:"cursor"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

// LoadState reads state.json, tolerating a missing file by returning a
// fresh idle State.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &State{Status: StatusIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("runner: reading state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("runner: decoding state: %w", err)
	}
	return &s, nil
}

// Save persists s atomically to path.
func (s *State) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("runner: encoding state: %w", err)
	}
	return atomicWriteFile(path, data)
}

// NextCursor returns the wrapping-incremented cursor, leaving s
// unmodified — callers assign the result back once a selection is
// accepted, so an unused candidate index never advances the cursor.
func (s *State) NextCursor() uint64 {
	return s.Cursor + 1
}
