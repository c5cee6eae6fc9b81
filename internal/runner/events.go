// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package runner implements the model-adapter scheduler and iteration
// loop (spec §4.5): cooldowns, model selection, subprocess invocation,
// promise detection, verifier execution, checkpoint commits, and the
// non-blocking run-event fan-out (spec §4.8).
package runner

import "time"

// Event is the closed set of run-event variants the runner emits, in
// exactly their order of occurrence.
type Event interface {
	eventMarker()
	Occurred() time.Time
}

type base struct {
	At time.Time
}

func (base) eventMarker()          {}
func (b base) Occurred() time.Time { return b.At }

// Started opens a run.
type Started struct {
	base
	RunID         string
	MaxIterations int
}

// IterationStarted marks the beginning of one iteration's model
// invocation.
type IterationStarted struct {
	base
	Iteration int
	Model     string
}

// ModelCompleted reports one model invocation's outcome.
type ModelCompleted struct {
	base
	Iteration      int
	Model          string
	OutputPreview  string
	HasPromise     bool
	RateLimited    bool
}

// IterationCompleted closes out one iteration, independent of run
// completion.
type IterationCompleted struct {
	base
	Iteration int
	Passed    bool
}

// CooldownStarted reports a model entering cooldown.
type CooldownStarted struct {
	base
	Model   string
	Seconds int
	Reason  string
}

// Cancelled is a lifecycle-priority event: the run stopped on operator
// request.
type Cancelled struct {
	base
	Iteration int
}

// Completed is a lifecycle-priority event: the run ended normally.
type Completed struct {
	base
	Reason string
}

// Failed is a lifecycle-priority event: the run ended on an
// unrecoverable error.
type Failed struct {
	base
	Reason string
}

// IsLifecycle reports whether e is one of the three events that must
// never be dropped by a backpressured event bus: Started and every
// Completed/Cancelled/Failed.
func IsLifecycle(e Event) bool {
	switch e.(type) {
	case Started, Completed, Cancelled, Failed:
		return true
	default:
		return false
	}
}
