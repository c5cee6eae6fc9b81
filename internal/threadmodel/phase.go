// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package threadmodel defines the thread phase machine: the 17-state
// discriminated variant a thread moves through from Drafting to Done or
// Abandoned, plus the Thread record and UI phase categories built on top
// of it.
//
// Phase is modeled as a sum type the Go way: an interface with an
// unexported marker method, implemented by one concrete struct per state.
// Payload-bearing states (Running's iteration, Stuck's diagnosis, Done's
// commit id) carry their own fields instead of living in a shared
// bag-of-optionals — callers that need to inspect a payload type-switch on
// the concrete Phase type. Go does not check such a switch for
// exhaustiveness, so the switches in this package end in a default branch.
package threadmodel

import "fmt"

// Kind names one of the 17 phases, independent of any payload it carries.
// Kind is the comparable key the state machine's transition table is built
// on.
type Kind string

const (
	KindDrafting        Kind = "Drafting"
	KindAssessing       Kind = "Assessing"
	KindFinalized       Kind = "Finalized"
	KindPreflight       Kind = "Preflight"
	KindPreflightFailed Kind = "PreflightFailed"
	KindConfiguring     Kind = "Configuring"
	KindRunning         Kind = "Running"
	KindPaused          Kind = "Paused"
	KindVerifying       Kind = "Verifying"
	KindStuck           Kind = "Stuck"
	KindImplemented     Kind = "Implemented"
	KindPolishing       Kind = "Polishing"
	KindPendingReview   Kind = "PendingReview"
	KindApproved        Kind = "Approved"
	KindReadyToCommit   Kind = "ReadyToCommit"
	KindDone            Kind = "Done"
	KindAbandoned       Kind = "Abandoned"
)

// AllKinds lists every phase kind, used to seed the state machine's
// transition table so every state is present even with no outgoing edges.
func AllKinds() []Kind {
	return []Kind{
		KindDrafting, KindAssessing, KindFinalized, KindPreflight,
		KindPreflightFailed, KindConfiguring, KindRunning, KindPaused,
		KindVerifying, KindStuck, KindImplemented, KindPolishing,
		KindPendingReview, KindApproved, KindReadyToCommit, KindDone,
		KindAbandoned,
	}
}

// Phase is the sum type of the 17 thread states.
type Phase interface {
	Kind() Kind
	phaseMarker()
}

// StuckDiagnosis carries the detail attached to the Stuck phase.
type StuckDiagnosis struct {
	IterationsAttempted int      `json:"iterations_attempted"`
	ModelsTried         []string `json:"models_tried"`
	BestCriteriaPassed  int      `json:"best_criteria_passed"`
	TotalCriteria       int      `json:"total_criteria"`
	LastError           string   `json:"last_error"`
}

// DraftingPhase — the thread's initial state: the spec is being authored.
type DraftingPhase struct{}

// AssessingPhase — the authored draft is being evaluated for completeness.
type AssessingPhase struct{}

// FinalizedPhase — the spec has a saved revision and is ready for preflight.
type FinalizedPhase struct{}

// PreflightPhase — preflight checks are being evaluated.
type PreflightPhase struct{}

// PreflightFailedPhase — preflight's aggregate check failed.
type PreflightFailedPhase struct {
	Reason string `json:"reason"`
}

// ConfiguringPhase — a git baseline and thread branch are being prepared.
type ConfiguringPhase struct{}

// RunningPhase — the runner is actively invoking a model adapter.
type RunningPhase struct {
	Iteration int `json:"iteration"`
}

// PausedPhase — a run is paused mid-iteration by operator request.
type PausedPhase struct {
	Iteration int `json:"iteration"`
}

// VerifyingPhase — verifier commands are running after a model iteration.
type VerifyingPhase struct {
	Iteration int `json:"iteration"`
}

// StuckPhase — the run exhausted its bound without a promise.
type StuckPhase struct {
	Diagnosis StuckDiagnosis `json:"diagnosis"`
}

// ImplementedPhase — the promise tag was detected; implementation is done.
type ImplementedPhase struct{}

// PolishingPhase — an optional post-implementation cleanup pass is running.
type PolishingPhase struct{}

// PendingReviewPhase — awaiting human review of the implementation.
type PendingReviewPhase struct{}

// ApprovedPhase — the human reviewer approved the change.
type ApprovedPhase struct{}

// ReadyToCommitPhase — approved and queued for the final commit step.
type ReadyToCommitPhase struct{}

// DonePhase — terminal: the change was committed.
type DonePhase struct {
	CommitID string `json:"commit_id"`
}

// AbandonedPhase — terminal: the thread was abandoned.
type AbandonedPhase struct {
	Reason string `json:"reason"`
}

func (DraftingPhase) Kind() Kind        { return KindDrafting }
func (AssessingPhase) Kind() Kind       { return KindAssessing }
func (FinalizedPhase) Kind() Kind       { return KindFinalized }
func (PreflightPhase) Kind() Kind       { return KindPreflight }
func (PreflightFailedPhase) Kind() Kind { return KindPreflightFailed }
func (ConfiguringPhase) Kind() Kind     { return KindConfiguring }
func (RunningPhase) Kind() Kind         { return KindRunning }
func (PausedPhase) Kind() Kind          { return KindPaused }
func (VerifyingPhase) Kind() Kind       { return KindVerifying }
func (StuckPhase) Kind() Kind           { return KindStuck }
func (ImplementedPhase) Kind() Kind     { return KindImplemented }
func (PolishingPhase) Kind() Kind       { return KindPolishing }
func (PendingReviewPhase) Kind() Kind   { return KindPendingReview }
func (ApprovedPhase) Kind() Kind        { return KindApproved }
func (ReadyToCommitPhase) Kind() Kind   { return KindReadyToCommit }
func (DonePhase) Kind() Kind            { return KindDone }
func (AbandonedPhase) Kind() Kind       { return KindAbandoned }

func (DraftingPhase) phaseMarker()        {}
func (AssessingPhase) phaseMarker()       {}
func (FinalizedPhase) phaseMarker()       {}
func (PreflightPhase) phaseMarker()       {}
func (PreflightFailedPhase) phaseMarker() {}
func (ConfiguringPhase) phaseMarker()     {}
func (RunningPhase) phaseMarker()         {}
func (PausedPhase) phaseMarker()          {}
func (VerifyingPhase) phaseMarker()       {}
func (StuckPhase) phaseMarker()           {}
func (ImplementedPhase) phaseMarker()     {}
func (PolishingPhase) phaseMarker()       {}
func (PendingReviewPhase) phaseMarker()   {}
func (ApprovedPhase) phaseMarker()        {}
func (ReadyToCommitPhase) phaseMarker()   {}
func (DonePhase) phaseMarker()            {}
func (AbandonedPhase) phaseMarker()       {}

// IsTerminal reports whether kind is a sink with no outgoing transitions.
func IsTerminal(kind Kind) bool {
	return kind == KindDone || kind == KindAbandoned
}

// String renders a Phase for display, including its payload where present.
func String(p Phase) string {
	switch v := p.(type) {
	case RunningPhase:
		return fmt.Sprintf("Running(%d)", v.Iteration)
	case PausedPhase:
		return fmt.Sprintf("Paused(%d)", v.Iteration)
	case VerifyingPhase:
		return fmt.Sprintf("Verifying(%d)", v.Iteration)
	case PreflightFailedPhase:
		return fmt.Sprintf("PreflightFailed(%s)", v.Reason)
	case StuckPhase:
		return fmt.Sprintf("Stuck(%s)", v.Diagnosis.LastError)
	case DonePhase:
		return fmt.Sprintf("Done(%s)", v.CommitID)
	case AbandonedPhase:
		return fmt.Sprintf("Abandoned(%s)", v.Reason)
	default:
		return string(p.Kind())
	}
}
