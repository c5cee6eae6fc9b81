// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package threadmodel

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThreadRoundTrip(t *testing.T) {
	orig := Thread{
		ID:                  "abc123",
		Title:               "Add retry logic",
		CreatedAt:           time.Now().UTC().Truncate(time.Second),
		UpdatedAt:           time.Now().UTC().Truncate(time.Second),
		Phase:               RunningPhase{Iteration: 3},
		Mode:                ModeMethodical,
		CurrentSpecRevision: 2,
		RunConfig: &RunConfig{
			MaxIterations:    10,
			MaxWallClockSecs: 600,
			Models:           []string{"claude", "codex"},
		},
		Baseline: &GitBaseline{
			Branch:     "main",
			CommitSHA:  "deadbeef",
			CapturedAt: time.Now().UTC().Truncate(time.Second),
		},
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var decoded Thread
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Equal(t, orig.ID, decoded.ID)
	require.Equal(t, orig.Title, decoded.Title)
	require.True(t, orig.CreatedAt.Equal(decoded.CreatedAt))
	require.True(t, orig.UpdatedAt.Equal(decoded.UpdatedAt))
	require.Equal(t, orig.Phase, decoded.Phase)
	require.Equal(t, orig.Mode, decoded.Mode)
	require.Equal(t, orig.CurrentSpecRevision, decoded.CurrentSpecRevision)
	require.Equal(t, orig.RunConfig, decoded.RunConfig)
	require.Equal(t, orig.Baseline.Branch, decoded.Baseline.Branch)
	require.Equal(t, orig.Baseline.CommitSHA, decoded.Baseline.CommitSHA)
}

func TestPhaseKindsEachRoundTrip(t *testing.T) {
	phases := []Phase{
		DraftingPhase{}, AssessingPhase{}, FinalizedPhase{},
		PreflightPhase{}, PreflightFailedPhase{Reason: "dirty tree"},
		ConfiguringPhase{}, RunningPhase{Iteration: 1}, PausedPhase{Iteration: 1},
		VerifyingPhase{Iteration: 2}, StuckPhase{Diagnosis: StuckDiagnosis{LastError: "boom"}},
		ImplementedPhase{}, PolishingPhase{}, PendingReviewPhase{}, ApprovedPhase{},
		ReadyToCommitPhase{}, DonePhase{CommitID: "sha1"}, AbandonedPhase{Reason: "stale"},
	}

	for _, p := range phases {
		tagged, err := EncodePhase(p)
		require.NoError(t, err)
		require.Equal(t, p.Kind(), tagged.Type)

		decoded, err := DecodePhase(tagged)
		require.NoError(t, err)
		require.Equal(t, p, decoded)
	}
}

func TestStateMachineTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	sm := NewStateMachine()
	require.Empty(t, sm.ValidTransitionsFrom(KindDone))
	require.Empty(t, sm.ValidTransitionsFrom(KindAbandoned))
}

func TestStateMachineLegalGraph(t *testing.T) {
	sm := NewStateMachine()
	require.True(t, sm.CanTransition(KindDrafting, KindAssessing))
	require.True(t, sm.CanTransition(KindRunning, KindPaused))
	require.True(t, sm.CanTransition(KindPaused, KindRunning))
	require.True(t, sm.CanTransition(KindVerifying, KindImplemented))
	require.True(t, sm.CanTransition(KindStuck, KindFinalized))
	require.True(t, sm.CanTransition(KindPreflightFailed, KindAbandoned))
	require.False(t, sm.CanTransition(KindDrafting, KindDone))
	require.False(t, sm.CanTransition(KindDone, KindAbandoned))
}
