// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package threadmodel

import (
	"encoding/json"
	"fmt"
)

// taggedPhase is the on-disk shape of a Phase: {"type": <name>, "data": {...}}.
type taggedPhase struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON encodes a Thread, rendering its Phase as the tagged
// {"type","data"} object described in spec §6 (thread.json schema v1).
func (t Thread) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID                  string       `json:"id"`
		Title               string       `json:"title"`
		CreatedAt           any          `json:"created_at"`
		UpdatedAt           any          `json:"updated_at"`
		Phase               taggedPhase  `json:"phase"`
		Mode                Mode         `json:"mode"`
		CurrentSpecRevision int          `json:"current_spec_revision"`
		CurrentRunID        *string      `json:"current_run_id,omitempty"`
		RunConfig           *RunConfig   `json:"run_config,omitempty"`
		Baseline            *GitBaseline `json:"baseline,omitempty"`
	}

	tagged, err := EncodePhase(t.Phase)
	if err != nil {
		return nil, err
	}

	return json.Marshal(alias{
		ID:                  t.ID,
		Title:               t.Title,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
		Phase:               tagged,
		Mode:                t.Mode,
		CurrentSpecRevision: t.CurrentSpecRevision,
		CurrentRunID:        t.CurrentRunID,
		RunConfig:           t.RunConfig,
		Baseline:            t.Baseline,
	})
}

// UnmarshalJSON decodes a Thread, reconstructing the concrete Phase variant
// from its tagged {"type","data"} encoding.
func (t *Thread) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID                  string          `json:"id"`
		Title               string          `json:"title"`
		CreatedAt           jsonTime        `json:"created_at"`
		UpdatedAt           jsonTime        `json:"updated_at"`
		Phase               taggedPhase     `json:"phase"`
		Mode                Mode            `json:"mode"`
		CurrentSpecRevision int             `json:"current_spec_revision"`
		CurrentRunID        *string         `json:"current_run_id,omitempty"`
		RunConfig           *RunConfig      `json:"run_config,omitempty"`
		Baseline            *GitBaseline    `json:"baseline,omitempty"`
	}

	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	phase, err := DecodePhase(a.Phase)
	if err != nil {
		return err
	}

	t.ID = a.ID
	t.Title = a.Title
	t.CreatedAt = a.CreatedAt.Time
	t.UpdatedAt = a.UpdatedAt.Time
	t.Phase = phase
	t.Mode = a.Mode
	t.CurrentSpecRevision = a.CurrentSpecRevision
	t.CurrentRunID = a.CurrentRunID
	t.RunConfig = a.RunConfig
	t.Baseline = a.Baseline
	return nil
}

// EncodePhase renders a Phase as its tagged on-disk form.
func EncodePhase(p Phase) (taggedPhase, error) {
	if p == nil {
		return taggedPhase{}, fmt.Errorf("threadmodel: nil phase")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return taggedPhase{}, fmt.Errorf("threadmodel: encoding phase data: %w", err)
	}
	// Empty-payload phases marshal to "{}"; keep that rather than omitting,
	// so every phase round-trips through the same shape.
	return taggedPhase{Type: p.Kind(), Data: data}, nil
}

// DecodePhase reconstructs the concrete Phase variant named by tp.Type.
func DecodePhase(tp taggedPhase) (Phase, error) {
	unmarshal := func(v Phase) (Phase, error) {
		if len(tp.Data) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(tp.Data, v); err != nil {
			return nil, fmt.Errorf("threadmodel: decoding %s payload: %w", tp.Type, err)
		}
		return derefPhase(v), nil
	}

	switch tp.Type {
	case KindDrafting:
		return DraftingPhase{}, nil
	case KindAssessing:
		return AssessingPhase{}, nil
	case KindFinalized:
		return FinalizedPhase{}, nil
	case KindPreflight:
		return PreflightPhase{}, nil
	case KindPreflightFailed:
		return unmarshal(&PreflightFailedPhase{})
	case KindConfiguring:
		return ConfiguringPhase{}, nil
	case KindRunning:
		return unmarshal(&RunningPhase{})
	case KindPaused:
		return unmarshal(&PausedPhase{})
	case KindVerifying:
		return unmarshal(&VerifyingPhase{})
	case KindStuck:
		return unmarshal(&StuckPhase{})
	case KindImplemented:
		return ImplementedPhase{}, nil
	case KindPolishing:
		return PolishingPhase{}, nil
	case KindPendingReview:
		return PendingReviewPhase{}, nil
	case KindApproved:
		return ApprovedPhase{}, nil
	case KindReadyToCommit:
		return ReadyToCommitPhase{}, nil
	case KindDone:
		return unmarshal(&DonePhase{})
	case KindAbandoned:
		return unmarshal(&AbandonedPhase{})
	default:
		return nil, fmt.Errorf("threadmodel: unknown phase type %q", tp.Type)
	}
}

// derefPhase turns a pointer-to-variant back into the value form Phase
// methods are defined on, so encoding round-trips to the same Go type.
func derefPhase(p Phase) Phase {
	switch v := p.(type) {
	case *PreflightFailedPhase:
		return *v
	case *RunningPhase:
		return *v
	case *PausedPhase:
		return *v
	case *VerifyingPhase:
		return *v
	case *StuckPhase:
		return *v
	case *DonePhase:
		return *v
	case *AbandonedPhase:
		return *v
	default:
		return p
	}
}
