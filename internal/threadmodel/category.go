// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package threadmodel

// Category groups phases for UI presentation (1-5). Category is derived
// from Kind and never constrains legal transitions — it is a display
// concern layered on top of the phase machine.
type Category int

const (
	CategorySpecCreation Category = iota + 1
	CategoryImplementation
	CategoryPolish
	CategoryReview
	CategoryCompletion
)

func (c Category) String() string {
	switch c {
	case CategorySpecCreation:
		return "spec-creation"
	case CategoryImplementation:
		return "implementation"
	case CategoryPolish:
		return "polish"
	case CategoryReview:
		return "review"
	case CategoryCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

var categoryByKind = map[Kind]Category{
	KindDrafting:  CategorySpecCreation,
	KindAssessing: CategorySpecCreation,
	KindFinalized: CategorySpecCreation,

	KindPreflight:       CategoryImplementation,
	KindPreflightFailed: CategoryImplementation,
	KindConfiguring:     CategoryImplementation,
	KindRunning:         CategoryImplementation,
	KindPaused:          CategoryImplementation,
	KindVerifying:       CategoryImplementation,
	KindStuck:           CategoryImplementation,
	KindImplemented:     CategoryImplementation,

	KindPolishing: CategoryPolish,

	KindPendingReview: CategoryReview,
	KindApproved:      CategoryReview,

	KindReadyToCommit: CategoryCompletion,
	KindDone:          CategoryCompletion,
	KindAbandoned:     CategoryCompletion,
}

// CategoryOf returns the UI category for a phase kind.
func CategoryOf(kind Kind) Category {
	return categoryByKind[kind]
}
