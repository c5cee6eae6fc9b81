// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ralferr defines the cross-cutting error taxonomy shared by every
// core component, per the error handling design: a closed set of sentinel
// kinds that callers branch on via ErrorKind, wrapped with context at each
// boundary via fmt.Errorf("...: %w", err).
package ralferr

import "errors"

// Kind is one of the disjoint error kinds from the error handling design.
type Kind string

const (
	KindIO                Kind = "io"
	KindParse             Kind = "parse"
	KindInvalidID         Kind = "invalid_id"
	KindThreadNotFound    Kind = "thread_not_found"
	KindUnsupportedSchema Kind = "unsupported_schema"
	KindNotARepo          Kind = "not_a_repo"
	KindDirtyWorkingTree  Kind = "dirty_working_tree"
	KindDetachedHead      Kind = "detached_head"
	KindBranchExists      Kind = "branch_exists"
	KindBranchNotFound    Kind = "branch_not_found"
	KindSpawn             Kind = "spawn"
	KindTimeout           Kind = "timeout"
	KindNoModelsAvailable Kind = "no_models_available"
	KindCancelled         Kind = "cancelled"
)

// KindError associates a Kind with an underlying error so errors.As can
// recover it through any number of fmt.Errorf("%w", ...) wraps.
type KindError struct {
	Kind Kind
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *KindError) Unwrap() error { return e.Err }

// New creates an error tagged with kind wrapping msg as a plain error.
func New(kind Kind, msg string) error {
	return &KindError{Kind: kind, Err: errors.New(msg)}
}

// Wrap tags err with kind, preserving err in the unwrap chain.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Err: err}
}

// ErrorKind recovers the Kind tagged onto err, if any, by walking the
// wrap chain with errors.As.
func ErrorKind(err error) (Kind, bool) {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	k, ok := ErrorKind(err)
	return ok && k == kind
}
