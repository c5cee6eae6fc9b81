// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

// CancelSignal is a single-slot cancellation signal, separate from the
// event channel (spec §4.8): Cancel sends one value without blocking;
// TryCancel is non-blocking. The loop races this channel against the
// cooldown sleep and the model invocation, and checks it at the top of
// every iteration; a verifier run is not interrupted, so a cancel sent
// during one takes effect at the next iteration boundary.
type CancelSignal struct {
	ch chan struct{}
}

// NewCancelSignal returns a ready-to-use signal.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{ch: make(chan struct{}, 1)}
}

// Cancel requests cancellation, a no-op if already requested.
func (c *CancelSignal) Cancel() {
	select {
	case c.ch <- struct{}{}:
	default:
	}
}

// TryCancel is an alias for Cancel, kept distinct to name the
// non-blocking-send contract explicitly at call sites per spec wording.
func (c *CancelSignal) TryCancel() { c.Cancel() }

// C exposes the receive side for select statements racing cancellation
// against a concurrent operation.
func (c *CancelSignal) C() <-chan struct{} { return c.ch }

// Requested reports whether a cancellation is pending without consuming
// it from another select.
func (c *CancelSignal) Requested() bool {
	select {
	case <-c.ch:
		c.ch <- struct{}{}
		return true
	default:
		return false
	}
}
