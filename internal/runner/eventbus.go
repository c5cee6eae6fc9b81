// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"sync"

	"github.com/sourcegraph/conc"
)

// defaultBusCapacity bounds the primary channel's buffer before
// drop-oldest kicks in for non-lifecycle events.
const defaultBusCapacity = 256

// EventBus is the non-blocking, multi-producer single-consumer fan-out
// from spec §4.8. Publish never blocks: once the bounded channel is
// full, the oldest buffered event is evicted to make room — except the
// three lifecycle events (Started, and every Completed/Cancelled/Failed)
// are never dropped, even if eviction must run more than once to make
// room for them. FIFO order of events as published is preserved.
//
// A bus may additionally carry zero or more side-channel Listeners
// (e.g. the changelog writer) dispatched concurrently via
// conc.WaitGroup so a slow or panicking listener never stalls or kills
// the publishing goroutine.
type EventBus struct {
	mu        sync.Mutex
	ch        chan Event
	listeners []func(Event)
}

// NewEventBus returns a bus with the default bounded capacity.
func NewEventBus() *EventBus {
	return &EventBus{ch: make(chan Event, defaultBusCapacity)}
}

// Events returns the single-consumer channel of published events.
func (b *EventBus) Events() <-chan Event { return b.ch }

// Listen registers fn to be invoked, best-effort and out-of-line, for
// every subsequently published event.
func (b *EventBus) Listen(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Publish sends e to the bounded channel, never blocking the caller.
func (b *EventBus) Publish(e Event) {
	b.mu.Lock()
	b.publishLocked(e)
	listeners := append([]func(Event){}, b.listeners...)
	b.mu.Unlock()

	if len(listeners) == 0 {
		return
	}
	var wg conc.WaitGroup
	for _, fn := range listeners {
		fn := fn
		wg.Go(func() { safeCall(fn, e) })
	}
	go wg.Wait()
}

func safeCall(fn func(Event), e Event) {
	defer func() { _ = recover() }()
	fn(e)
}

func (b *EventBus) publishLocked(e Event) {
	lifecycle := IsLifecycle(e)
	for {
		select {
		case b.ch <- e:
			return
		default:
		}

		select {
		case <-b.ch:
		default:
			// Channel was concurrently drained to empty; retry the send.
			continue
		}

		if !lifecycle {
			select {
			case b.ch <- e:
			default:
			}
			return
		}
		// Lifecycle event: loop again, evicting as many times as needed.
	}
}

// Close closes the consumer channel. Callers must stop publishing
// before calling Close.
func (b *EventBus) Close() { close(b.ch) }
