// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ralfcli/ralf/internal/changelog"
	"github.com/ralfcli/ralf/internal/config"
	"github.com/ralfcli/ralf/internal/gitsafety"
)

func TestSelectRoundRobinWrapsCursor(t *testing.T) {
	available := []string{"a", "b"}
	name, cursor, ok := Select(config.SelectionRoundRobin, available, nil, 0)
	require.True(t, ok)
	require.Equal(t, "a", name)
	require.EqualValues(t, 1, cursor)

	name, cursor, ok = Select(config.SelectionRoundRobin, available, nil, cursor)
	require.True(t, ok)
	require.Equal(t, "b", name)
	require.EqualValues(t, 2, cursor)

	name, _, ok = Select(config.SelectionRoundRobin, available, nil, cursor)
	require.True(t, ok)
	require.Equal(t, "a", name)
}

func TestSelectPriorityFallsBackToFirstAvailable(t *testing.T) {
	available := []string{"b", "c"}
	name, _, ok := Select(config.SelectionPriority, available, []string{"a", "c"}, 0)
	require.True(t, ok)
	require.Equal(t, "c", name)

	name, _, ok = Select(config.SelectionPriority, available, []string{"z"}, 0)
	require.True(t, ok)
	require.Equal(t, "b", name)
}

func TestSelectEmptyAvailableReturnsFalse(t *testing.T) {
	_, _, ok := Select(config.SelectionRoundRobin, nil, nil, 0)
	require.False(t, ok)
}

func TestCooldownsIsCoolingAndExpiry(t *testing.T) {
	c := NewCooldowns()
	now := time.Now()
	c.Set("claude", 30, "rate limited", now)

	require.True(t, c.IsCooling("claude", now))
	require.False(t, c.IsCooling("claude", now.Add(31*time.Second)))

	c.ExpireStale(now.Add(31 * time.Second))
	require.False(t, c.IsCooling("claude", now.Add(31*time.Second)))
}

func TestCooldownsSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cooldowns.json")
	c := NewCooldowns()
	c.Set("claude", 60, "rate limited", time.Now())
	require.NoError(t, c.Save(path))

	loaded, err := LoadCooldowns(path)
	require.NoError(t, err)
	require.True(t, loaded.IsCooling("claude", time.Now()))
}

func TestLoadCooldownsToleratesMissingFile(t *testing.T) {
	c, err := LoadCooldowns(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	require.False(t, c.IsCooling("anything", time.Now()))
}

func TestIsRateLimitedCaseInsensitive(t *testing.T) {
	require.True(t, IsRateLimited("You have hit your QUOTA", []string{"quota"}))
	require.False(t, IsRateLimited("all good", []string{"quota"}))
}

func TestHasPromiseExactSubstring(t *testing.T) {
	require.True(t, HasPromise("blah <promise>COMPLETE</promise> blah", "<promise>COMPLETE</promise>"))
	require.False(t, HasPromise("nothing here", "<promise>COMPLETE</promise>"))
}

func TestShouldRunVerifierHonorsRunWhen(t *testing.T) {
	always := config.VerifierConfig{RunWhen: config.RunWhenAlways}
	onChange := config.VerifierConfig{RunWhen: config.RunWhenOnChange}

	require.True(t, ShouldRunVerifier(always, false))
	require.True(t, ShouldRunVerifier(always, true))
	require.False(t, ShouldRunVerifier(onChange, false))
	require.True(t, ShouldRunVerifier(onChange, true))
}

func TestEventBusPreservesFIFOOrder(t *testing.T) {
	bus := NewEventBus()
	bus.Publish(IterationStarted{Iteration: 1})
	bus.Publish(IterationStarted{Iteration: 2})
	bus.Publish(IterationStarted{Iteration: 3})

	first := (<-bus.Events()).(IterationStarted)
	second := (<-bus.Events()).(IterationStarted)
	third := (<-bus.Events()).(IterationStarted)
	require.Equal(t, 1, first.Iteration)
	require.Equal(t, 2, second.Iteration)
	require.Equal(t, 3, third.Iteration)
}

func TestEventBusNeverDropsLifecycleEvents(t *testing.T) {
	bus := &EventBus{ch: make(chan Event, 2)}
	bus.Publish(IterationStarted{Iteration: 1})
	bus.Publish(IterationStarted{Iteration: 2})
	bus.Publish(Completed{Reason: "done"}) // lifecycle: must not be dropped despite full buffer

	var sawCompleted bool
	for i := 0; i < 3; i++ {
		select {
		case e := <-bus.Events():
			if _, ok := e.(Completed); ok {
				sawCompleted = true
			}
		default:
		}
	}
	require.True(t, sawCompleted)
}

func TestRunEndsOnMaxIterations(t *testing.T) {
	dir := t.TempDir()
	promptPath := filepath.Join(dir, "PROMPT.md")
	require.NoError(t, os.WriteFile(promptPath, []byte("do nothing useful"), 0o644))

	cfg := config.Default()
	cfg.Models = []config.ModelConfig{
		{Name: "echoer", CommandArgv: []string{"echo", "no promise here"}, TimeoutSeconds: 5, DefaultCooldownSeconds: 1},
	}

	bus := NewEventBus()
	r := &Runner{Cfg: cfg, Git: gitsafety.New(dir, nil), Bus: bus, Changelog: changelog.New(dir), BaseDir: dir}

	opts := Options{RunID: "run-1", MaxIterations: 2, MaxWallClockSecs: 30, PromptPath: promptPath, RepoPath: dir}
	err := r.Run(context.Background(), opts, NewCancelSignal())
	require.NoError(t, err)

	var sawCompleted bool
	drain(bus, func(e Event) {
		if _, ok := e.(Completed); ok {
			sawCompleted = true
		}
	})
	require.True(t, sawCompleted)
}

func TestRunEndsOnPromiseDetected(t *testing.T) {
	dir := t.TempDir()
	promptPath := filepath.Join(dir, "PROMPT.md")
	require.NoError(t, os.WriteFile(promptPath, []byte("finish the task"), 0o644))

	cfg := config.Default()
	cfg.Models = []config.ModelConfig{
		{Name: "echoer", CommandArgv: []string{"echo", "<promise>COMPLETE</promise>"}, TimeoutSeconds: 5, DefaultCooldownSeconds: 1},
	}

	bus := NewEventBus()
	r := &Runner{Cfg: cfg, Git: gitsafety.New(dir, nil), Bus: bus, Changelog: changelog.New(dir), BaseDir: dir}

	opts := Options{RunID: "run-2", MaxIterations: 5, MaxWallClockSecs: 30, PromptPath: promptPath, RepoPath: dir}
	err := r.Run(context.Background(), opts, NewCancelSignal())
	require.NoError(t, err)

	var reason string
	drain(bus, func(e Event) {
		if c, ok := e.(Completed); ok {
			reason = c.Reason
		}
	})
	require.Equal(t, "Promise fulfilled", reason)
}

func drain(bus *EventBus, fn func(Event)) {
	for {
		select {
		case e := <-bus.Events():
			fn(e)
		default:
			return
		}
	}
}
