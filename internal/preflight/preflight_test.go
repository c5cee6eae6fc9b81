// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package preflight

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ralfcli/ralf/internal/config"
	"github.com/ralfcli/ralf/internal/gitsafety"
	"github.com/ralfcli/ralf/internal/threadmodel"
	"github.com/ralfcli/ralf/internal/threadstore"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func newRunner(t *testing.T) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	store := threadstore.New(dir, nil)
	git := gitsafety.New(dir, nil)
	cfg := config.Default()
	return &Runner{Store: store, Git: git, Cfg: cfg}, dir
}

const samplePassingSpec = `# Sample

` + "<promise>COMPLETE</promise>" + `

## Acceptance Criteria

- [ ] Thing one works
- [x] Thing two works
`

func TestRunAllChecksFailCleanSlate(t *testing.T) {
	requireGit(t)
	runner, _ := newRunner(t)

	th := &threadmodel.Thread{ID: "abc123", Title: "demo", Phase: threadmodel.DraftingPhase{}}
	require.NoError(t, runner.Store.Save(th))

	result := runner.Run(context.Background(), th)
	require.False(t, result.Passed)

	var sawSpec, sawCriteria, sawModels bool
	for _, c := range result.Checks {
		switch c.Name {
		case "spec_has_promise":
			sawSpec = !c.Passed
		case "criteria_parseable":
			sawCriteria = !c.Passed
		case "models_available":
			sawModels = !c.Passed
		}
	}
	require.True(t, sawSpec)
	require.True(t, sawCriteria)
	require.True(t, sawModels)
}

func TestRunPassesWithSpecAndModels(t *testing.T) {
	requireGit(t)
	runner, _ := newRunner(t)

	th := &threadmodel.Thread{ID: "abc123", Title: "demo", Phase: threadmodel.DraftingPhase{}}
	require.NoError(t, runner.Store.Save(th))
	_, err := runner.Store.SaveSpec(th.ID, samplePassingSpec)
	require.NoError(t, err)

	runner.Cfg.Models = []config.ModelConfig{
		{Name: "claude", CommandArgv: []string{"claude"}, TimeoutSeconds: 60, DefaultCooldownSeconds: 30},
	}

	result := runner.Run(context.Background(), th)
	for _, c := range result.Checks {
		if c.Name == "no_concurrent_run" || c.Name == "git_state" || c.Name == "baseline_capturable" {
			continue
		}
		require.Truef(t, c.Passed, "check %s failed: %s", c.Name, c.Message)
	}
}

func TestCheckNoConcurrentRunFailsWhenAnotherThreadIsRunning(t *testing.T) {
	runner, _ := newRunner(t)

	running := &threadmodel.Thread{ID: "running1", Title: "busy", Phase: threadmodel.RunningPhase{Iteration: 3}}
	require.NoError(t, runner.Store.Save(running))

	th := &threadmodel.Thread{ID: "abc123", Title: "demo", Phase: threadmodel.DraftingPhase{}}
	require.NoError(t, runner.Store.Save(th))

	check := runner.checkNoConcurrentRun(th)
	require.False(t, check.Passed)
}

func TestCheckRequiredVerifiersConfigured(t *testing.T) {
	runner, _ := newRunner(t)
	runner.Cfg.RequiredVerifiers = []string{"tests"}
	check := runner.checkRequiredVerifiersConfigured()
	require.False(t, check.Passed)

	runner.Cfg.Verifiers = []config.VerifierConfig{{Name: "tests", CommandArgv: []string{"go", "test"}, TimeoutSeconds: 60, RunWhen: config.RunWhenAlways}}
	check = runner.checkRequiredVerifiersConfigured()
	require.True(t, check.Passed)
}

func TestResultReasonJoinsFailingLabels(t *testing.T) {
	r := Result{Checks: []Check{
		{Label: "A", Passed: true},
		{Label: "B", Passed: false},
		{Label: "C", Passed: false},
	}}
	require.Equal(t, "B; C", r.Reason())
}
