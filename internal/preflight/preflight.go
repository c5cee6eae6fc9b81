// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package preflight runs the seven checks gating a thread's entry to the
// Preflight phase (spec §4.4). Every check always runs — the operator
// sees every failing reason at once, not just the first.
package preflight

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"github.com/ralfcli/ralf/internal/config"
	"github.com/ralfcli/ralf/internal/gitsafety"
	"github.com/ralfcli/ralf/internal/specdoc"
	"github.com/ralfcli/ralf/internal/threadmodel"
	"github.com/ralfcli/ralf/internal/threadstore"
)

// Check is the outcome of one named preflight check.
type Check struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Result is the ordered list of all seven checks plus the aggregate.
type Result struct {
	Checks []Check `json:"checks"`
	Passed bool    `json:"passed"`
}

// Reason joins the labels of every failing check, for use as a
// PreflightFailed{reason} payload.
func (r Result) Reason() string {
	var failing []string
	for _, c := range r.Checks {
		if !c.Passed {
			failing = append(failing, c.Label)
		}
	}
	return strings.Join(failing, "; ")
}

// Runner executes the seven checks against a thread, its store, its git
// safety layer, and the global config.
type Runner struct {
	Store *threadstore.Store
	Git   *gitsafety.Safety
	Cfg   *config.Config
}

// Run evaluates all seven checks for thread t and returns the aggregate
// result. Every check always runs, concurrently, via conc/iter.ForEachIdx
// — there is no early exit, so the operator sees every failing check at
// once rather than just the first.
func (r *Runner) Run(ctx context.Context, t *threadmodel.Thread) Result {
	checks := make([]func() Check, 7)
	checks[0] = func() Check { return r.checkGitState(ctx, t) }
	checks[1] = func() Check { return r.checkBaselineCapturable(ctx) }
	checks[2] = func() Check { return r.checkSpecHasPromise(t) }
	checks[3] = func() Check { return r.checkCriteriaParseable(t) }
	checks[4] = func() Check { return r.checkModelsAvailable(t) }
	checks[5] = func() Check { return r.checkRequiredVerifiersConfigured() }
	checks[6] = func() Check { return r.checkNoConcurrentRun(t) }

	results := make([]Check, len(checks))
	iter.ForEachIdx(checks, func(i int, fn *func() Check) {
		results[i] = (*fn)()
	})

	passed := true
	for _, c := range results {
		if !c.Passed {
			passed = false
		}
	}
	return Result{Checks: results, Passed: passed}
}

func (r *Runner) checkGitState(ctx context.Context, t *threadmodel.Thread) Check {
	const name, label = "git_state", "Git state"
	if !r.Git.IsRepo(ctx) {
		return Check{Name: name, Label: label, Passed: true, Message: "not a git repository"}
	}
	if clean, err := r.Git.IsClean(ctx); err == nil && clean {
		return Check{Name: name, Label: label, Passed: true, Message: "working tree clean"}
	}
	branch, err := r.Git.CurrentBranch(ctx)
	if err == nil {
		if want, werr := gitsafety.ThreadBranch(t.ID); werr == nil && branch == want {
			return Check{Name: name, Label: label, Passed: true, Message: "resuming on thread branch " + branch}
		}
	}
	return Check{Name: name, Label: label, Passed: false, Message: "working tree is dirty and not on this thread's branch"}
}

func (r *Runner) checkBaselineCapturable(ctx context.Context) Check {
	const name, label = "baseline_capturable", "Baseline capturable"
	if !r.Git.IsRepo(ctx) {
		return Check{Name: name, Label: label, Passed: true, Message: "not a git repository"}
	}
	if _, err := r.Git.CaptureBaseline(ctx); err != nil {
		return Check{Name: name, Label: label, Passed: false, Message: err.Error()}
	}
	return Check{Name: name, Label: label, Passed: true, Message: "branch and head sha obtainable"}
}

func (r *Runner) checkSpecHasPromise(t *threadmodel.Thread) Check {
	const name, label = "spec_has_promise", "Spec has promise"
	_, content, err := r.Store.LoadLatestSpec(t.ID)
	if err != nil {
		return Check{Name: name, Label: label, Passed: false, Message: "no spec revision found"}
	}
	if !specdoc.HasPromise(content) {
		return Check{Name: name, Label: label, Passed: false, Message: "spec has no <promise>...</promise> tag"}
	}
	return Check{Name: name, Label: label, Passed: true, Message: "promise tag present"}
}

func (r *Runner) checkCriteriaParseable(t *threadmodel.Thread) Check {
	const name, label = "criteria_parseable", "Criteria parseable"
	_, content, err := r.Store.LoadLatestSpec(t.ID)
	if err != nil {
		return Check{Name: name, Label: label, Passed: false, Message: "no spec revision found"}
	}
	criteria := specdoc.ParseCriteria(content)
	if len(criteria) == 0 {
		return Check{Name: name, Label: label, Passed: false, Message: "no criteria extractable from spec"}
	}
	return Check{Name: name, Label: label, Passed: true, Message: fmt.Sprintf("%d criteria extracted", len(criteria))}
}

func (r *Runner) checkModelsAvailable(t *threadmodel.Thread) Check {
	const name, label = "models_available", "Models available"
	if t.RunConfig != nil && len(t.RunConfig.Models) > 0 {
		return Check{Name: name, Label: label, Passed: true, Message: "thread run config lists models"}
	}
	if len(r.Cfg.Models) > 0 {
		return Check{Name: name, Label: label, Passed: true, Message: "global config lists models"}
	}
	return Check{Name: name, Label: label, Passed: false, Message: "no models configured"}
}

func (r *Runner) checkRequiredVerifiersConfigured() Check {
	const name, label = "required_verifiers_configured", "Required verifiers configured"
	names := r.Cfg.VerifierNames()
	var missing []string
	for _, rv := range r.Cfg.RequiredVerifiers {
		if !names[rv] {
			missing = append(missing, rv)
		}
	}
	if len(missing) > 0 {
		return Check{Name: name, Label: label, Passed: false, Message: "missing verifier(s): " + strings.Join(missing, ", ")}
	}
	return Check{Name: name, Label: label, Passed: true, Message: "all required verifiers configured"}
}

func (r *Runner) checkNoConcurrentRun(t *threadmodel.Thread) Check {
	const name, label = "no_concurrent_run", "No concurrent run"
	summaries, err := r.Store.List()
	if err != nil {
		return Check{Name: name, Label: label, Passed: false, Message: err.Error()}
	}
	for _, s := range summaries {
		if s.ID == t.ID {
			continue
		}
		other, err := r.Store.Load(s.ID)
		if err != nil {
			continue
		}
		if other.IsRunActive() {
			return Check{Name: name, Label: label, Passed: false, Message: "thread " + other.ID + " has an active run"}
		}
	}
	return Check{Name: name, Label: label, Passed: true, Message: "no other thread has an active run"}
}
