// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ralfcli/ralf/internal/changelog"
	"github.com/ralfcli/ralf/internal/config"
	"github.com/ralfcli/ralf/internal/gitsafety"
	"github.com/ralfcli/ralf/internal/ralferr"
)

// Options configures one run of the iteration loop.
type Options struct {
	RunID            string
	MaxIterations    int
	MaxWallClockSecs int
	PromptPath       string
	RepoPath         string
	Models           []string // overrides config.Models' names, if set
	BaselineSHA      string   // for "on_change" verifier scheduling and checkpoint commits
}

// Runner owns the iteration loop: model selection, cooldowns, subprocess
// invocation, promise detection, verifier scheduling, checkpoint
// commits, and the event bus.
type Runner struct {
	Cfg       *config.Config
	Git       *gitsafety.Safety
	Bus       *EventBus
	Changelog *changelog.Writer
	BaseDir   string // ".ralf/"
	Secrets   *config.SecretStore // nil if Cfg.Secrets is empty
}

func (r *Runner) statePath() string     { return filepath.Join(r.BaseDir, "state.json") }
func (r *Runner) cooldownsPath() string { return filepath.Join(r.BaseDir, "cooldowns.json") }
func (r *Runner) runDir(runID string) string {
	return filepath.Join(r.BaseDir, "runs", runID)
}

// Run executes the iteration loop to completion, cancellation, or
// exhaustion of the iteration/wall-clock bounds, per spec §4.5.
func (r *Runner) Run(ctx context.Context, opts Options, cancel *CancelSignal) error {
	now := time.Now

	state, err := LoadState(r.statePath())
	if err != nil {
		return err
	}
	cooldowns, err := LoadCooldowns(r.cooldownsPath())
	if err != nil {
		return err
	}

	runDir := r.runDir(opts.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("runner: creating run dir: %w", err)
	}

	promptBytes, err := os.ReadFile(opts.PromptPath)
	if err != nil {
		return fmt.Errorf("runner: reading prompt: %w", err)
	}
	prompt := string(promptBytes)

	state.RunID = opts.RunID
	state.Status = StatusRunning
	if state.StartedAt.IsZero() {
		state.StartedAt = now()
	}

	models := opts.Models
	if len(models) == 0 {
		for _, m := range r.Cfg.Models {
			models = append(models, m.Name)
		}
	}
	adapterByName := make(map[string]config.ModelConfig, len(r.Cfg.Models))
	for _, m := range r.Cfg.Models {
		adapterByName[m.Name] = m
	}

	r.publish(Started{base: base{now()}, RunID: opts.RunID, MaxIterations: opts.MaxIterations})

	finish := func(reason string) error {
		state.Status = StatusCompleted
		state.EndedAt = now()
		r.persist(state, cooldowns)
		r.publish(Completed{base: base{now()}, Reason: reason})
		return nil
	}

	for {
		if cancel.Requested() {
			state.Status = StatusCancelled
			state.EndedAt = now()
			r.persist(state, cooldowns)
			r.publish(Cancelled{base: base{now()}, Iteration: state.Iteration})
			return nil
		}

		if state.Iteration >= opts.MaxIterations || wallClockExceeded(state.StartedAt, opts.MaxWallClockSecs, now()) {
			return finish("Iteration or wall-clock bound reached")
		}

		cooldowns.ExpireStale(now())
		available := cooldowns.Available(models, now())

		if len(available) == 0 {
			expiry, ok := cooldowns.EarliestExpiry(now())
			wait := time.Second
			if ok {
				remaining := time.Until(expiry)
				if remaining > wait {
					wait = remaining
				}
			}
			select {
			case <-cancel.C():
				cancel.Cancel() // restore single-slot signal for the top-of-loop check
				continue
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		model, nextCursor, _ := Select(r.Cfg.ModelSelection, available, r.Cfg.ModelPriority, state.Cursor)
		adapter, known := adapterByName[model]
		if !known {
			adapter = config.ModelConfig{Name: model, CommandArgv: []string{model}, TimeoutSeconds: 120, DefaultCooldownSeconds: 60}
		}

		r.publish(IterationStarted{base: base{now()}, Iteration: state.Iteration + 1, Model: model})

		logPath := filepath.Join(runDir, model+".log")
		invocation, cancelled := r.invokeModelRacingCancel(ctx, adapter, prompt, logPath, cancel)
		if cancelled {
			state.Status = StatusCancelled
			state.EndedAt = now()
			r.persist(state, cooldowns)
			r.publish(Cancelled{base: base{now()}, Iteration: state.Iteration})
			return nil
		}

		if invocation.Err != nil {
			reason := "invocation error"
			if ralferr.Is(invocation.Err, ralferr.KindTimeout) {
				reason = "timeout"
			}
			cooldowns.Set(model, int(adapter.DefaultCooldownSeconds), reason, now())
			state.Cursor = nextCursor
			r.persist(state, cooldowns)
			r.publish(CooldownStarted{base: base{now()}, Model: model, Seconds: int(adapter.DefaultCooldownSeconds), Reason: reason})
			r.recordChangelog(model, opts, state.Iteration+1, changelogStatusFor(reason), reason, prompt, logPath)
			continue
		}

		rateLimited := IsRateLimited(invocation.Combined, adapter.RateLimitPatterns)
		if rateLimited {
			cooldowns.Set(model, int(adapter.DefaultCooldownSeconds), "rate limited", now())
			state.Cursor = nextCursor
			r.persist(state, cooldowns)
			r.publish(CooldownStarted{base: base{now()}, Model: model, Seconds: int(adapter.DefaultCooldownSeconds), Reason: "rate limited"})
			r.recordChangelog(model, opts, state.Iteration+1, changelog.StatusRateLimited, "rate limited", prompt, logPath)
			continue
		}

		hasPromise := HasPromise(invocation.Stdout, r.Cfg.PromiseTag())

		state.Iteration++
		state.Cursor = nextCursor

		r.publish(ModelCompleted{
			base:          base{now()},
			Iteration:     state.Iteration,
			Model:         model,
			OutputPreview: invocation.Stdout,
			HasPromise:    hasPromise,
			RateLimited:   false,
		})

		changed, _ := r.treeChanged(ctx, opts.BaselineSHA)
		verifierResults := RunVerifiers(ctx, r.Cfg.Verifiers, changed, opts.RepoPath, runDir)
		status := changelog.StatusSuccess
		if !AllPassed(verifierResults) {
			status = changelog.StatusVerifierFailed
		}
		r.recordChangelogWithVerifiers(model, opts, state.Iteration, status, "", prompt, logPath, verifierResults)

		if !hasPromise {
			r.maybeCheckpointCommit(ctx, state.Iteration, changed)
		}

		if hasPromise {
			r.publish(IterationCompleted{base: base{now()}, Iteration: state.Iteration, Passed: true})
			r.persist(state, cooldowns)
			return finish("Promise fulfilled")
		}

		r.publish(IterationCompleted{base: base{now()}, Iteration: state.Iteration, Passed: false})
		r.persist(state, cooldowns)
	}
}

// invokeModelRacingCancel runs InvokeModel in its own goroutine and races
// its completion against cancel, per spec §4.5/§5: cancellation must
// preempt an in-flight model invocation, not just the gaps between
// iterations. Ctx passed to InvokeModel is derived from ctx and cancelled
// the instant cancel fires, so exec.CommandContext's kill-on-cancel
// behavior tears down the child subprocess immediately (spec §9) instead
// of leaving it running for up to its own timeout.
func (r *Runner) invokeModelRacingCancel(ctx context.Context, adapter config.ModelConfig, prompt, logPath string, cancel *CancelSignal) (InvocationResult, bool) {
	invocationCtx, stop := context.WithCancel(ctx)
	defer stop()

	done := make(chan InvocationResult, 1)
	go func() { done <- InvokeModel(invocationCtx, adapter, prompt, logPath, r.Secrets) }()

	select {
	case <-cancel.C():
		stop()
		<-done // wait for the killed subprocess to actually exit before persisting state
		return InvocationResult{}, true
	case invocation := <-done:
		return invocation, false
	}
}

func wallClockExceeded(startedAt time.Time, maxSeconds int, now time.Time) bool {
	if maxSeconds <= 0 {
		return false
	}
	return now.Sub(startedAt) >= time.Duration(maxSeconds)*time.Second
}

func (r *Runner) publish(e Event) {
	if r.Bus != nil {
		r.Bus.Publish(e)
	}
}

func (r *Runner) persist(state *State, cooldowns *Cooldowns) {
	_ = state.Save(r.statePath())
	_ = cooldowns.Save(r.cooldownsPath())
}

func (r *Runner) treeChanged(ctx context.Context, baselineSHA string) (bool, error) {
	if baselineSHA == "" || r.Git == nil || !r.Git.IsRepo(ctx) {
		return false, nil
	}
	return r.Git.HasChangesSince(ctx, baselineSHA)
}

func (r *Runner) maybeCheckpointCommit(ctx context.Context, iteration int, changed bool) {
	if r.Git == nil || !r.Cfg.CheckpointCommits || !changed {
		return
	}
	if !r.Git.IsRepo(ctx) {
		return
	}
	_, _ = r.Git.CommitAll(ctx, fmt.Sprintf("ralf: checkpoint iteration %d", iteration))
}

func changelogStatusFor(reason string) changelog.Status {
	if reason == "timeout" {
		return changelog.StatusTimeout
	}
	return changelog.StatusError
}

func (r *Runner) recordChangelog(model string, opts Options, iteration int, status changelog.Status, reason, prompt, logPath string) {
	r.recordChangelogWithVerifiers(model, opts, iteration, status, reason, prompt, logPath, nil)
}

func (r *Runner) recordChangelogWithVerifiers(model string, opts Options, iteration int, status changelog.Status, reason, prompt, logPath string, results []VerifierResult) {
	if r.Changelog == nil {
		return
	}
	branch := ""
	dirty := false
	if r.Git != nil {
		ctx := context.Background()
		if b, err := r.Git.CurrentBranch(ctx); err == nil {
			branch = b
		}
		if clean, err := r.Git.IsClean(ctx); err == nil {
			dirty = !clean
		}
	}

	var verifierOutcomes []changelog.VerifierOutcome
	for _, vr := range results {
		verifierOutcomes = append(verifierOutcomes, changelog.VerifierOutcome{Name: vr.Name, Passed: vr.Passed})
	}

	var changedFiles []changelog.FileChange
	if r.Git != nil && opts.BaselineSHA != "" {
		if diffs, err := r.Git.DiffFromBaseline(context.Background(), opts.BaselineSHA); err == nil {
			changedFiles = diffs
		}
	}

	_ = r.Changelog.Append(model, changelog.Entry{
		RunID:        opts.RunID,
		Iteration:    iteration,
		Status:       status,
		Reason:       reason,
		Prompt:       prompt,
		Branch:       branch,
		Dirty:        dirty,
		ChangedFiles: changedFiles,
		Verifiers:    verifierOutcomes,
		LogPath:      logPath,
	})
}
