// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ralfcli/ralf/internal/changelog"
	"github.com/ralfcli/ralf/internal/config"
	"github.com/ralfcli/ralf/internal/runner"
)

var (
	runMaxIterations int
	runMaxSeconds    int
	runBranch        string
	runModels        []string
	runPromptPath    string
)

// runCmd drives the iteration loop against the working tree at --repo
// until the adapter emits a promise tag, a bound is hit, or the run is
// cancelled (spec §4.5).
//
// # Examples
//
//	ralf run                                    # Use config defaults, PROMPT.md
//	ralf run --max-iterations 10 --max-seconds 1800
//	ralf run --models claude,codex --branch ralf/feature-x
//
// # Exit Codes
//
//	0 - The loop reached a terminal state (promise, bound, or cancel)
//	1 - A prerequisite was missing or the run could not start
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model-adapter iteration loop against the working tree",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 10, "Maximum iterations before the run stops")
	runCmd.Flags().IntVar(&runMaxSeconds, "max-seconds", 0, "Maximum wall-clock seconds before the run stops (0 = unbounded)")
	runCmd.Flags().StringVar(&runBranch, "branch", "", "Check out this thread branch before running (created if absent)")
	runCmd.Flags().StringSliceVar(&runModels, "models", nil, "Restrict the run to these adapter names (default: every configured model)")
	runCmd.Flags().StringVar(&runPromptPath, "prompt", "PROMPT.md", "Prompt file sent to the adapter each iteration")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Models) == 0 {
		return fmt.Errorf("no models configured in %s", configPath())
	}
	if _, err := os.Stat(runPromptPath); err != nil {
		return fmt.Errorf("prompt file %s not found", runPromptPath)
	}

	git := openGit()
	ctx := context.Background()

	var baselineSHA string
	if git.IsRepo(ctx) {
		baseline, err := git.CaptureBaseline(ctx)
		if err == nil {
			baselineSHA = baseline.CommitSHA
		}
		if runBranch != "" {
			if err := git.EnsureBranch(ctx, runBranch); err != nil {
				return err
			}
		}
	}

	runID := uuid.NewString()
	bus := runner.NewEventBus()
	stopPrinting := printEventsAsTheyArrive(bus)
	defer stopPrinting()
	defer bus.Close()

	cancel := runner.NewCancelSignal()
	stopCancelWatch := watchCancelFile(filepath.Join(baseDirFlag, "cancel.request"), cancel)
	defer stopCancelWatch()

	var secrets *config.SecretStore
	if len(cfg.Secrets) > 0 {
		secrets = config.NewSecretStore(cfg.Secrets)
	}

	r := &runner.Runner{
		Cfg:       cfg,
		Git:       git,
		Bus:       bus,
		Changelog: changelog.New(baseDirFlag),
		BaseDir:   baseDirFlag,
		Secrets:   secrets,
	}

	opts := runner.Options{
		RunID:            runID,
		MaxIterations:    runMaxIterations,
		MaxWallClockSecs: runMaxSeconds,
		PromptPath:       runPromptPath,
		RepoPath:         repoFlag,
		Models:           runModels,
		BaselineSHA:      baselineSHA,
	}

	printDim("starting run %s", runID)
	return r.Run(ctx, opts, cancel)
}

func printEventsAsTheyArrive(bus *runner.EventBus) func() {
	done := make(chan struct{})
	go func() {
		for e := range bus.Events() {
			printRunnerEvent(e)
		}
		close(done)
	}()
	return func() { <-done }
}

func printRunnerEvent(e runner.Event) {
	switch ev := e.(type) {
	case runner.Started:
		printDim("run started, max %d iterations", ev.MaxIterations)
	case runner.IterationStarted:
		printDim("iteration %d: invoking %s", ev.Iteration, ev.Model)
	case runner.ModelCompleted:
		if ev.HasPromise {
			printOK("iteration %d: %s returned the promise tag", ev.Iteration, ev.Model)
		}
	case runner.CooldownStarted:
		printWarn("%s cooling down %ds: %s", ev.Model, ev.Seconds, ev.Reason)
	case runner.IterationCompleted:
		if !ev.Passed {
			printDim("iteration %d complete, no promise yet", ev.Iteration)
		}
	case runner.Cancelled:
		printWarn("run cancelled at iteration %d", ev.Iteration)
	case runner.Completed:
		printOK("run complete: %s", ev.Reason)
	case runner.Failed:
		printFail("run failed: %s", ev.Reason)
	}
}

func watchCancelFile(path string, cancel *runner.CancelSignal) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if _, err := os.Stat(path); err == nil {
					cancel.Cancel()
					_ = os.Remove(path)
				}
			}
		}
	}()
	return func() { close(stop) }
}
