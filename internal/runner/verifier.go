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
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ralfcli/ralf/internal/config"
)

// VerifierResult is one verifier command's outcome.
type VerifierResult struct {
	Name       string
	Passed     bool
	ExitCode   int
	Output     string
	DurationMS int64
}

// RunVerifier spawns verifier.CommandArgv, capturing stdout+stderr to
// logPath, and passes iff the process exits zero within
// verifier.TimeoutSeconds.
func RunVerifier(ctx context.Context, verifier config.VerifierConfig, workDir, logPath string) VerifierResult {
	start := time.Now()
	result := VerifierResult{Name: verifier.Name}

	if len(verifier.CommandArgv) == 0 {
		result.Output = "runner: verifier " + verifier.Name + " has no command_argv"
		return result
	}

	timeout := time.Duration(verifier.TimeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, verifier.CommandArgv[0], verifier.CommandArgv[1:]...)
	cmd.Dir = workDir

	out, err := cmd.CombinedOutput()
	result.Output = string(out)
	result.DurationMS = time.Since(start).Milliseconds()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	result.Passed = err == nil

	if logPath != "" {
		if mkErr := os.MkdirAll(filepath.Dir(logPath), 0o755); mkErr == nil {
			_ = os.WriteFile(logPath, out, 0o644)
		}
	}
	return result
}

// ShouldRunVerifier reports whether a verifier configured with run_when
// should execute for this iteration, given whether the working tree has
// changed since the run's baseline. "always" verifiers always run;
// "on_change" verifiers only run when changed is true.
func ShouldRunVerifier(v config.VerifierConfig, changed bool) bool {
	if v.RunWhen == config.RunWhenAlways {
		return true
	}
	return changed
}

// RunVerifiers runs every configured verifier honoring ShouldRunVerifier,
// returning only the results for verifiers that actually ran.
func RunVerifiers(ctx context.Context, verifiers []config.VerifierConfig, changed bool, workDir, runDir string) []VerifierResult {
	var results []VerifierResult
	for _, v := range verifiers {
		if !ShouldRunVerifier(v, changed) {
			continue
		}
		logPath := filepath.Join(runDir, v.Name+".log")
		results = append(results, RunVerifier(ctx, v, workDir, logPath))
	}
	return results
}

// AllPassed reports whether every result in results passed.
func AllPassed(results []VerifierResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
