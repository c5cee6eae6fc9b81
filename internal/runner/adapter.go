// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/creack/pty"

	"github.com/ralfcli/ralf/internal/config"
	"github.com/ralfcli/ralf/internal/ralferr"
)

// DeliveryMode is how a model adapter receives its prompt.
type DeliveryMode string

const (
	DeliveryStdin DeliveryMode = "stdin"
	DeliveryArgv  DeliveryMode = "argv"
)

// deliveryByName is the known adapter-kind rule from spec §4.5: which
// canonical adapters take the prompt on argv instead of stdin. Adapters
// outside this known set default to stdin, the more common convention
// among coding-assistant CLIs in the pack.
var deliveryByName = map[string]DeliveryMode{
	"claude": DeliveryStdin,
	"codex":  DeliveryArgv,
	"gemini": DeliveryStdin,
}

// DeliveryModeFor returns the configured delivery mode for adapter name.
func DeliveryModeFor(name string) DeliveryMode {
	if mode, ok := deliveryByName[name]; ok {
		return mode
	}
	return DeliveryStdin
}

// InvocationResult is one model adapter invocation's raw outcome.
type InvocationResult struct {
	Stdout   string
	Stderr   string
	Combined string
	ExitCode int
	Err      error
}

// InvokeModel runs adapter.CommandArgv with prompt delivered per its
// known delivery mode, subject to adapter.TimeoutSeconds, and tees
// stdout/stderr to logPath with the "=== STDOUT ===" / "=== STDERR ==="
// separator spec §4.5 step f requires. Any "${SECRET:name}" placeholder
// in CommandArgv is resolved against secrets (nil if the config carries
// no secrets) immediately before spawning, so a locked credential is
// decrypted only for the moment exec copies argv into the child process.
func InvokeModel(ctx context.Context, adapter config.ModelConfig, prompt string, logPath string, secrets *config.SecretStore) InvocationResult {
	if len(adapter.CommandArgv) == 0 {
		return InvocationResult{Err: ralferr.New(ralferr.KindSpawn, "runner: adapter "+adapter.Name+" has no command_argv")}
	}

	timeout := time.Duration(adapter.TimeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := make([]string, len(adapter.CommandArgv))
	copy(argv, adapter.CommandArgv)

	mode := DeliveryModeFor(adapter.Name)
	var stdin *bytes.Buffer
	if mode == DeliveryArgv {
		argv = append(argv, prompt)
	} else {
		stdin = bytes.NewBufferString(prompt)
	}

	argv, destroySecrets, err := resolveSecretArgv(secrets, argv)
	if err != nil {
		return InvocationResult{Err: ralferr.Wrap(ralferr.KindSpawn, err)}
	}

	var result InvocationResult
	var runErr error
	var exitCode int

	if adapter.RequiresPTY {
		result, runErr, exitCode = invokeViaPTY(runCtx, argv, stdin, destroySecrets)
	} else {
		cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
		if stdin != nil {
			cmd.Stdin = stdin
		}

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		runErr = cmd.Start()
		destroySecrets()
		if runErr == nil {
			runErr = cmd.Wait()
		}
		result = InvocationResult{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Combined: stdout.String() + stderr.String(),
		}
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}
	}
	result.ExitCode = exitCode

	if writeErr := writeInvocationLog(logPath, result); writeErr != nil {
		result.Err = writeErr
		return result
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.Err = ralferr.New(ralferr.KindTimeout, "runner: adapter "+adapter.Name+" timed out")
		return result
	}
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			result.Err = ralferr.Wrap(ralferr.KindSpawn, runErr)
		}
	}
	return result
}

// invokeViaPTY runs argv[0] under a pseudo-terminal instead of plain
// pipes, for adapters that detect a non-tty stdin/stdout and refuse to
// run headless. A pty has no separate stderr stream, so Stderr is left
// empty and Combined carries everything. destroySecrets is called as
// soon as pty.Start returns, successful or not, since argv has already
// been copied into the child by then.
func invokeViaPTY(ctx context.Context, argv []string, stdin *bytes.Buffer, destroySecrets func()) (InvocationResult, error, int) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	ptmx, err := pty.Start(cmd)
	destroySecrets()
	if err != nil {
		return InvocationResult{}, err, -1
	}
	defer ptmx.Close()

	if stdin != nil {
		go func() {
			_, _ = io.Copy(ptmx, stdin)
		}()
	}

	var out bytes.Buffer
	_, copyErr := io.Copy(&out, ptmx)
	waitErr := cmd.Wait()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	result := InvocationResult{Stdout: out.String(), Combined: out.String()}
	if waitErr != nil {
		return result, waitErr, exitCode
	}
	// A closed pty surfaces as a read error once the child exits; that is
	// expected and not itself a failure.
	_ = copyErr
	return result, nil, exitCode
}

// resolveSecretArgv substitutes "${SECRET:name}" placeholders in argv via
// secrets, returning a no-op destroy func when secrets is nil (no secrets
// configured) so call sites never need a nil check of their own.
func resolveSecretArgv(secrets *config.SecretStore, argv []string) ([]string, func(), error) {
	if secrets == nil {
		return argv, func() {}, nil
	}
	return secrets.ResolveArgv(argv)
}

func writeInvocationLog(logPath string, r InvocationResult) error {
	if logPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("runner: mkdir log dir: %w", err)
	}
	var b strings.Builder
	b.WriteString("=== STDOUT ===\n")
	b.WriteString(r.Stdout)
	b.WriteString("\n=== STDERR ===\n")
	b.WriteString(r.Stderr)
	b.WriteString("\n")
	return os.WriteFile(logPath, []byte(b.String()), 0o644)
}

// IsRateLimited reports whether combined stdout+stderr matches any of
// the adapter's configured rate-limit substrings (case-insensitive).
func IsRateLimited(combined string, patterns []string) bool {
	lower := strings.ToLower(combined)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// HasPromise reports whether stdout contains the exact completion
// promise tag.
func HasPromise(stdout, promiseTag string) bool {
	return strings.Contains(stdout, promiseTag)
}
