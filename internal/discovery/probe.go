// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package discovery

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ProbePrompt is the fixed, side-effect-free prompt sent during a probe.
const ProbePrompt = "Ping. Just say 'ok' - do not read files or use tools."

// Outcome classifies one probe's result.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeNeedsAuth   Outcome = "needs_auth"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeError       Outcome = "error"
)

// ProbeResult is the outcome of sending the probe prompt to one adapter.
type ProbeResult struct {
	Name      string
	Outcome   Outcome
	Message   string
	ResetTime string
	Output    string
}

// DeliveryMode is how an adapter expects its prompt.
type DeliveryMode string

const (
	DeliveryStdin DeliveryMode = "stdin"
	DeliveryArgv  DeliveryMode = "argv"
)

var rateLimitSubstrings = []string{"limit", "quota", "429"}

var authIndicators = []string{
	"not authenticated", "authentication required", "unauthorized",
	"please login", "please sign in", "api key required",
	"missing api key", "invalid api key", "no credentials",
	"login required", "must login",
}

var resetPhrasePattern = regexp.MustCompile(`(?i)(?:try again at|resets at)\s+([^.\n,]+)`)

// Prober sends live probe prompts to adapter binaries, throttled by a
// shared token-bucket limiter so a probe run against many adapters does
// not launch a burst of subprocesses simultaneously.
type Prober struct {
	limiter *rate.Limiter
}

// NewProber builds a Prober that allows at most ratePerSecond probe
// launches per second, bursting up to burst.
func NewProber(ratePerSecond float64, burst int) *Prober {
	if burst < 1 {
		burst = 1
	}
	return &Prober{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Probe runs one adapter with the fixed probe prompt under the given
// delivery mode and timeout, per spec §4.7's outcome-classification rules.
func (p *Prober) Probe(ctx context.Context, name string, argv []string, mode DeliveryMode, timeout time.Duration) ProbeResult {
	if err := p.limiter.Wait(ctx); err != nil {
		return ProbeResult{Name: name, Outcome: OutcomeError, Message: err.Error()}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if len(argv) == 0 {
		return ProbeResult{Name: name, Outcome: OutcomeError, Message: "no command_argv configured"}
	}

	finalArgv := make([]string, len(argv))
	copy(finalArgv, argv)
	var stdin *bytes.Buffer
	if mode == DeliveryArgv {
		finalArgv = append(finalArgv, ProbePrompt)
	} else {
		stdin = bytes.NewBufferString(ProbePrompt)
	}

	cmd := exec.CommandContext(runCtx, finalArgv[0], finalArgv[1:]...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	out, runErr := cmd.CombinedOutput()
	output := string(out)

	if runCtx.Err() == context.DeadlineExceeded {
		res := ProbeResult{Name: name, Outcome: OutcomeTimeout, Message: "Probe timed out", Output: output}
		if output == "" {
			return res
		}
		if hasAuthIndicator(output) {
			res.Outcome = OutcomeNeedsAuth
		}
		return res
	}

	if rateLimited(output) {
		res := ProbeResult{Name: name, Outcome: OutcomeRateLimited, Output: output}
		if m := resetPhrasePattern.FindStringSubmatch(output); m != nil {
			res.ResetTime = strings.TrimSpace(m[1])
		}
		return res
	}

	if hasAuthIndicator(output) {
		return ProbeResult{Name: name, Outcome: OutcomeNeedsAuth, Output: output}
	}

	if runErr != nil {
		return ProbeResult{Name: name, Outcome: OutcomeError, Message: runErr.Error(), Output: output}
	}

	return ProbeResult{Name: name, Outcome: OutcomeSuccess, Output: output}
}

func rateLimited(output string) bool {
	lower := strings.ToLower(output)
	for _, s := range rateLimitSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func hasAuthIndicator(output string) bool {
	lower := strings.ToLower(output)
	for _, ind := range authIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	if strings.Contains(lower, "auth") && !strings.Contains(lower, "loaded") && !strings.Contains(lower, "success") {
		return true
	}
	return false
}
