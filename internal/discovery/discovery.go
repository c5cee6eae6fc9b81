// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package discovery resolves and probes model-adapter binaries (spec
// §4.7): `doctor` walks every configured adapter, finds it on PATH and
// extracts its version from `<name> --help`; `probe` sends a live probe
// prompt to classify rate-limit/auth reachability.
package discovery

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Finding is the result of locating and sanity-checking one adapter binary.
type Finding struct {
	Name     string   `json:"name"`
	Found    bool     `json:"found"`
	Callable bool     `json:"callable"`
	Path     string   `json:"path"`
	Version  string   `json:"version"`
	Issues   []string `json:"issues"`
}

var versionLinePattern = regexp.MustCompile(`(\d+(?:\.\d+){1,3})`)

// Discover resolves binary on PATH and, if present, runs `<name> --help`
// to confirm callability and scrape a version string.
func Discover(ctx context.Context, name string, argv0 string) Finding {
	f := Finding{Name: name}

	path, err := exec.LookPath(argv0)
	if err != nil {
		f.Issues = append(f.Issues, "not found on PATH")
		return f
	}
	f.Found = true
	f.Path = path

	cmd := exec.CommandContext(ctx, argv0, "--help")
	out, err := cmd.CombinedOutput()
	if err != nil {
		f.Issues = append(f.Issues, "`"+argv0+" --help` failed: "+err.Error())
		return f
	}
	f.Callable = true
	f.Version = extractVersion(out)
	return f
}

// extractVersion scans the first 5 lines of output for the first
// digits-separated-by-dots token that looks like a version number.
func extractVersion(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for i := 0; scanner.Scan() && i < 5; i++ {
		line := scanner.Text()
		if m := versionLinePattern.FindString(line); m != "" {
			return m
		}
	}
	return ""
}

// AdapterSpec is the minimal shape discovery needs from a configured
// model adapter: its logical name and its command argv (argv[0] is the
// binary to resolve).
type AdapterSpec struct {
	Name string
	Argv []string
}

// DiscoverAll fans out Discover across every adapter with bounded
// concurrency, via golang.org/x/sync/errgroup, so a `doctor` run against
// a long model list does not serialize on slow `--help` invocations.
func DiscoverAll(ctx context.Context, adapters []AdapterSpec, concurrency int) ([]Finding, error) {
	findings := make([]Finding, len(adapters))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, a := range adapters {
		i, a := i, a
		g.Go(func() error {
			if len(a.Argv) == 0 {
				findings[i] = Finding{Name: a.Name, Issues: []string{"no command_argv configured"}}
				return nil
			}
			findings[i] = Discover(gctx, a.Name, a.Argv[0])
			return nil
		})
	}
	_ = g.Wait()
	return findings, nil
}

// NormalizeIssue lower-cases and trims an issue string for substring
// matching against the probe's output-classification rules, mirroring
// the style of the teacher's trace/git output classifier.
func NormalizeIssue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
