// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"time"

	"github.com/briandowns/spinner"
)

// startSpinner shows a progress spinner for a subprocess-bound operation
// (doctor's --help probes, probe's live adapter calls). It is a no-op in
// JSON mode or when color is disabled, since neither wants ANSI frames
// interleaved with machine-readable or piped output.
func startSpinner(suffix string) func() {
	if !colorEnabled() || doctorJSON || probeJSON {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}
