// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import "github.com/ralfcli/ralf/internal/config"

// Select picks the next model to invoke from available, per strategy.
// available is assumed already filtered to non-cooling models, in the
// adapters' configured order; priority lists model names in descending
// preference. It returns ("", false) if available is empty.
//
// Round-robin: available[cursor mod len(available)], then the caller
// advances the cursor with wrapping semantics (the cursor persists
// across restarts, so a restart does not re-hit the same adapter).
//
// Priority: the first name in priority present in available; falls
// back to available[0].
func Select(strategy config.SelectionStrategy, available []string, priority []string, cursor uint64) (name string, nextCursor uint64, ok bool) {
	if len(available) == 0 {
		return "", cursor, false
	}

	switch strategy {
	case config.SelectionPriority:
		for _, p := range priority {
			for _, a := range available {
				if a == p {
					return a, cursor, true
				}
			}
		}
		return available[0], cursor, true

	default: // config.SelectionRoundRobin
		idx := cursor % uint64(len(available))
		return available[idx], cursor + 1, true
	}
}
