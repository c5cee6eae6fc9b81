// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gitsafety

import (
	"context"
	"fmt"

	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/ralfcli/ralf/internal/ralferr"
)

// FileChange summarizes one changed file between the baseline and the
// working tree.
type FileChange struct {
	OrigName   string
	NewName    string
	Additions  int
	Deletions  int
}

// DiffFromBaseline runs "git diff <baselineSHA>" and parses the unified
// diff output into structured per-file hunks via sourcegraph/go-diff,
// instead of scraping "git diff --stat" text by hand.
func (s *Safety) DiffFromBaseline(ctx context.Context, baselineSHA string) ([]FileChange, error) {
	out, err := s.run(ctx, "diff", baselineSHA)
	if err != nil {
		return nil, ralferr.Wrap(ralferr.KindIO, fmt.Errorf("git diff: %w", err))
	}
	if out == "" {
		return nil, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(out + "\n"))
	if err != nil {
		return nil, fmt.Errorf("gitsafety: parsing unified diff: %w", err)
	}

	changes := make([]FileChange, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		var added, removed int
		for _, hunk := range fd.Hunks {
			for _, line := range splitLines(hunk.Body) {
				switch {
				case len(line) > 0 && line[0] == '+':
					added++
				case len(line) > 0 && line[0] == '-':
					removed++
				}
			}
		}
		changes = append(changes, FileChange{
			OrigName:  trimDiffPrefix(fd.OrigName),
			NewName:   trimDiffPrefix(fd.NewName),
			Additions: added,
			Deletions: removed,
		})
	}
	return changes, nil
}

func splitLines(b []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, c := range b {
		if c == '\n' {
			out = append(out, b[start:i])
			start = i + 1
		}
	}
	if start < len(b) {
		out = append(out, b[start:])
	}
	return out
}

func trimDiffPrefix(name string) string {
	for _, prefix := range []string{"a/", "b/"} {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			return name[len(prefix):]
		}
	}
	return name
}
