// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package specdoc implements the markdown spec-document utilities shared
// by preflight (criteria/promise parsing) and the chat session (draft
// promise detection, response extraction): spec §4.4 check 3/4 and §4.6.
package specdoc

import (
	"regexp"
	"strings"
)

var promisePattern = regexp.MustCompile(`(?s)<promise>(.*?)</promise>`)

// HasPromise reports whether text contains both a "<promise>" open tag and
// a "</promise>" close tag, per spec (it does not require them to pair up
// correctly — that is extraction's job).
func HasPromise(text string) bool {
	return strings.Contains(text, "<promise>") && strings.Contains(text, "</promise>")
}

// ExtractPromise returns the value inside the first "<promise>...</promise>"
// pair in text.
func ExtractPromise(text string) (string, bool) {
	m := promisePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DraftHasPromise is the chat-session name for HasPromise, matching the
// spec's own vocabulary (§4.6 draft_has_promise).
func DraftHasPromise(draft string) bool { return HasPromise(draft) }

// ExtractDraftPromise is the chat-session name for ExtractPromise.
func ExtractDraftPromise(draft string) (string, bool) { return ExtractPromise(draft) }

// Criterion is one extracted acceptance/requirement bullet.
type Criterion struct {
	Text    string
	Checked bool
}

var sectionHeadingPattern = regexp.MustCompile(`(?i)^##\s+.*\b(requirement|criteria|acceptance|completion|verification)`)
var h1Pattern = regexp.MustCompile(`^#\s+`)
var h2Pattern = regexp.MustCompile(`^##\s+`)
var bulletPattern = regexp.MustCompile(`^\s*([-*\x{2022}])\s*(?:\[( |x|X)\]\s*)?(.+)$`)

// ParseCriteria extracts bullet items from any H2 section whose heading
// text matches requirement|criteria|acceptance|completion|verification.
// Checkbox ("- [ ]"/"- [x]") and plain bullet markers ("-", "*", "•") are
// all accepted. An H3+ heading inside the section does not end it; an H1
// heading does. A section present but with zero bullets yields zero
// criteria for that section (not an error — the check-4 pass/fail
// decision is the caller's to make from the returned slice's length).
func ParseCriteria(markdown string) []Criterion {
	var criteria []Criterion
	inSection := false

	for _, line := range strings.Split(markdown, "\n") {
		if h1Pattern.MatchString(line) {
			inSection = false
			continue
		}
		if h2Pattern.MatchString(line) {
			inSection = sectionHeadingPattern.MatchString(line)
			continue
		}
		if !inSection {
			continue
		}
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			checked := strings.EqualFold(m[2], "x")
			criteria = append(criteria, Criterion{
				Text:    strings.TrimSpace(m[3]),
				Checked: checked,
			})
		}
	}
	return criteria
}

// ExtractSpecFromResponse pulls the generated spec markdown out of a model
// adapter's chat response (§4.6). It first tries the content between the
// first two "---" fence lines if that block starts with a markdown
// heading; otherwise it scans for the first line beginning with "# ",
// copies from there until a lone "---" closing marker, and trims trailing
// blank lines.
func ExtractSpecFromResponse(text string) string {
	lines := strings.Split(text, "\n")

	fenceIdx := make([]int, 0, 2)
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			fenceIdx = append(fenceIdx, i)
			if len(fenceIdx) == 2 {
				break
			}
		}
	}
	if len(fenceIdx) == 2 {
		block := lines[fenceIdx[0]+1 : fenceIdx[1]]
		if len(block) > 0 && strings.HasPrefix(strings.TrimSpace(block[0]), "#") {
			return trimTrailingBlank(strings.Join(block, "\n"))
		}
	}

	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	return trimTrailingBlank(strings.Join(lines[start:end], "\n"))
}

func trimTrailingBlank(s string) string {
	return strings.TrimRight(s, "\n\t ")
}
