// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chatsession

import "github.com/ralfcli/ralf/internal/specdoc"

// DraftHasPromise reports whether draft contains both a "<promise>" and a
// "</promise>" marker.
func DraftHasPromise(draft string) bool { return specdoc.DraftHasPromise(draft) }

// ExtractDraftPromise returns the contents of the first "<promise>...
// </promise>" pair in draft.
func ExtractDraftPromise(draft string) (string, bool) { return specdoc.ExtractDraftPromise(draft) }

// ExtractSpecFromResponse pulls the generated spec markdown out of an
// adapter's chat response, per spec §4.6.
func ExtractSpecFromResponse(text string) string { return specdoc.ExtractSpecFromResponse(text) }
