// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package threadstore

import (
	"regexp"

	"github.com/ralfcli/ralf/internal/ralferr"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateID rejects any id that is empty or contains a byte outside
// [A-Za-z0-9_-] — which also rejects "/", "\", and ".." since none of
// those bytes are in the allowed set. Every store and git-branch-naming
// boundary calls this before touching the filesystem.
func ValidateID(id string) error {
	if id == "" || !idPattern.MatchString(id) {
		return ralferr.New(ralferr.KindInvalidID, "invalid thread id: "+id)
	}
	return nil
}
