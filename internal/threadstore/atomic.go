// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package threadstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ralfcli/ralf/internal/ralferr"
)

// atomicWrite writes data to path using the write-temp → fsync → rename
// discipline: bytes land in a sibling temp file whose name encodes the
// current time and pid, the temp file is fsynced, then renamed over path.
// On any failure the temp file is best-effort removed.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ralferr.Wrap(ralferr.KindIO, fmt.Errorf("creating dir %s: %w", dir, err))
	}

	tmpName := filepath.Join(dir, fmt.Sprintf(".%s.%d.%d.tmp", filepath.Base(path), time.Now().UnixNano(), os.Getpid()))

	f, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return ralferr.Wrap(ralferr.KindIO, fmt.Errorf("creating temp file: %w", err))
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpName)
		return ralferr.Wrap(ralferr.KindIO, fmt.Errorf("writing temp file: %w", err))
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpName)
		return ralferr.Wrap(ralferr.KindIO, fmt.Errorf("fsyncing temp file: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpName)
		return ralferr.Wrap(ralferr.KindIO, fmt.Errorf("closing temp file: %w", err))
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return ralferr.Wrap(ralferr.KindIO, fmt.Errorf("renaming temp file into place: %w", err))
	}
	return nil
}
