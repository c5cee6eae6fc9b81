// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package threadstore

import (
	"encoding/json"
	"fmt"

	"github.com/ralfcli/ralf/internal/ralferr"
	"github.com/ralfcli/ralf/internal/threadmodel"
)

// CurrentSchemaVersion is the highest thread.json schema version this
// binary understands. Load rejects files with a greater version.
const CurrentSchemaVersion = 1

// encodeThreadFile renders a Thread as the flat schema-versioned object
// described in spec §6: schema_version alongside every Thread field, not
// nested under it.
func encodeThreadFile(t *threadmodel.Thread) ([]byte, error) {
	threadBytes, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding thread: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(threadBytes, &fields); err != nil {
		return nil, fmt.Errorf("flattening thread fields: %w", err)
	}

	versionBytes, err := json.Marshal(CurrentSchemaVersion)
	if err != nil {
		return nil, err
	}
	fields["schema_version"] = versionBytes

	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding thread file: %w", err)
	}
	return out, nil
}

// decodeThreadFile parses a schema-versioned thread.json, rejecting a
// missing schema_version as malformed and a too-new one as unsupported.
func decodeThreadFile(data []byte) (*threadmodel.Thread, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, ralferr.Wrap(ralferr.KindParse, fmt.Errorf("parsing thread file: %w", err))
	}

	versionRaw, ok := fields["schema_version"]
	if !ok {
		return nil, ralferr.New(ralferr.KindParse, "thread file missing schema_version")
	}
	var version int
	if err := json.Unmarshal(versionRaw, &version); err != nil {
		return nil, ralferr.Wrap(ralferr.KindParse, fmt.Errorf("parsing schema_version: %w", err))
	}
	if version > CurrentSchemaVersion {
		return nil, ralferr.Wrap(ralferr.KindUnsupportedSchema,
			fmt.Errorf("thread file schema_version %d is newer than supported %d", version, CurrentSchemaVersion))
	}

	delete(fields, "schema_version")
	remaining, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("re-encoding thread fields: %w", err)
	}

	var t threadmodel.Thread
	if err := json.Unmarshal(remaining, &t); err != nil {
		return nil, ralferr.Wrap(ralferr.KindParse, fmt.Errorf("decoding thread: %w", err))
	}
	return &t, nil
}
