// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package threadmodel

import (
	"encoding/json"
	"time"
)

// jsonTime decodes a time.Time from an RFC3339 string, JSON null, or an
// empty string (the last two leave the zero time), since encoding/json's
// default time.Time decoding rejects an empty string.
type jsonTime struct {
	Time time.Time
}

func (t *jsonTime) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t jsonTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
