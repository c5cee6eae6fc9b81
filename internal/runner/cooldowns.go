// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// CooldownEntry records that a model adapter is unavailable until Expiry.
// An entry whose Expiry is in the past is equivalent to absent.
type CooldownEntry struct {
	Expiry     time.Time `json:"expiry"`
	Reason     string    `json:"reason"`
	ObservedAt time.Time `json:"observed_at"`
}

// Cooldowns is the model-name-keyed cooldown map, persisted to
// cooldowns.json (spec §6).
type Cooldowns struct {
	entries map[string]CooldownEntry
}

// NewCooldowns returns an empty cooldown set.
func NewCooldowns() *Cooldowns {
	return &Cooldowns{entries: make(map[string]CooldownEntry)}
}

// Set stores a cooldown of seconds duration for model, observed now.
func (c *Cooldowns) Set(model string, seconds int, reason string, now time.Time) {
	c.entries[model] = CooldownEntry{
		Expiry:     now.Add(time.Duration(seconds) * time.Second),
		Reason:     reason,
		ObservedAt: now,
	}
}

// IsCooling reports whether model's cooldown entry has not yet expired.
// A race that observes an entry exactly at its expiry treats it as
// expired (strict greater-than).
func (c *Cooldowns) IsCooling(model string, now time.Time) bool {
	e, ok := c.entries[model]
	if !ok {
		return false
	}
	return e.Expiry.After(now)
}

// ExpireStale drops every entry whose expiry is not after now.
func (c *Cooldowns) ExpireStale(now time.Time) {
	for name, e := range c.entries {
		if !e.Expiry.After(now) {
			delete(c.entries, name)
		}
	}
}

// EarliestExpiry returns the soonest expiry among active (non-expired)
// entries, driving the model-selection sleep.
func (c *Cooldowns) EarliestExpiry(now time.Time) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, e := range c.entries {
		if !e.Expiry.After(now) {
			continue
		}
		if !found || e.Expiry.Before(earliest) {
			earliest = e.Expiry
			found = true
		}
	}
	return earliest, found
}

// Cooling returns the names of every model with an unexpired cooldown
// entry as of now, for `ralf status` reporting.
func (c *Cooldowns) Cooling(now time.Time) []string {
	var names []string
	for name, e := range c.entries {
		if e.Expiry.After(now) {
			names = append(names, name)
		}
	}
	return names
}

// Available filters candidates down to those not currently cooling.
func (c *Cooldowns) Available(candidates []string, now time.Time) []string {
	available := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if !c.IsCooling(name, now) {
			available = append(available, name)
		}
	}
	return available
}

type cooldownsFile struct {
	Entries map[string]CooldownEntry `json:"entries"`
}

// LoadCooldowns reads cooldowns.json, tolerating a missing file by
// returning an empty set.
func LoadCooldowns(path string) (*Cooldowns, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewCooldowns(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("runner: reading cooldowns: %w", err)
	}
	var f cooldownsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("runner: decoding cooldowns: %w", err)
	}
	if f.Entries == nil {
		f.Entries = make(map[string]CooldownEntry)
	}
	return &Cooldowns{entries: f.Entries}, nil
}

// Save persists c atomically (write-temp, fsync, rename) to path.
func (c *Cooldowns) Save(path string) error {
	data, err := json.MarshalIndent(cooldownsFile{Entries: c.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("runner: encoding cooldowns: %w", err)
	}
	return atomicWriteFile(path, data)
}
