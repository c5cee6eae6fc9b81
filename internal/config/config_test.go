// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Models = []ModelConfig{
		{Name: "claude", CommandArgv: []string{"claude", "-p"}, TimeoutSeconds: 120, DefaultCooldownSeconds: 60},
	}
	cfg.Verifiers = []VerifierConfig{
		{Name: "tests", CommandArgv: []string{"go", "test", "./..."}, TimeoutSeconds: 300, RunWhen: RunWhenAlways},
	}
	cfg.RequiredVerifiers = []string{"tests"}

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Models[0].Name, loaded.Models[0].Name)
	require.Equal(t, cfg.PromiseTag(), loaded.PromiseTag())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"model_selection": "bogus", "completion_promise": "COMPLETE"}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestPromiseTagDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "<promise>COMPLETE</promise>", cfg.PromiseTag())
}

func TestVerifierNames(t *testing.T) {
	cfg := Default()
	cfg.Verifiers = []VerifierConfig{{Name: "tests"}, {Name: "lint"}}
	names := cfg.VerifierNames()
	require.True(t, names["tests"])
	require.True(t, names["lint"])
	require.False(t, names["missing"])
}
