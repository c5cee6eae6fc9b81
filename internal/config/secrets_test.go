// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecretStoreResolvesArgv(t *testing.T) {
	store := NewSecretStore(map[string]string{"api_key": "sk-test-123"})

	argv, destroy, err := store.ResolveArgv([]string{"--key=${SECRET:api_key}", "--flag"})
	require.NoError(t, err)
	defer destroy()

	require.Equal(t, []string{"--key=sk-test-123", "--flag"}, argv)
}

func TestSecretStoreMissingSecretErrors(t *testing.T) {
	store := NewSecretStore(map[string]string{})
	_, _, err := store.ResolveArgv([]string{"${SECRET:missing}"})
	require.Error(t, err)
}

func TestSecretStoreLeavesPlainArgsAlone(t *testing.T) {
	store := NewSecretStore(nil)
	argv, destroy, err := store.ResolveArgv([]string{"plain", "--flag=value"})
	require.NoError(t, err)
	defer destroy()
	require.Equal(t, []string{"plain", "--flag=value"}, argv)
}
