// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import "github.com/ralfcli/ralf/internal/config"

// deliveryModeNames mirrors internal/runner's deliveryByName: spec.md names
// no canonical adapters, so "claude" and "gemini" are treated as stdin
// delivery and "codex" as argv delivery, matching the runner's own choice.
var deliveryModeNames = map[string]string{
	"claude": "stdin",
	"codex":  "argv",
	"gemini": "stdin",
}

func deliveryModeName(adapter string) string {
	if mode, ok := deliveryModeNames[adapter]; ok {
		return mode
	}
	return "stdin"
}

// resolveArgv substitutes "${SECRET:name}" placeholders in argv via
// secrets, returning a no-op destroy func when secrets is nil so callers
// never need a nil check of their own. Shared by probe and chat, the two
// commands that hand an adapter's command_argv to exec outside the
// runner loop.
func resolveArgv(secrets *config.SecretStore, argv []string) ([]string, func(), error) {
	if secrets == nil {
		return argv, func() {}, nil
	}
	return secrets.ResolveArgv(argv)
}
