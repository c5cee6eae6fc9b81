// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates .ralf/config.json, the global
// configuration shape from spec §6: model adapters, verifiers, selection
// strategy, and the completion promise text.
package config

// SelectionStrategy names how the scheduler picks among available models.
type SelectionStrategy string

const (
	SelectionRoundRobin SelectionStrategy = "round_robin"
	SelectionPriority   SelectionStrategy = "priority"
)

// RunWhen controls when a verifier runs relative to working-tree changes.
type RunWhen string

const (
	RunWhenOnChange RunWhen = "on_change"
	RunWhenAlways   RunWhen = "always"
)

// ModelConfig describes one model-adapter definition (spec §4.5).
type ModelConfig struct {
	Name                  string   `json:"name" validate:"required"`
	CommandArgv           []string `json:"command_argv" validate:"required,min=1"`
	TimeoutSeconds        uint     `json:"timeout_seconds" validate:"required"`
	RateLimitPatterns     []string `json:"rate_limit_patterns"`
	DefaultCooldownSeconds uint    `json:"default_cooldown_seconds" validate:"required"`

	// RequiresPTY marks an adapter that refuses to run against a plain
	// pipe and needs a pseudo-terminal allocated for its stdin/stdout.
	RequiresPTY bool `json:"requires_pty,omitempty"`
}

// VerifierConfig describes one verifier command definition.
type VerifierConfig struct {
	Name           string  `json:"name" validate:"required"`
	CommandArgv    []string `json:"command_argv" validate:"required,min=1"`
	TimeoutSeconds uint     `json:"timeout_seconds" validate:"required"`
	RunWhen        RunWhen  `json:"run_when" validate:"required,oneof=on_change always"`
}

// Config is the shape of .ralf/config.json.
type Config struct {
	SetupCompleted     bool               `json:"setup_completed"`
	ModelPriority      []string           `json:"model_priority"`
	ModelSelection     SelectionStrategy  `json:"model_selection" validate:"required,oneof=round_robin priority"`
	RequiredVerifiers  []string           `json:"required_verifiers"`
	CompletionPromise  string             `json:"completion_promise" validate:"required"`
	CheckpointCommits  bool               `json:"checkpoint_commits"`
	Models             []ModelConfig      `json:"models" validate:"dive"`
	Verifiers          []VerifierConfig   `json:"verifiers" validate:"dive"`

	// Secrets maps a name to a credential value referenced from argv as
	// "${SECRET:name}". Load reads it from config.json's "secrets" object
	// like any other field, and Save writes it back unchanged.
	Secrets map[string]string `json:"secrets,omitempty"`
}

// Default returns the config written by `ralf init`: no models or
// verifiers configured yet, setup not completed, the canonical default
// promise text.
func Default() *Config {
	return &Config{
		SetupCompleted:    false,
		ModelSelection:    SelectionRoundRobin,
		CompletionPromise: "COMPLETE",
	}
}

// PromiseTag is the exact substring the runner looks for in adapter
// stdout to declare an iteration successful.
func (c *Config) PromiseTag() string {
	return "<promise>" + c.CompletionPromise + "</promise>"
}

// VerifierNames returns the configured verifier names, for preflight
// check 6 (required verifiers subset of configured verifiers).
func (c *Config) VerifierNames() map[string]bool {
	names := make(map[string]bool, len(c.Verifiers))
	for _, v := range c.Verifiers {
		names[v.Name] = true
	}
	return names
}
