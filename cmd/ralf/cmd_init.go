// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ralfcli/ralf/internal/config"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var initForce bool // Recreate .ralf/ even if it already exists

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// initCmd creates the .ralf/ state tree and a default PROMPT.md.
//
// # Description
//
// Initializes the ralf state directory: config.json with its defaults
// (round-robin selection, no models or verifiers configured yet, the
// canonical "COMPLETE" promise text), the threads/ and runs/ directories,
// and a starter PROMPT.md the operator edits before running preflight.
//
// # Examples
//
//	ralf init                 # Initialize .ralf/ in the current directory
//	ralf init --dir .ralf2    # Initialize at an alternate path
//	ralf init --force         # Recreate config.json, keeping existing threads
//
// # Exit Codes
//
//	0 - Success
//	1 - config.json already exists and --force was not given
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .ralf/ state tree and a default PROMPT.md",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Recreate config.json even if .ralf/ already exists")
}

const defaultPromptTemplate = `# Task

Describe the task for the model adapter here.

When the task is complete, the adapter's response must include:

<promise>COMPLETE</promise>
`

func runInit(cmd *cobra.Command, args []string) error {
	cfgPath := configPath()

	if _, err := os.Stat(cfgPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to recreate it)", cfgPath)
	}

	for _, dir := range []string{baseDirFlag, filepath.Join(baseDirFlag, "threads"), filepath.Join(baseDirFlag, "runs")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if err := config.Save(cfgPath, config.Default()); err != nil {
		return fmt.Errorf("writing %s: %w", cfgPath, err)
	}

	promptPath := filepath.Join(baseDirFlag, "..", "PROMPT.md")
	if _, err := os.Stat(promptPath); os.IsNotExist(err) {
		if err := os.WriteFile(promptPath, []byte(defaultPromptTemplate), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", promptPath, err)
		}
	}

	printOK("initialized %s", baseDirFlag)
	printDim("edit PROMPT.md, then add model adapters to %s before running preflight", cfgPath)
	return nil
}
