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
	"github.com/ralfcli/ralf/internal/gitsafety"
	"github.com/ralfcli/ralf/internal/threadstore"
	"github.com/ralfcli/ralf/pkg/logging"
)

// --- Global command flags ---
var (
	baseDirFlag string // --dir, the ".ralf/" state directory
	repoFlag    string // --repo, the git working tree ralf drives
)

var rootCmd = &cobra.Command{
	Use:   "ralf",
	Short: "Drive a task through the thread lifecycle with model-adapter subprocesses",
	Long: `ralf turns a task into a spec, runs it through preflight, and iterates a
model adapter against a git working tree until the adapter declares the
task complete or the run exhausts its iteration/wall-clock bounds.

With no subcommand, ralf opens the interactive dashboard (equivalent to
"ralf tui").`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseDirFlag, "dir", ".ralf", "ralf state directory")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", ".", "git working tree ralf operates on")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(tuiCmd)
}

// requireRalfDir enforces spec §6's exit-code contract: every subcommand
// but init must fail non-zero when the state directory is missing.
func requireRalfDir() error {
	info, err := os.Stat(baseDirFlag)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("no %s directory found — run `ralf init` first", baseDirFlag)
	}
	return nil
}

func configPath() string {
	return filepath.Join(baseDirFlag, "config.json")
}

func loadConfig() (*config.Config, error) {
	if err := requireRalfDir(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func openStore() *threadstore.Store {
	return threadstore.New(baseDirFlag, logging.Discard())
}

func openGit() *gitsafety.Safety {
	return gitsafety.New(repoFlag, logging.Discard())
}
