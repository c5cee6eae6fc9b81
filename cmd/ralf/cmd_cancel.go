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

	"github.com/ralfcli/ralf/internal/runner"
)

// cancelCmd requests cancellation of the active run by dropping a
// sentinel file that a running `ralf run` polls for (cross-process, since
// cancel is invoked from a separate terminal than the blocking run loop).
//
// # Exit Codes
//
//	0 - A cancel request was recorded against an active run
//	1 - No active run (state.json shows Idle/Completed/Cancelled/Failed)
var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Request cancellation of the active run",
	RunE:  runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	if err := requireRalfDir(); err != nil {
		return err
	}

	state, err := runner.LoadState(filepath.Join(baseDirFlag, "state.json"))
	if err != nil {
		return err
	}
	if state.Status != runner.StatusRunning {
		return fmt.Errorf("no active run (status is %s)", state.Status)
	}

	path := filepath.Join(baseDirFlag, "cancel.request")
	if err := os.WriteFile(path, []byte(state.RunID), 0o644); err != nil {
		return fmt.Errorf("writing cancel request: %w", err)
	}

	printOK("cancel requested for run %s", state.RunID)
	return nil
}
