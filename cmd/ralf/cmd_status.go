// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ralfcli/ralf/internal/runner"
)

var statusJSON bool

// statusCmd reports the current run state persisted at .ralf/state.json
// (run id, iteration, status, cooldowns), without needing a running
// process — state is file-backed so status works after a crash too.
//
// # Exit Codes
//
//	0 - Status read successfully (even if Idle)
//	1 - .ralf/ or config.json is missing
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the current run's status",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status as JSON")
}

type statusReport struct {
	State     *runner.State `json:"state"`
	Cooldowns []string      `json:"cooling_down"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	state, err := runner.LoadState(filepath.Join(baseDirFlag, "state.json"))
	if err != nil {
		return err
	}
	cooldowns, err := runner.LoadCooldowns(filepath.Join(baseDirFlag, "cooldowns.json"))
	if err != nil {
		return err
	}

	report := statusReport{State: state, Cooldowns: cooldowns.Cooling(time.Now())}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("run:       %s\n", state.RunID)
	fmt.Printf("status:    %s\n", state.Status)
	fmt.Printf("iteration: %d\n", state.Iteration)
	if len(report.Cooldowns) > 0 {
		printWarn("cooling down: %v", report.Cooldowns)
	}
	return nil
}
