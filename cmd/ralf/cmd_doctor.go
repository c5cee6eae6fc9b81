// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ralfcli/ralf/internal/discovery"
)

var doctorJSON bool

// doctorCmd resolves every configured model adapter on PATH and sanity
// checks it with "<name> --help", per spec §4.7.
//
// # Examples
//
//	ralf doctor          # Human-readable table
//	ralf doctor --json   # Machine-readable for scripting
//
// # Exit Codes
//
//	0 - Every configured adapter was found and callable
//	1 - At least one adapter is missing or not callable
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Discover and sanity-check configured model adapters",
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output findings as JSON")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Models) == 0 {
		return fmt.Errorf("no models configured in %s", configPath())
	}

	adapters := make([]discovery.AdapterSpec, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		adapters = append(adapters, discovery.AdapterSpec{Name: m.Name, Argv: m.CommandArgv})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopSpinner := startSpinner("checking model adapters...")
	findings, err := discovery.DiscoverAll(ctx, adapters, 4)
	stopSpinner()
	if err != nil {
		return err
	}

	if doctorJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(findings)
	}

	allOK := true
	for _, f := range findings {
		switch {
		case f.Found && f.Callable:
			version := f.Version
			if version == "" {
				version = "unknown version"
			}
			printOK("%-16s %s (%s)", f.Name, f.Path, version)
		case f.Found:
			allOK = false
			printWarn("%-16s found at %s but not callable: %s", f.Name, f.Path, strings.Join(f.Issues, "; "))
		default:
			allOK = false
			printFail("%-16s %s", f.Name, strings.Join(f.Issues, "; "))
		}
	}

	if !allOK {
		return fmt.Errorf("one or more model adapters are unavailable")
	}
	return nil
}
