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
	"time"

	"github.com/spf13/cobra"

	"github.com/ralfcli/ralf/internal/config"
	"github.com/ralfcli/ralf/internal/discovery"
)

var (
	probeJSON       bool
	probeModel      string
	probeTimeoutSec int
)

// probeCmd sends the fixed, side-effect-free probe prompt to one or every
// configured adapter and classifies the response (spec §4.7).
//
// # Examples
//
//	ralf probe                        # Probe every configured adapter
//	ralf probe --model claude          # Probe a single adapter
//	ralf probe --json --timeout 20     # Machine-readable, custom timeout
//
// # Exit Codes
//
//	0 - Every probed adapter returned "success"
//	1 - At least one probed adapter returned a non-success outcome
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Send a live probe prompt to model adapters and classify the result",
	RunE:  runProbe,
}

func init() {
	probeCmd.Flags().BoolVar(&probeJSON, "json", false, "Output results as JSON")
	probeCmd.Flags().StringVar(&probeModel, "model", "", "Probe only this adapter name")
	probeCmd.Flags().IntVar(&probeTimeoutSec, "timeout", 30, "Per-adapter probe timeout in seconds")
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var targets []config.ModelConfig
	for _, m := range cfg.Models {
		if probeModel != "" && m.Name != probeModel {
			continue
		}
		targets = append(targets, m)
	}
	if len(targets) == 0 {
		if probeModel != "" {
			return fmt.Errorf("model %q not found in %s", probeModel, configPath())
		}
		return fmt.Errorf("no models configured in %s", configPath())
	}

	prober := discovery.NewProber(1, 2)
	timeout := time.Duration(probeTimeoutSec) * time.Second
	ctx := context.Background()

	var secrets *config.SecretStore
	if len(cfg.Secrets) > 0 {
		secrets = config.NewSecretStore(cfg.Secrets)
	}

	var results []discovery.ProbeResult
	allOK := true
	for _, m := range targets {
		argv, destroySecrets, err := resolveArgv(secrets, m.CommandArgv)
		if err != nil {
			return fmt.Errorf("resolving secrets for %s: %w", m.Name, err)
		}

		stopSpinner := startSpinner("probing " + m.Name + "...")
		mode := discovery.DeliveryMode(deliveryModeName(m.Name))
		res := prober.Probe(ctx, m.Name, argv, mode, timeout)
		destroySecrets()
		stopSpinner()
		if res.Outcome != discovery.OutcomeSuccess {
			allOK = false
		}
		results = append(results, res)
	}

	if probeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, res := range results {
		switch res.Outcome {
		case discovery.OutcomeSuccess:
			printOK("%-16s success", res.Name)
		case discovery.OutcomeRateLimited:
			msg := "rate limited"
			if res.ResetTime != "" {
				msg += " (resets " + res.ResetTime + ")"
			}
			printWarn("%-16s %s", res.Name, msg)
		case discovery.OutcomeNeedsAuth:
			printWarn("%-16s needs authentication", res.Name)
		case discovery.OutcomeTimeout:
			printFail("%-16s timed out", res.Name)
		default:
			printFail("%-16s %s", res.Name, res.Message)
		}
	}

	if !allOK {
		return fmt.Errorf("one or more adapters did not return success")
	}
	return nil
}
