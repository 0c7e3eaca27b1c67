// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/manglr/services/mangler"
	"github.com/AleutianAI/manglr/services/stream"
)

// VerifyResult is the machine-readable summary of a leak scan.
type VerifyResult struct {
	Records      int            `json:"records"`
	Flagged      int            `json:"flagged"`
	FlaggedByTag map[string]int `json:"flagged_by_tag,omitempty"`
	Clean        bool           `json:"clean"`
}

// runVerify is the CLI handler for "manglr verify".
//
// # Exit Codes
//
//   - 0: No rejected identifier found
//   - 1: At least one record references a rejected identifier
//   - 2: Error
func runVerify(cmd *cobra.Command, args []string) {
	started := time.Now()
	log := newLogger("verify")
	defer log.Close()

	job, err := loadJob()
	if err != nil {
		os.Exit(OutputError(jsonOutput, "verify", "load config", err))
	}

	st, err := resolveState(job, log)
	if err != nil {
		os.Exit(OutputError(jsonOutput, "verify", "resolve state", err))
	}

	registry := st.Registry(job.Entities.KeepConfig())
	report, err := mangler.Verify(stream.Source(inputPath), registry.RejectedUsers(), log)
	if err != nil {
		os.Exit(OutputError(jsonOutput, "verify", "verify pass", err))
	}
	report.Report(log)

	if jsonOutput {
		result := VerifyResult{
			Records:      report.Total,
			Flagged:      report.Flagged,
			FlaggedByTag: report.FlaggedByTag,
			Clean:        report.Clean(),
		}
		if err := OutputResult("verify", started, result); err != nil {
			os.Exit(CLIExitError)
		}
	}

	if !report.Clean() {
		os.Exit(CLIExitFindings)
	}
	os.Exit(CLIExitSuccess)
}
