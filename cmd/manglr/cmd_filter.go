// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/manglr/services/mangler"
	"github.com/AleutianAI/manglr/services/stream"
)

// FilterResult is the machine-readable summary of a filter pass.
type FilterResult struct {
	RecordsIn       int            `json:"records_in"`
	RecordsOut      int            `json:"records_out"`
	KeptByTag       map[string]int `json:"kept_by_tag"`
	PolicyConflicts int            `json:"policy_conflicts"`
	VerifyFlagged   int            `json:"verify_flagged,omitempty"`
	OutputPath      string         `json:"output_path,omitempty"`
}

// runFilter is the CLI handler for "manglr filter". The input must be a
// re-openable path: it is read once by the scan (unless a state snapshot
// is loaded) and again by the filter pass.
func runFilter(cmd *cobra.Command, args []string) {
	started := time.Now()
	log := newLogger("filter")
	defer log.Close()

	job, err := loadJob()
	if err != nil {
		os.Exit(OutputError(jsonOutput, "filter", "load config", err))
	}

	st, err := resolveState(job, log)
	if err != nil {
		os.Exit(OutputError(jsonOutput, "filter", "resolve state", err))
	}

	if savePath != "" {
		if err := st.Save(savePath); err != nil {
			os.Exit(OutputError(jsonOutput, "filter", "save state", err))
		}
		log.Info("state saved", "path", savePath)
	}

	engine, registry, err := bindEngine(job, st, log)
	if err != nil {
		os.Exit(OutputError(jsonOutput, "filter", "bind policy", err))
	}

	result := FilterResult{OutputPath: outputPath, PolicyConflicts: engine.Conflicts()}

	if filterVerify {
		report, err := mangler.Verify(stream.Source(inputPath), registry.RejectedUsers(), log)
		if err != nil {
			os.Exit(OutputError(jsonOutput, "filter", "verify input", err))
		}
		report.Report(log)
		result.VerifyFlagged = report.Flagged
	}

	keep := job.Entities.KeepConfig()
	hooks := []mangler.Hook{
		mangler.ModifyUsers(keep.ModifyUsers, log),
		mangler.RewriteProperties(st.OSProperties, keep.RewriteOSPropertyValues, log),
	}

	run := mangler.New(
		mangler.NewEntityFilter(engine, hooks...),
		mangler.Config{
			ProgressInterval: job.ProgressInterval,
			ExpectedRecords:  st.ElementCount,
		},
		log,
	)

	var stats *mangler.Stats
	err = withOutput(outputPath, func(w io.Writer) error {
		var runErr error
		stats, runErr = run.Run(stream.Source(inputPath), w)
		return runErr
	})
	if err != nil {
		os.Exit(OutputError(jsonOutput, "filter", "filter pass", err))
	}

	result.RecordsIn = stats.Seen
	result.RecordsOut = stats.Kept
	result.KeptByTag = stats.KeptByTag

	if jsonOutput {
		if err := OutputResult("filter", started, result); err != nil {
			os.Exit(CLIExitError)
		}
	}
	os.Exit(CLIExitSuccess)
}
