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

// TablesResult is the machine-readable summary of an ActiveObjects pass.
type TablesResult struct {
	RecordsIn  int    `json:"records_in"`
	RecordsOut int    `json:"records_out"`
	OutputPath string `json:"output_path,omitempty"`
}

// runTables is the CLI handler for "manglr tables". ActiveObjects exports
// need no scan pass: table handling is row-local, driven by the job
// config's clear globs and the shared user rewrite map.
func runTables(cmd *cobra.Command, args []string) {
	started := time.Now()
	log := newLogger("tables")
	defer log.Close()

	job, err := loadJob()
	if err != nil {
		os.Exit(OutputError(jsonOutput, "tables", "load config", err))
	}

	filter, err := mangler.NewTableFilter(
		mangler.UserTableRules(job.Entities.RewriteUsers),
		job.ActiveObjects.ClearTables,
		log,
	)
	if err != nil {
		os.Exit(OutputError(jsonOutput, "tables", "build table filter", err))
	}

	namespace := job.ActiveObjects.Namespace
	if namespace == "" {
		namespace = mangler.DataNamespace
	}
	run := mangler.New(filter, mangler.Config{
		// Data tables are few but enormous; report every record.
		ProgressInterval: 10,
		Namespace:        namespace,
	}, log)

	var stats *mangler.Stats
	err = withOutput(outputPath, func(w io.Writer) error {
		var runErr error
		stats, runErr = run.Run(stream.Source(inputPath), w)
		return runErr
	})
	if err != nil {
		os.Exit(OutputError(jsonOutput, "tables", "filter pass", err))
	}

	if jsonOutput {
		result := TablesResult{
			RecordsIn:  stats.Seen,
			RecordsOut: stats.Kept,
			OutputPath: outputPath,
		}
		if err := OutputResult("tables", started, result); err != nil {
			os.Exit(CLIExitError)
		}
	}
	os.Exit(CLIExitSuccess)
}
