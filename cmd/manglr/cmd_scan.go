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
)

// ScanResult is the machine-readable summary of a scan pass.
type ScanResult struct {
	Records      int            `json:"records"`
	Projects     int            `json:"projects"`
	Users        int            `json:"users"`
	ProjectUsers int            `json:"project_users"`
	Workflows    int            `json:"workflows"`
	SchemeIDs    map[string]int `json:"scheme_ids"`
	StatePath    string         `json:"state_path,omitempty"`
}

// runScan is the CLI handler for "manglr scan". It resolves the keep-state
// for an entities export and optionally writes the snapshot for later
// filter and verify runs.
func runScan(cmd *cobra.Command, args []string) {
	started := time.Now()
	log := newLogger("scan")
	defer log.Close()

	job, err := loadJob()
	if err != nil {
		os.Exit(OutputError(jsonOutput, "scan", "load config", err))
	}

	st, err := resolveState(job, log)
	if err != nil {
		os.Exit(OutputError(jsonOutput, "scan", "scan input", err))
	}

	if savePath != "" {
		if err := st.Save(savePath); err != nil {
			os.Exit(OutputError(jsonOutput, "scan", "save state", err))
		}
		log.Info("state saved", "path", savePath)
	}

	result := ScanResult{
		Records:      st.ElementCount,
		Projects:     st.ProjectIDs.Len(),
		Users:        st.AllUsers.Len(),
		ProjectUsers: st.ProjectUsers.Len(),
		Workflows:    st.Workflows.Len(),
		SchemeIDs:    make(map[string]int, len(st.SchemeIDs)),
		StatePath:    savePath,
	}
	for category, ids := range st.SchemeIDs {
		result.SchemeIDs[category] = ids.Len()
	}

	if jsonOutput {
		if err := OutputResult("scan", started, result); err != nil {
			os.Exit(CLIExitError)
		}
	} else {
		log.Info("scan complete",
			"records", result.Records,
			"projects", result.Projects,
			"users", result.Users,
			"project_users", result.ProjectUsers,
			"workflows", result.Workflows)
	}
	os.Exit(CLIExitSuccess)
}
