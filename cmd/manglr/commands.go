// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	logLevel   string
	logDir     string
	jsonOutput bool
	quiet      bool

	inputPath  string
	outputPath string
	statePath  string
	savePath   string

	filterVerify bool

	rootCmd = &cobra.Command{
		Use:   "manglr",
		Short: "A cli to filter and anonymize large Jira XML backup exports",
		Long: `manglr streams record-oriented XML backup exports (entities.xml,
				activeobjects.xml), drops and rewrites records per a declarative
				rule table, and verifies that no rejected identifier survives.
				A scan pass resolves the transitive closure of scheme references
				so only configuration reachable from kept projects remains.`,
	}

	// --- Entities ---
	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Scan an entities export and save the resolved keep-state",
		Run:   runScan, // Defined in cmd_scan.go
	}

	filterCmd = &cobra.Command{
		Use:   "filter",
		Short: "Filter an entities export through the rule table",
		Long: `filter scans the input (or loads a saved state), then streams the
				input a second time, writing surviving records to the output.
				With --verify, the input is checked for rejected identifiers
				before filtering.`,
		Run: runFilter, // Defined in cmd_filter.go
	}

	verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Report records carrying rejected user identifiers",
		Long: `verify streams a document and logs every record with an attribute
				whose value is a rejected user identifier. Run it against a
				filtered output to confirm nothing leaked; the exit code is 1
				if anything did.`,
		Run: runVerify, // Defined in cmd_verify.go
	}

	// --- ActiveObjects ---
	tablesCmd = &cobra.Command{
		Use:   "tables",
		Short: "Filter an ActiveObjects export table by table",
		Long: `tables drops data tables matching the clear_tables globs and
				rewrites user identifiers inside the board, audit, rapid-view,
				and statistics tables.`,
		Run: runTables, // Defined in cmd_tables.go
	}

	// --- Policy ---
	policyCmd = &cobra.Command{
		Use:   "policy",
		Short: "Inspect and exercise the filtering rule table",
	}

	policyDumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Print the active rule table with its SHA256 fingerprint",
		Run:   runPolicyDump, // Defined in cmd_policy.go
	}

	policyTestCmd = &cobra.Command{
		Use:   "test TAG [attr=value ...]",
		Short: "Evaluate a synthetic record against the rule table",
		Args:  cobra.MinimumNArgs(1),
		Run:   runPolicyTest, // Defined in cmd_policy.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML job config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Also write JSON logs to this directory")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON results on stdout")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress stderr logging")

	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&inputPath, "input", "", "Path to entities.xml")
	scanCmd.Flags().StringVar(&savePath, "save-state", "", "Write the resolved state snapshot to this path")
	scanCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringVar(&inputPath, "input", "", "Path to entities.xml (must be re-openable, not a pipe)")
	filterCmd.Flags().StringVar(&outputPath, "output", "", "Output path; '-' for stdout")
	filterCmd.Flags().StringVar(&statePath, "load-state", "", "Load a state snapshot instead of scanning")
	filterCmd.Flags().StringVar(&savePath, "save-state", "", "Write the resolved state snapshot to this path")
	filterCmd.Flags().BoolVar(&filterVerify, "verify", false, "Report rejected identifiers in the input before filtering")
	filterCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&inputPath, "input", "", "Path to the document to check")
	verifyCmd.Flags().StringVar(&statePath, "load-state", "", "State snapshot from a prior scan")
	verifyCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(tablesCmd)
	tablesCmd.Flags().StringVar(&inputPath, "input", "", "Path to activeobjects.xml")
	tablesCmd.Flags().StringVar(&outputPath, "output", "", "Output path; '-' for stdout")
	tablesCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyDumpCmd)
	policyCmd.AddCommand(policyTestCmd)
	policyTestCmd.Flags().StringVar(&statePath, "load-state", "", "State snapshot giving the sets real contents")
}
