// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/manglr/services/policy"
	"github.com/AleutianAI/manglr/services/policy/rules"
	"github.com/AleutianAI/manglr/services/resolver"
	"github.com/AleutianAI/manglr/services/stream"
)

// =============================================================================
// POLICY DUMP COMMAND
// =============================================================================

// PolicyDumpResult describes the active rule table for --json consumers.
type PolicyDumpResult struct {
	Source   string `json:"source"`
	Hash     string `json:"hash"`
	ByteSize int    `json:"byte_size"`
	Rules    int    `json:"rules"`
}

// runPolicyDump prints the active rule table and its SHA256 fingerprint,
// so operators can verify which version of the rules a binary or job
// config selects.
func runPolicyDump(cmd *cobra.Command, args []string) {
	started := time.Now()

	job, err := loadJob()
	if err != nil {
		os.Exit(OutputError(jsonOutput, "policy dump", "load config", err))
	}

	source := "embedded"
	data := rules.DefaultRules
	if job.Policy.Path != "" {
		source = job.Policy.Path
		if data, err = os.ReadFile(job.Policy.Path); err != nil {
			os.Exit(OutputError(jsonOutput, "policy dump", "read rule table", err))
		}
	}

	table, err := policy.Load(data)
	if err != nil {
		os.Exit(OutputError(jsonOutput, "policy dump", "load rule table", err))
	}

	hash := sha256.Sum256(data)

	if jsonOutput {
		result := PolicyDumpResult{
			Source:   source,
			Hash:     fmt.Sprintf("sha256:%x", hash),
			ByteSize: len(data),
			Rules:    len(table.Rules),
		}
		if err := OutputResult("policy dump", started, result); err != nil {
			os.Exit(CLIExitError)
		}
		os.Exit(CLIExitSuccess)
	}

	fmt.Printf("--- Rule Table (%s) ---\n", source)
	fmt.Printf("Rules: %d\n", len(table.Rules))
	fmt.Printf("SHA256 Fingerprint: %x\n", hash)
	fmt.Println("------------------------")
	os.Stdout.Write(data)
	os.Exit(CLIExitSuccess)
}

// =============================================================================
// POLICY TEST COMMAND
// =============================================================================

// PolicyTestResult reports the verdict for a synthetic record.
type PolicyTestResult struct {
	Tag     string            `json:"tag"`
	Attrs   map[string]string `json:"attrs,omitempty"`
	Kept    bool              `json:"kept"`
	Reason  string            `json:"reason,omitempty"`
	Rewrote map[string]string `json:"rewrote,omitempty"`
}

// runPolicyTest builds a one-off record from "attr=value" arguments and
// runs it through the bound rule table. Without --load-state the sets are
// empty, which still exercises unconditional drops and when-conditions.
func runPolicyTest(cmd *cobra.Command, args []string) {
	started := time.Now()
	log := newLogger("policy-test")
	defer log.Close()

	job, err := loadJob()
	if err != nil {
		os.Exit(OutputError(jsonOutput, "policy test", "load config", err))
	}

	st := resolver.NewState()
	if statePath != "" {
		if st, err = resolver.Load(statePath); err != nil {
			os.Exit(OutputError(jsonOutput, "policy test", "load state", err))
		}
	}

	engine, _, err := bindEngine(job, st, log)
	if err != nil {
		os.Exit(OutputError(jsonOutput, "policy test", "bind policy", err))
	}

	rec := &stream.Record{Tag: args[0]}
	for _, arg := range args[1:] {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			os.Exit(OutputError(jsonOutput, "policy test", "bad argument",
				fmt.Errorf("%q is not attr=value", arg)))
		}
		rec.Set(name, value)
	}

	before := make(map[string]string, len(rec.Attrs))
	for _, attr := range rec.Attrs {
		before[attr.Name] = attr.Value
	}

	verdict := engine.Apply(rec)

	result := PolicyTestResult{
		Tag:    rec.Tag,
		Attrs:  before,
		Kept:   verdict.Outcome == policy.Kept,
		Reason: verdict.Reason,
	}
	if result.Kept {
		for _, attr := range rec.Attrs {
			if before[attr.Name] != attr.Value {
				if result.Rewrote == nil {
					result.Rewrote = make(map[string]string)
				}
				result.Rewrote[attr.Name] = attr.Value
			}
		}
	}

	if jsonOutput {
		if err := OutputResult("policy test", started, result); err != nil {
			os.Exit(CLIExitError)
		}
		os.Exit(CLIExitSuccess)
	}

	if result.Kept {
		fmt.Printf("KEEP %s\n", rec.Tag)
		for name, value := range result.Rewrote {
			fmt.Printf("\tREWRITE %s => %s\n", name, value)
		}
	} else {
		fmt.Printf("DROP %s (%s)\n", rec.Tag, verdict.Reason)
	}
	os.Exit(CLIExitSuccess)
}
