// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rules

import (
	"crypto/sha256"
	"testing"

	"github.com/AleutianAI/manglr/services/policy"
)

func TestEmbeddedRulesIntegrity(t *testing.T) {
	// 1. Ensure the embedded slice is not empty
	if len(DefaultRules) == 0 {
		t.Fatal("Embedded rules data is empty. Did the build fail to include 'default_rules.yaml'?")
	}

	// 2. Ensure the default table parses and validates
	table, err := policy.Load(DefaultRules)
	if err != nil {
		t.Fatalf("Embedded rules failed to load: %v", err)
	}
	if len(table.Rules) == 0 {
		t.Fatal("Embedded rule table contains no rules")
	}

	// 3. Ensure we can calculate a hash for the policy dump command
	hash := sha256.Sum256(DefaultRules)
	if len(hash) != 32 {
		t.Errorf("Hash calculation failed, expected 32 bytes, got %d", len(hash))
	}
	t.Logf("Current Rules Hash: %x", hash)
}

func TestDefaultRulesCoverKnownCategories(t *testing.T) {
	table, err := policy.Load(DefaultRules)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	covered := make(map[string]bool)
	for _, rule := range table.Rules {
		for _, tag := range rule.Tags {
			covered[tag] = true
		}
	}

	for _, tag := range []string{
		"AuditLog", "User", "ApplicationUser", "Group", "Membership",
		"Issue", "Project", "Directory", "OSPropertyEntry",
		"WorkflowScheme", "Workflow", "FieldScreen", "FieldLayout",
		"FieldConfigScheme", "IssueType", "Status",
	} {
		if !covered[tag] {
			t.Errorf("default rules do not cover %s", tag)
		}
	}
}
