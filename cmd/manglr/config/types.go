// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"github.com/AleutianAI/manglr/services/resolver"
)

// JobConfig is the per-run YAML job file. It carries the identity policy
// (who survives, who gets renamed) and run-level knobs; the rule table
// deciding per-category behavior lives in its own file (or the embedded
// default).
type JobConfig struct {
	Entities      EntitiesConfig      `yaml:"entities"`
	ActiveObjects ActiveObjectsConfig `yaml:"activeobjects"`
	Policy        PolicyConfig        `yaml:"policy"`

	// ProgressInterval is how many records pass between progress log
	// lines. Defaults to 10000.
	ProgressInterval int `yaml:"progress_interval" validate:"gte=0"`
}

// EntitiesConfig is the identity policy for the entities document.
type EntitiesConfig struct {
	// KeepProjectUsers keeps every user referenced as a project role
	// actor, in addition to KeepUsers.
	KeepProjectUsers bool `yaml:"keep_project_users"`

	// KeepUsers survive regardless of project membership.
	KeepUsers []string `yaml:"keep_users"`

	// DropUsers are removed from the keep set last, overriding every
	// other addition.
	DropUsers []string `yaml:"drop_users"`

	// RewriteUsers maps old user names to replacements. Sources are
	// implicitly kept.
	RewriteUsers map[string]string `yaml:"rewrite_users"`

	// KeepGroups survive; absent means group filtering is disabled.
	KeepGroups []string `yaml:"keep_groups"`

	// ModifyUsers overrides attributes on surviving User records, keyed
	// by userName.
	ModifyUsers map[string]map[string]string `yaml:"modify_users"`

	// RewriteDirectories maps old directory IDs to replacements; absent
	// means directory filtering is disabled.
	RewriteDirectories map[string]string `yaml:"rewrite_directories"`

	// DropOSProperty are glob patterns over the "entity/key" spelling of
	// OSProperty entries; matching entries are dropped.
	DropOSProperty []string `yaml:"drop_osproperty"`

	// RewriteOSProperty maps an "entity/key" spelling to the replacement
	// value written into the matching OSProperty value rows.
	RewriteOSProperty map[string]string `yaml:"rewrite_osproperty"`
}

// ActiveObjectsConfig is the policy for the ActiveObjects document.
type ActiveObjectsConfig struct {
	// ClearTables are glob patterns over table names; matching data
	// tables are dropped whole.
	ClearTables []string `yaml:"clear_tables"`

	// Namespace overrides the default namespace stamped onto the output
	// root. Empty selects the standard ActiveObjects namespace.
	Namespace string `yaml:"namespace"`
}

// PolicyConfig selects the rule table and its evaluation mode.
type PolicyConfig struct {
	// Path points at an external rule table; empty selects the embedded
	// default.
	Path string `yaml:"path"`

	// RewriteMode is lenient (default: an unmapped value passes
	// unchanged) or strict (an unmapped non-empty value drops the
	// record).
	RewriteMode string `yaml:"rewrite_mode" validate:"omitempty,oneof=lenient strict"`
}

// Strict reports whether strict rewrite-miss handling is selected.
func (p PolicyConfig) Strict() bool { return p.RewriteMode == "strict" }

// ScanConfig translates the entity policy into the scanner's terms.
func (c EntitiesConfig) ScanConfig() resolver.ScanConfig {
	cfg := resolver.ScanConfig{DropOSProperty: c.DropOSProperty}
	for spelling := range c.RewriteOSProperty {
		cfg.RewriteOSProperty = append(cfg.RewriteOSProperty, resolver.ParsePropertyKey(spelling))
	}
	return cfg
}

// KeepConfig translates the entity policy into the registry's terms.
func (c EntitiesConfig) KeepConfig() resolver.KeepConfig {
	cfg := resolver.KeepConfig{
		KeepProjectUsers:   c.KeepProjectUsers,
		KeepUsers:          c.KeepUsers,
		DropUsers:          c.DropUsers,
		RewriteUsers:       c.RewriteUsers,
		KeepGroups:         c.KeepGroups,
		RewriteDirectories: c.RewriteDirectories,
		ModifyUsers:        c.ModifyUsers,
	}
	if len(c.RewriteOSProperty) > 0 {
		cfg.RewriteOSPropertyValues = make(map[resolver.PropertyKey]string, len(c.RewriteOSProperty))
		for spelling, value := range c.RewriteOSProperty {
			cfg.RewriteOSPropertyValues[resolver.ParsePropertyKey(spelling)] = value
		}
	}
	return cfg
}
