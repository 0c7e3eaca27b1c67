// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolver

import "strings"

// KeepConfig is the caller's identity policy: which users, groups, and
// directories survive, and how identifiers are renamed on the way out.
type KeepConfig struct {
	// KeepProjectUsers adds every project-role-actor user to the keep set.
	KeepProjectUsers bool

	// KeepUsers lists user names that survive regardless of project
	// membership.
	KeepUsers []string

	// DropUsers are removed from the keep set after every addition,
	// including project users and rewrite sources.
	DropUsers []string

	// RewriteUsers maps old user names to new ones. Sources are implicitly
	// kept: a record must survive filtering for its rewrite to appear.
	RewriteUsers map[string]string

	// KeepGroups lists group names that survive. Nil disables group
	// filtering entirely (all groups pass).
	KeepGroups []string

	// RewriteDirectories maps old directory IDs to new ones. Keys are the
	// directories records may reference on input; values are the ones that
	// survive in the output.
	RewriteDirectories map[string]string

	// ModifyUsers overrides attributes on surviving User records, keyed by
	// userName.
	ModifyUsers map[string]map[string]string

	// RewriteOSPropertyValues replaces the value attribute of OSProperty
	// records whose entry key matched RewriteOSProperty during the scan.
	RewriteOSPropertyValues map[PropertyKey]string
}

// Registry resolves the set and rewrite-map names a policy table uses into
// the concrete collections computed by the scan. Built once, after the
// State is final; read-only afterwards.
//
// A nil set under a known name means "filtering on this identity kind is
// not configured": conditions bound to it are inactive rather than
// everything-drops. An unknown name is a policy conflict and is reported
// to the caller at bind time.
type Registry struct {
	state *State
	cfg   KeepConfig

	keepUsers       Set // nil when user filtering is not configured
	keepGroups      Set
	keepDirectories Set
	filterDirs      Set

	maps map[string]map[string]string
}

// Registry derives the named-set registry from the final state, applying
// the keep refinement: configured users plus rewrite sources, plus project
// users when requested, minus explicit drops.
func (st *State) Registry(cfg KeepConfig) *Registry {
	r := &Registry{state: st, cfg: cfg}

	if cfg.KeepUsers != nil || cfg.RewriteUsers != nil || cfg.KeepProjectUsers {
		r.keepUsers = NewSet(cfg.KeepUsers...)
		for old := range cfg.RewriteUsers {
			r.keepUsers.Add(old)
		}
		if cfg.KeepProjectUsers {
			r.keepUsers.AddAll(st.ProjectUsers)
		}
		r.keepUsers.Remove(NewSet(cfg.DropUsers...))
	}

	if cfg.KeepGroups != nil {
		r.keepGroups = NewSet(cfg.KeepGroups...)
	}

	if cfg.RewriteDirectories != nil {
		r.filterDirs = NewSet()
		r.keepDirectories = NewSet()
		for old, new := range cfg.RewriteDirectories {
			r.filterDirs.Add(old)
			r.keepDirectories.Add(new)
		}
	}

	r.maps = map[string]map[string]string{
		"users.rewrite":       cfg.RewriteUsers,
		"directories.rewrite": cfg.RewriteDirectories,
	}
	return r
}

// Set resolves a set name. The second result reports whether the name is
// known at all; a known name may still return nil, meaning the condition
// it backs is inactive.
func (r *Registry) Set(name string) (Set, bool) {
	if category, ok := strings.CutPrefix(name, "scheme."); ok {
		// Scheme categories always resolve. A category nothing referenced
		// yields an empty set, which correctly drops the whole category.
		return r.state.Scheme(category), true
	}

	switch name {
	case "users.all":
		return r.state.AllUsers, true
	case "users.project":
		return r.state.ProjectUsers, true
	case "users.keep":
		return r.keepUsers, true
	case "groups.keep":
		return r.keepGroups, true
	case "directories.keep":
		return r.keepDirectories, true
	case "directories.filter":
		return r.filterDirs, true
	case "projects":
		return r.state.ProjectIDs, true
	case "workflows":
		return r.state.Workflows, true
	case "osproperty.drop":
		return r.state.DropOSPropertyIDs, true
	}
	return nil, false
}

// Map resolves a rewrite-map name.
func (r *Registry) Map(name string) (map[string]string, bool) {
	m, ok := r.maps[name]
	return m, ok
}

// KeepUsers exposes the derived user keep-set (nil when user filtering is
// not configured).
func (r *Registry) KeepUsers() Set { return r.keepUsers }

// RejectedUsers returns the user identifiers that must not appear in the
// output: everything known minus the keep set and minus rewrite target
// names, with rewrite source names added back (a source surviving verbatim
// means its rewrite never fired).
func (r *Registry) RejectedUsers() Set {
	rejected := r.state.AllUsers.Clone()
	if r.keepUsers != nil {
		rejected.Remove(r.keepUsers)
	}
	for old, new := range r.cfg.RewriteUsers {
		delete(rejected, new)
		rejected.Add(old)
	}
	return rejected
}
