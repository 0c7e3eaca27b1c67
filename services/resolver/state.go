// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolver

import "strings"

// Built-in identifiers that must survive every filter run. A target
// instance cannot function without its baseline permission scheme, the
// default field screens, or the default issue-type field configuration
// scheme, so these seed the closure regardless of project associations.
const (
	DefaultPermissionScheme  = "0"
	DefaultFieldConfigScheme = "1"
)

// DefaultFieldScreenIDs are the built-in field screens (default, workflow,
// resolve) shipped with every instance.
var DefaultFieldScreenIDs = []string{"1", "2", "3"}

// PropertyKey identifies an OSProperty row by owning entity name and
// property key. A struct rather than a formatted "entity/key" string avoids
// collisions when either part contains the separator.
type PropertyKey struct {
	Entity string
	Key    string
}

// String renders the historical "entity/key" spelling used by glob patterns
// and the snapshot format.
func (k PropertyKey) String() string { return k.Entity + "/" + k.Key }

// ParsePropertyKey splits the historical "entity/key" spelling.
func ParsePropertyKey(s string) PropertyKey {
	entity, key, _ := strings.Cut(s, "/")
	return PropertyKey{Entity: entity, Key: key}
}

// State holds everything the scan pass computed. It is created by
// Scanner.Scan (or loaded from a Snapshot), threaded explicitly to the
// filter engine, and never mutated after closure completes.
type State struct {
	// ElementCount is the number of top-level records observed, used for
	// progress reporting on subsequent passes.
	ElementCount int

	// ProjectIDs are the IDs of every Project record in the export.
	ProjectIDs Set

	// AllUsers is every userName observed on a User record.
	AllUsers Set

	// ProjectUsers are users referenced as project role actors.
	ProjectUsers Set

	// InternalDirectoryID is the ID of the single INTERNAL authentication
	// directory, or "" if none was seen.
	InternalDirectoryID string

	// DropOSPropertyIDs are OSProperty entry IDs matched by drop globs.
	DropOSPropertyIDs Set

	// OSProperties maps an OSProperty entry ID to its property key, for
	// entries whose value is rewrite-eligible.
	OSProperties map[string]PropertyKey

	// SchemeIDs maps a reference category (PermissionScheme, FieldScreen,
	// Status, IssueType, ...) to its resolved keep-set.
	SchemeIDs map[string]Set

	// Workflows are the names of workflows reachable from a kept
	// workflow scheme.
	Workflows Set
}

// NewState returns a State seeded with the built-in identifiers that must
// never be dropped.
func NewState() *State {
	st := &State{
		ProjectIDs:        NewSet(),
		AllUsers:          NewSet(),
		ProjectUsers:      NewSet(),
		DropOSPropertyIDs: NewSet(),
		OSProperties:      make(map[string]PropertyKey),
		SchemeIDs:         make(map[string]Set),
		Workflows:         NewSet(),
	}
	st.Scheme("PermissionScheme").Add(DefaultPermissionScheme)
	for _, id := range DefaultFieldScreenIDs {
		st.Scheme("FieldScreen").Add(id)
	}
	st.Scheme("FieldConfigScheme").Add(DefaultFieldConfigScheme)
	return st
}

// Scheme returns the keep-set for a reference category, creating an empty
// one on first use. An empty set is meaningful: it drops every record of
// that category, which is exactly right when nothing references it.
func (st *State) Scheme(category string) Set {
	s, ok := st.SchemeIDs[category]
	if !ok {
		s = NewSet()
		st.SchemeIDs[category] = s
	}
	return s
}
