// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package resolver builds the identity sets that drive filtering: it scans
// every record of an export once, extracts typed cross-references between
// entity categories, and computes the transitive closure of "reachable from
// a surviving project" across the known reference kinds. The resulting
// State is an explicit value, populated completely before the filter pass
// begins and read-only from then on.
package resolver

import "sort"

// Set is a deduplicated collection of identifier strings: "users known to
// exist", "workflow names to keep", "FieldScreen IDs reachable from a
// surviving project", and so on.
type Set map[string]struct{}

// NewSet returns a set containing the given values. Empty strings are
// ignored, as in Add.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts a value. Adding "" is a no-op: an absent attribute must never
// make the empty string a kept identifier.
func (s Set) Add(v string) {
	if v == "" {
		return
	}
	s[v] = struct{}{}
}

// Has reports membership.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s) }

// AddAll inserts every member of other.
func (s Set) AddAll(other Set) {
	for v := range other {
		s[v] = struct{}{}
	}
}

// Remove deletes every member of other from s.
func (s Set) Remove(other Set) {
	for v := range other {
		delete(s, v)
	}
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Values returns the members sorted, for deterministic snapshots and logs.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
