// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for externally
// supplied policy and configuration data.
//
// Policy rule files and job configurations name entity categories,
// attributes, and resolver sets that later drive filtering decisions.
// Validating those names when the file is loaded turns a misspelled
// rule into a load-time error instead of a silent no-op during the
// filter pass.
package validation

import (
	"fmt"
	"regexp"
)

// tagPattern matches entity category names (XML element names as exported
// by the backup tool): letters first, then letters/digits/._-
// Max length 64 covers every category observed in real exports.
var tagPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._\-]{0,63}$`)

// attrPattern matches attribute names on entity records.
var attrPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._\-]{0,63}$`)

// setNamePattern matches resolver set and rewrite-map names, which use a
// dotted namespace: "users.keep", "scheme.PermissionScheme", "workflows".
var setNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[A-Za-z][A-Za-z0-9]*)*$`)

// ValidateTag validates an entity category (record tag) name.
//
// Returns an error if the tag is empty or contains characters that can
// never appear in a well-formed element name.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("entity tag cannot be empty")
	}
	if !tagPattern.MatchString(tag) {
		return fmt.Errorf("invalid entity tag: %q", tag)
	}
	return nil
}

// ValidateAttr validates an attribute name referenced by a policy rule.
func ValidateAttr(attr string) error {
	if attr == "" {
		return fmt.Errorf("attribute name cannot be empty")
	}
	if !attrPattern.MatchString(attr) {
		return fmt.Errorf("invalid attribute name: %q", attr)
	}
	return nil
}

// ValidateSetName validates a resolver set or rewrite-map name.
//
// Valid names:
//   - lowercase namespace segments joined by dots ("users.keep")
//   - category-qualified scheme sets ("scheme.PermissionScheme")
//
// Example:
//
//	if err := validation.ValidateSetName(cond.Set); err != nil {
//	    return fmt.Errorf("rule %d: %w", i, err)
//	}
func ValidateSetName(name string) error {
	if name == "" {
		return fmt.Errorf("set name cannot be empty")
	}
	if !setNamePattern.MatchString(name) {
		return fmt.Errorf("invalid set name: %q (must be dotted lowercase namespaces, e.g. \"users.keep\")", name)
	}
	return nil
}
