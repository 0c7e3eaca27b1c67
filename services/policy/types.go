// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
package policy

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/manglr/pkg/validation"
)

// Action is what a matching rule does with a record.
type Action string

const (
	// ActionDrop discards every matching record.
	ActionDrop Action = "drop"
	// ActionKeep keeps the record only if all of its keep_if conditions
	// pass (and none of its drop_if conditions hit), then applies rewrites.
	ActionKeep Action = "keep"
	// ActionRewrite keeps the record unconditionally but applies rewrites.
	ActionRewrite Action = "rewrite"
	// ActionPass forwards the record untouched.
	ActionPass Action = "pass"
)

// Match is a sub-condition restricting which records of a tag a rule
// covers, e.g. only Avatar records with avatarType="user".
type Match struct {
	Attr    string   `yaml:"attr" validate:"required"`
	Equals  string   `yaml:"equals,omitempty"`
	In      []string `yaml:"in,omitempty"`
	Present bool     `yaml:"present,omitempty"`
}

// Condition names an attribute and the resolver set its value must belong
// to (keep_if) or must not belong to (drop_if).
type Condition struct {
	Attr string `yaml:"attr" validate:"required"`
	Set  string `yaml:"set" validate:"required"`
}

// Rewrite names an attribute and the rewrite map applied to its value.
type Rewrite struct {
	Attr string `yaml:"attr" validate:"required"`
	Map  string `yaml:"map" validate:"required"`
}

// Rule maps one or more entity categories to a policy. Rules are evaluated
// in file order; the first rule whose tag and when-conditions match wins.
// A record matched by no rule passes through unchanged.
type Rule struct {
	Tags     []string    `yaml:"tags" validate:"required,min=1"`
	When     []Match     `yaml:"when,omitempty" validate:"dive"`
	Action   Action      `yaml:"action" validate:"required,oneof=drop keep rewrite pass"`
	KeepIf   []Condition `yaml:"keep_if,omitempty" validate:"dive"`
	DropIf   []Condition `yaml:"drop_if,omitempty" validate:"dive"`
	Rewrites []Rewrite   `yaml:"rewrite,omitempty" validate:"dive"`
}

// Table is an externally supplied policy file: pure data, consumed by the
// engine, replaceable without recompiling.
type Table struct {
	Rules []Rule `yaml:"rules" validate:"required,min=1,dive"`
}

// Load parses and validates a policy table from YAML.
func Load(data []byte) (*Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse policy table: %w", err)
	}

	if err := validator.New().Struct(&table); err != nil {
		return nil, fmt.Errorf("invalid policy table: %w", err)
	}

	for i := range table.Rules {
		if err := table.Rules[i].check(); err != nil {
			return nil, fmt.Errorf("policy rule %d: %w", i+1, err)
		}
	}
	return &table, nil
}

// check applies the semantic validation the struct tags can't express.
func (r *Rule) check() error {
	for _, tag := range r.Tags {
		if err := validation.ValidateTag(tag); err != nil {
			return err
		}
	}
	for _, m := range r.When {
		if err := validation.ValidateAttr(m.Attr); err != nil {
			return err
		}
	}
	for _, c := range append(append([]Condition{}, r.KeepIf...), r.DropIf...) {
		if err := validation.ValidateAttr(c.Attr); err != nil {
			return err
		}
		if err := validation.ValidateSetName(c.Set); err != nil {
			return err
		}
	}
	for _, rw := range r.Rewrites {
		if err := validation.ValidateAttr(rw.Attr); err != nil {
			return err
		}
		if err := validation.ValidateSetName(rw.Map); err != nil {
			return err
		}
	}

	switch r.Action {
	case ActionKeep:
		if len(r.KeepIf) == 0 && len(r.DropIf) == 0 {
			return fmt.Errorf("action keep requires keep_if or drop_if conditions")
		}
	case ActionRewrite:
		if len(r.Rewrites) == 0 {
			return fmt.Errorf("action rewrite requires rewrite entries")
		}
	case ActionDrop, ActionPass:
		if len(r.KeepIf) != 0 || len(r.DropIf) != 0 || len(r.Rewrites) != 0 {
			return fmt.Errorf("action %s takes no conditions or rewrites", r.Action)
		}
	}
	return nil
}
