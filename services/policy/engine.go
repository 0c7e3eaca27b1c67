// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package policy implements the declarative rule table that maps entity
// categories to filtering decisions. The table itself is external
// configuration (YAML, optionally the embedded default under rules/); the
// engine here is a single generic interpreter, so adding or changing a
// business rule never touches engine code.
package policy

import (
	"fmt"

	"github.com/AleutianAI/manglr/pkg/logging"
	"github.com/AleutianAI/manglr/services/resolver"
	"github.com/AleutianAI/manglr/services/stream"
)

// Sets resolves the set and rewrite-map names a policy table references.
// Implemented by resolver.Registry.
type Sets interface {
	// Set returns the named identity set. The bool reports whether the
	// name is known; a known name may still return nil, meaning filtering
	// on that identity kind is not configured and the condition is
	// inactive.
	Set(name string) (resolver.Set, bool)

	// Map returns the named rewrite map, nil when not configured.
	Map(name string) (map[string]string, bool)
}

// Options selects caller-configurable evaluation behavior.
type Options struct {
	// Strict drops a record when a rewrite-eligible attribute has a
	// non-empty value with no mapping. Lenient (the default) leaves the
	// value unchanged. Values already in a map's target range are never
	// misses, so re-filtering a converged document is a no-op in both
	// modes.
	Strict bool
}

// Outcome is the engine's per-record decision.
type Outcome int

const (
	// Kept means the record survives (possibly with attributes rewritten).
	Kept Outcome = iota
	// Dropped means the record is excluded from the output entirely.
	Dropped
)

// Verdict reports the decision and, for drops, why.
type Verdict struct {
	Outcome Outcome
	Reason  string
}

// Engine evaluates a bound policy table against records. Binding resolves
// every set and map name exactly once, before the filter pass begins; the
// engine never recomputes membership mid-stream.
type Engine struct {
	log       *logging.Logger
	strict    bool
	byTag     map[string][]*boundRule
	conflicts int
}

type boundRule struct {
	rule     *Rule
	keepIf   []boundCondition
	dropIf   []boundCondition
	rewrites []boundRewrite

	// conflictSet is non-empty when a keep_if/drop_if condition named a
	// set the registry doesn't know. Matching records are dropped
	// defensively.
	conflictSet string
}

type boundCondition struct {
	attr string
	set  resolver.Set // nil: condition inactive
}

type boundRewrite struct {
	attr    string
	mapping map[string]string // nil: rewrite inactive
	targets resolver.Set
}

// Bind resolves the table's set and map names against the registry.
//
// An unknown set name is a policy conflict: it is logged, counted, and the
// affected rule drops its records defensively instead of failing the run
// (the table may be newer than the resolver's edge kinds). An unknown map
// name is a configuration typo and fails the bind.
func Bind(table *Table, sets Sets, opts Options, log *logging.Logger) (*Engine, error) {
	e := &Engine{
		log:    log,
		strict: opts.Strict,
		byTag:  make(map[string][]*boundRule),
	}

	for i := range table.Rules {
		rule := &table.Rules[i]
		b := &boundRule{rule: rule}

		for _, c := range rule.KeepIf {
			set, known := sets.Set(c.Set)
			if !known {
				e.conflicts++
				b.conflictSet = c.Set
				log.Warn("policy conflict: rule names an unknown set, matching records will be dropped",
					"tags", rule.Tags, "set", c.Set)
				continue
			}
			b.keepIf = append(b.keepIf, boundCondition{attr: c.Attr, set: set})
		}
		for _, c := range rule.DropIf {
			set, known := sets.Set(c.Set)
			if !known {
				e.conflicts++
				b.conflictSet = c.Set
				log.Warn("policy conflict: rule names an unknown set, matching records will be dropped",
					"tags", rule.Tags, "set", c.Set)
				continue
			}
			b.dropIf = append(b.dropIf, boundCondition{attr: c.Attr, set: set})
		}
		for _, rw := range rule.Rewrites {
			mapping, known := sets.Map(rw.Map)
			if !known {
				return nil, fmt.Errorf("policy rule for %v: unknown rewrite map %q", rule.Tags, rw.Map)
			}
			targets := resolver.NewSet()
			for _, to := range mapping {
				targets.Add(to)
			}
			b.rewrites = append(b.rewrites, boundRewrite{attr: rw.Attr, mapping: mapping, targets: targets})
		}

		for _, tag := range rule.Tags {
			e.byTag[tag] = append(e.byTag[tag], b)
		}
	}
	return e, nil
}

// Conflicts returns how many conditions referenced unknown sets at bind
// time.
func (e *Engine) Conflicts() int { return e.conflicts }

// Apply evaluates the first matching rule for the record and returns the
// verdict. Rewrites mutate the record's attributes in place; a dropped
// record must not be forwarded.
func (e *Engine) Apply(rec *stream.Record) Verdict {
	for _, b := range e.byTag[rec.Tag] {
		if !b.matches(rec) {
			continue
		}
		return e.applyRule(b, rec)
	}
	// No rule covers this category: pass-through.
	return Verdict{Outcome: Kept}
}

func (b *boundRule) matches(rec *stream.Record) bool {
	for _, m := range b.rule.When {
		value, ok := rec.Lookup(m.Attr)
		if m.Present && (!ok || value == "") {
			return false
		}
		if m.Equals != "" && value != m.Equals {
			return false
		}
		if len(m.In) > 0 {
			found := false
			for _, want := range m.In {
				if value == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func (e *Engine) applyRule(b *boundRule, rec *stream.Record) Verdict {
	if b.conflictSet != "" {
		e.log.Warn("DROP (policy conflict)", "tag", rec.Tag, "set", b.conflictSet)
		return Verdict{Outcome: Dropped, Reason: "policy conflict: " + b.conflictSet}
	}

	switch b.rule.Action {
	case ActionDrop:
		e.log.Info("DROP", "tag", rec.Tag)
		return Verdict{Outcome: Dropped, Reason: "drop rule"}
	case ActionPass:
		return Verdict{Outcome: Kept}
	}

	// keep: membership conditions first, then rewrites.
	for _, c := range b.dropIf {
		if c.set != nil && c.set.Has(rec.Get(c.attr)) {
			e.log.Info("DROP", "tag", rec.Tag, "attr", c.attr, "value", rec.Get(c.attr))
			return Verdict{Outcome: Dropped, Reason: "drop_if " + c.attr}
		}
	}
	for _, c := range b.keepIf {
		if c.set == nil {
			continue // identity kind not configured, condition inactive
		}
		if !c.set.Has(rec.Get(c.attr)) {
			e.log.Info("DROP", "tag", rec.Tag, "attr", c.attr, "value", rec.Get(c.attr))
			return Verdict{Outcome: Dropped, Reason: "keep_if " + c.attr}
		}
	}

	for _, rw := range b.rewrites {
		if rw.mapping == nil {
			continue
		}
		old, ok := rec.Lookup(rw.attr)
		if !ok || old == "" {
			continue
		}
		if new, hit := rw.mapping[old]; hit && new != "" {
			e.log.Info("REWRITE", "tag", rec.Tag, "attr", rw.attr, "old", old, "new", new)
			rec.Set(rw.attr, new)
			continue
		}
		if rw.targets.Has(old) {
			continue // already converged
		}
		if e.strict {
			e.log.Info("DROP (rewrite miss)", "tag", rec.Tag, "attr", rw.attr, "value", old)
			return Verdict{Outcome: Dropped, Reason: "rewrite miss " + rw.attr}
		}
	}

	e.log.Debug("KEEP", "tag", rec.Tag)
	return Verdict{Outcome: Kept}
}
