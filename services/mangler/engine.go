// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mangler

import (
	"errors"
	"io"
	"sort"

	"github.com/AleutianAI/manglr/pkg/logging"
	"github.com/AleutianAI/manglr/services/policy"
	"github.com/AleutianAI/manglr/services/resolver"
	"github.com/AleutianAI/manglr/services/stream"
)

// Filter decides each record's fate and may mutate a surviving record in
// place. Returning false drops the record from the output.
type Filter interface {
	Filter(rec *stream.Record) bool
}

// Hook post-processes a record the policy already decided to keep.
type Hook func(rec *stream.Record)

// Config carries the run-level knobs shared by both document kinds.
type Config struct {
	// ProgressInterval is how many records pass between progress log
	// lines. Zero disables progress logging.
	ProgressInterval int

	// ExpectedRecords, when known from a prior scan, is included in
	// progress lines so long runs show how far along they are.
	ExpectedRecords int

	// Namespace, when non-empty, overrides the output root's default
	// namespace declaration.
	Namespace string
}

// Engine streams records from a source through a filter and into a sink.
// It holds no per-document state between runs beyond the filter itself.
type Engine struct {
	filter Filter
	cfg    Config
	log    *logging.Logger
}

// New builds an engine around any record filter.
func New(filter Filter, cfg Config, log *logging.Logger) *Engine {
	return &Engine{filter: filter, cfg: cfg, log: log}
}

// Run copies src to out, dropping and rewriting records per the filter.
// The output document carries the input root verbatim (namespace override
// aside), records indented one level, declaration first. Writing to the
// final path atomically is the caller's concern.
func (e *Engine) Run(src stream.Source, out io.Writer) (*Stats, error) {
	stats := NewStats()

	r, err := src.Open()
	if err != nil {
		return stats, err
	}
	defer r.Close()

	if e.cfg.ProgressInterval > 0 {
		r.SetProgress(e.cfg.ProgressInterval, func(n int) {
			if e.cfg.ExpectedRecords > 0 {
				e.log.Info("processing", "records", n, "total", e.cfg.ExpectedRecords)
			} else {
				e.log.Info("processing", "records", n)
			}
		})
	}

	var w *stream.Writer
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}

		if w == nil {
			w, err = stream.NewWriter(out, r.Root(), stream.WriterOptions{DefaultNamespace: e.cfg.Namespace})
			if err != nil {
				return stats, err
			}
		}

		stats.see(rec.Tag)
		if !e.filter.Filter(rec) {
			continue
		}
		stats.keep(rec.Tag)

		if err := w.WriteRecord(rec); err != nil {
			return stats, err
		}
	}

	// An input with a root but no records still produces a well-formed
	// output document.
	if w == nil {
		if w, err = stream.NewWriter(out, r.Root(), stream.WriterOptions{DefaultNamespace: e.cfg.Namespace}); err != nil {
			return stats, err
		}
	}
	if err := w.Close(); err != nil {
		return stats, err
	}

	stats.Report(e.log)
	return stats, nil
}

// EntityFilter binds the policy engine's verdicts to the mangler's Filter
// interface and runs the keep-side hooks.
type EntityFilter struct {
	engine *policy.Engine
	hooks  []Hook
}

// NewEntityFilter wraps a bound policy engine with optional post-keep
// hooks, applied in order.
func NewEntityFilter(engine *policy.Engine, hooks ...Hook) *EntityFilter {
	return &EntityFilter{engine: engine, hooks: hooks}
}

func (f *EntityFilter) Filter(rec *stream.Record) bool {
	if f.engine.Apply(rec).Outcome == policy.Dropped {
		return false
	}
	for _, h := range f.hooks {
		h(rec)
	}
	return true
}

// ModifyUsers overrides attributes on surviving User records, keyed by
// userName. Overrides apply after any userName rewrite, so the keys refer
// to output names when a rewrite map is in play.
func ModifyUsers(overrides map[string]map[string]string, log *logging.Logger) Hook {
	return func(rec *stream.Record) {
		if rec.Tag != "User" {
			return
		}
		attrs, ok := overrides[rec.Get("userName")]
		if !ok {
			return
		}

		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			log.Info("MODIFY", "tag", rec.Tag, "userName", rec.Get("userName"),
				"attr", name, "old", rec.Get(name), "new", attrs[name])
			rec.Set(name, attrs[name])
		}
	}
}

// propertyValueTags are the OSProperty variants that carry a value
// attribute worth scrubbing.
var propertyValueTags = map[string]bool{
	"OSPropertyDecimal": true,
	"OSPropertyNumber":  true,
	"OSPropertyString":  true,
	"OSPropertyText":    true,
}

// RewriteProperties replaces the value attribute of OSProperty records
// whose entry matched a configured entity/key pair during the scan. The
// entry-to-key index comes from the resolver state; the replacement values
// come from the job config.
func RewriteProperties(properties map[string]resolver.PropertyKey, values map[resolver.PropertyKey]string, log *logging.Logger) Hook {
	return func(rec *stream.Record) {
		if !propertyValueTags[rec.Tag] {
			return
		}
		key, ok := properties[rec.Get("id")]
		if !ok {
			return
		}
		value, ok := values[key]
		if !ok {
			return
		}
		log.Info("REWRITE", "tag", rec.Tag, "id", rec.Get("id"), "property", key.String(),
			"old", rec.Get("value"), "new", value)
		rec.Set("value", value)
	}
}
