// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mangler

import (
	"fmt"
	"path"

	"github.com/AleutianAI/manglr/pkg/logging"
	"github.com/AleutianAI/manglr/services/stream"
)

// DataNamespace is the default namespace of ActiveObjects export
// documents. The output root is pinned to it so data elements stay
// unprefixed.
const DataNamespace = "http://www.atlassian.com/ao"

// TableRule rewrites cell values in one named data table. Rows are matched
// by column text; rewrites map a cell's old text to its replacement,
// column by column.
type TableRule struct {
	Table   string
	Match   map[string]string
	Rewrite map[string]map[string]string
}

// TableFilter processes ActiveObjects data records: known tables get their
// rows rewritten in place, tables matching a clear glob are dropped whole,
// everything else passes.
type TableFilter struct {
	rules map[string]TableRule
	clear []string
	log   *logging.Logger
}

// NewTableFilter validates the clear globs and indexes the rules by table
// name.
func NewTableFilter(rules []TableRule, clearGlobs []string, log *logging.Logger) (*TableFilter, error) {
	for _, pattern := range clearGlobs {
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("bad clear_tables pattern %q: %w", pattern, err)
		}
	}

	byTable := make(map[string]TableRule, len(rules))
	for _, rule := range rules {
		if rule.Table == "" {
			return nil, fmt.Errorf("table rule without a table name")
		}
		byTable[rule.Table] = rule
	}
	return &TableFilter{rules: byTable, clear: clearGlobs, log: log}, nil
}

// UserTableRules returns the built-in rules rewriting user identifiers in
// the board, audit, rapid-view, and statistics tables.
func UserTableRules(rewriteUsers map[string]string) []TableRule {
	if rewriteUsers == nil {
		return nil
	}
	return []TableRule{
		{
			Table:   "AO_60DB71_BOARDADMINS",
			Match:   map[string]string{"TYPE": "USER"},
			Rewrite: map[string]map[string]string{"KEY": rewriteUsers},
		},
		{
			Table:   "AO_60DB71_AUDITENTRY",
			Rewrite: map[string]map[string]string{"USER": rewriteUsers},
		},
		{
			Table:   "AO_60DB71_RAPIDVIEW",
			Rewrite: map[string]map[string]string{"OWNER_USER_NAME": rewriteUsers},
		},
		{
			Table:   "AO_8BAD1B_STATISTICS",
			Rewrite: map[string]map[string]string{"C_USERKEY": rewriteUsers},
		},
	}
}

func (f *TableFilter) Filter(rec *stream.Record) bool {
	if rec.Tag != "data" {
		return true
	}
	table := rec.Get("tableName")

	if rule, ok := f.rules[table]; ok {
		f.rewriteRows(rec, table, rule)
		return true
	}

	for _, pattern := range f.clear {
		if ok, _ := path.Match(pattern, table); ok {
			f.log.Info("DROP", "table", table)
			return false
		}
	}
	f.log.Debug("KEEP", "table", table)
	return true
}

// rewriteRows pairs each row's cells with the table's column declarations
// positionally, then applies the rule's match and rewrite maps to the cell
// text.
func (f *TableFilter) rewriteRows(rec *stream.Record, table string, rule TableRule) {
	var cols []string
	for _, child := range rec.Children {
		if child.Tag == "column" {
			cols = append(cols, child.Get("name"))
		}
	}
	f.log.Debug("SCAN", "table", table, "columns", cols)

	for _, row := range rec.Children {
		if row.Tag != "row" {
			continue
		}

		cells := make(map[string]*stream.Record, len(cols))
		for i, cell := range row.Children {
			if i >= len(cols) {
				break
			}
			cells[cols[i]] = cell
		}

		if !rowMatches(cells, rule.Match) {
			f.log.Debug("SKIP", "table", table)
			continue
		}

		for col, mapping := range rule.Rewrite {
			cell, ok := cells[col]
			if !ok {
				continue
			}
			if new := mapping[cell.Text]; new != "" {
				f.log.Info("REWRITE", "table", table, "column", col, "old", cell.Text, "new", new)
				cell.Text = new
			}
		}
	}
}

func rowMatches(cells map[string]*stream.Record, match map[string]string) bool {
	for col, want := range match {
		cell, ok := cells[col]
		if !ok || cell.Text != want {
			return false
		}
	}
	return true
}
