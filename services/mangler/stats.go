// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package mangler drives the filter pass: it streams records from an input
// document through a filter and writes the survivors to the output,
// keeping per-category counters along the way.
package mangler

import (
	"fmt"
	"sort"

	"github.com/AleutianAI/manglr/pkg/logging"
)

// Stats counts records seen and kept, overall and per category. The
// seen/kept split is the run's primary sanity check: a category at 0%
// or 100% that shouldn't be is visible at a glance.
type Stats struct {
	Seen int
	Kept int

	SeenByTag map[string]int
	KeptByTag map[string]int
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{
		SeenByTag: make(map[string]int),
		KeptByTag: make(map[string]int),
	}
}

func (s *Stats) see(tag string) {
	s.Seen++
	s.SeenByTag[tag]++
}

func (s *Stats) keep(tag string) {
	s.Kept++
	s.KeptByTag[tag]++
}

// Ratio formats kept/seen as "kept/seen = pp.pp%".
func Ratio(kept, seen int) string {
	if seen == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d = %.2f%%", kept, seen, float64(kept)/float64(seen)*100)
}

// Report logs the overall ratio and one line per category, in category
// order.
func (s *Stats) Report(log *logging.Logger) {
	log.Info("filter stats", "records", Ratio(s.Kept, s.Seen))

	tags := make([]string, 0, len(s.SeenByTag))
	for tag := range s.SeenByTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		log.Info(fmt.Sprintf("\t%-30s: %s", tag, Ratio(s.KeptByTag[tag], s.SeenByTag[tag])))
	}
}
