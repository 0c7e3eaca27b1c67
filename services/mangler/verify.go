// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mangler

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/AleutianAI/manglr/pkg/logging"
	"github.com/AleutianAI/manglr/services/resolver"
	"github.com/AleutianAI/manglr/services/stream"
)

// VerifyReport summarizes a leak scan: how many records carry an attribute
// whose value is a rejected identifier.
type VerifyReport struct {
	Total   int
	Flagged int

	TotalByTag   map[string]int
	FlaggedByTag map[string]int
}

// Clean reports whether no record referenced a rejected identifier.
func (r *VerifyReport) Clean() bool { return r.Flagged == 0 }

// Report logs the overall ratio and one line per flagged category.
func (r *VerifyReport) Report(log *logging.Logger) {
	log.Info("verify summary", "flagged", Ratio(r.Flagged, r.Total))

	tags := make([]string, 0, len(r.FlaggedByTag))
	for tag := range r.FlaggedByTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		log.Info(fmt.Sprintf("\t%-30s: %s", tag, Ratio(r.FlaggedByTag[tag], r.TotalByTag[tag])))
	}
}

// Verify scans a document for attributes whose value is in the rejected
// identifier set. Run against an input it predicts what filtering must
// remove; run against an output it must come back clean.
//
// Only top-level record attributes are checked. Rejected identifiers
// appearing in free text bodies are out of scope here.
func Verify(src stream.Source, rejected resolver.Set, log *logging.Logger) (*VerifyReport, error) {
	report := &VerifyReport{
		TotalByTag:   make(map[string]int),
		FlaggedByTag: make(map[string]int),
	}

	r, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, err
		}

		report.Total++
		report.TotalByTag[rec.Tag]++

		var hits []string
		for _, attr := range rec.Attrs {
			if rejected.Has(attr.Value) {
				hits = append(hits, fmt.Sprintf("%s<%s>", attr.Name, attr.Value))
			}
		}
		if len(hits) > 0 {
			log.Warn("USER", "tag", rec.Tag, "attrs", strings.Join(hits, ", "))
			report.Flagged++
			report.FlaggedByTag[rec.Tag]++
		}
	}
	return report, nil
}
