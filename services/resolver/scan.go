// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolver

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/AleutianAI/manglr/pkg/logging"
	"github.com/AleutianAI/manglr/services/stream"
)

func trimmed(s string) string { return strings.TrimSpace(s) }

// ScanConfig controls what the scan pass records beyond the fixed
// reference-edge kinds.
type ScanConfig struct {
	// DropOSProperty are glob patterns (path.Match syntax) applied to the
	// "entity/key" spelling of OSPropertyEntry rows; matches are collected
	// into the drop set.
	DropOSProperty []string

	// RewriteOSProperty lists the property keys whose value attribute will
	// be replaced during filtering; the scan records their entry IDs.
	RewriteOSProperty []PropertyKey

	// ProgressInterval emits a progress notification every N records.
	// <= 0 disables reporting.
	ProgressInterval int

	// Progress receives the running record count. Purely observational.
	Progress stream.ProgressFunc
}

// Scanner performs the single scan pass: base identity sets, adjacency
// mappings for every fixed reference-edge kind, and seed sets per scheme
// category. Closure runs once the pass completes.
type Scanner struct {
	log   *logging.Logger
	cfg   ScanConfig
	state *State

	// Adjacency mappings, one per reference-edge kind. Ephemeral: used only
	// by the closure computation, never serialized.
	screenSchemesByITSS   adjacency // IssueTypeScreenSchemeEntity: scheme -> fieldscreenscheme
	issueTypesByITSS      adjacency // IssueTypeScreenSchemeEntity: scheme -> issuetype
	layoutsByLayoutScheme adjacency // FieldLayoutSchemeEntity: scheme -> fieldlayout
	workflowsByScheme     adjacency // WorkflowSchemeEntity: scheme -> workflow name
	screensByScreenScheme adjacency // FieldScreenSchemeItem: fieldscreenscheme -> fieldscreen
	screensByWorkflow     adjacency // workflow descriptor: name -> fieldscreen
	statusesByWorkflow    adjacency // workflow descriptor: name -> status
	tabsByScreen          adjacency // FieldScreenTab: fieldscreen -> tab
	configSchemeByProject adjacency // ConfigurationContext: project -> fieldconfigscheme
	configsByConfigScheme adjacency // FieldConfigSchemeIssueType: fieldconfigscheme -> fieldconfiguration
	issueTypesByConfig    adjacency // OptionConfiguration: fieldconfig -> optionid
	customFieldSchemes    Set       // FieldConfigScheme rows owned by custom fields
}

// NewScanner returns a scanner with empty state and adjacency.
func NewScanner(cfg ScanConfig, log *logging.Logger) *Scanner {
	return &Scanner{
		log:                   log,
		cfg:                   cfg,
		state:                 NewState(),
		screenSchemesByITSS:   adjacency{},
		issueTypesByITSS:      adjacency{},
		layoutsByLayoutScheme: adjacency{},
		workflowsByScheme:     adjacency{},
		screensByScreenScheme: adjacency{},
		screensByWorkflow:     adjacency{},
		statusesByWorkflow:    adjacency{},
		tabsByScreen:          adjacency{},
		configSchemeByProject: adjacency{},
		configsByConfigScheme: adjacency{},
		issueTypesByConfig:    adjacency{},
		customFieldSchemes:    NewSet(),
	}
}

// Scan consumes the source exactly once, then resolves the closure.
// The returned State is complete: every set a filter decision can consult
// has reached its final membership.
func (s *Scanner) Scan(src stream.Source) (*State, error) {
	rd, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	defer rd.Close()
	rd.SetProgress(s.cfg.ProgressInterval, s.cfg.Progress)

	for {
		rec, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		s.observe(rec)
	}
	s.state.ElementCount = rd.Count()

	s.resolve()
	return s.state, nil
}

// observe extracts identities, reference edges, and seeds from one record.
func (s *Scanner) observe(rec *stream.Record) {
	st := s.state

	switch rec.Tag {
	case "Directory":
		if rec.Get("type") == "INTERNAL" {
			id := rec.Get("id")
			s.log.Info("SCAN internal directory", "id", id)
			st.InternalDirectoryID = id
		}

	case "User":
		st.AllUsers.Add(rec.Get("userName"))

	case "Project":
		st.ProjectIDs.Add(rec.Get("id"))

	case "ProjectRoleActor":
		if rec.Get("roletype") == "atlassian-user-role-actor" {
			user := rec.Get("roletypeparameter")
			s.log.Info("SCAN project role actor", "user", user)
			st.ProjectUsers.Add(user)
		}

	case "OSPropertyEntry":
		s.observeProperty(rec)

	case "NodeAssociation":
		// Explicit project-to-scheme attachments seed the per-category
		// closure alongside the built-in defaults.
		if rec.Get("associationType") == "ProjectScheme" {
			entity := rec.Get("sinkNodeEntity")
			id := rec.Get("sinkNodeId")
			s.log.Info("SCAN project scheme", "entity", entity, "id", id)
			st.Scheme(entity).Add(id)
		}

	case "IssueTypeScreenSchemeEntity":
		scheme := rec.Get("scheme")
		s.screenSchemesByITSS.add(scheme, rec.Get("fieldscreenscheme"))
		if it := rec.Get("issuetype"); it != "" {
			s.issueTypesByITSS.add(scheme, it)
		}

	case "FieldLayoutSchemeEntity":
		if layout := rec.Get("fieldlayout"); layout != "" {
			s.layoutsByLayoutScheme.add(rec.Get("scheme"), layout)
		}

	case "WorkflowSchemeEntity":
		s.workflowsByScheme.add(rec.Get("scheme"), rec.Get("workflow"))

	case "FieldScreenSchemeItem":
		s.screensByScreenScheme.add(rec.Get("fieldscreenscheme"), rec.Get("fieldscreen"))

	case "Workflow":
		s.observeWorkflow(rec)

	case "FieldScreenTab":
		s.tabsByScreen.add(rec.Get("fieldscreen"), rec.Get("id"))

	case "ConfigurationContext":
		if rec.Get("key") == "issuetype" {
			s.configSchemeByProject.add(rec.Get("project"), rec.Get("fieldconfigscheme"))
		}

	case "FieldConfigScheme":
		// Custom-field config schemes are kept wholesale; only the
		// issue-type scheme is pruned by project reachability.
		if fieldID := rec.Get("fieldid"); strings.HasPrefix(fieldID, "customfield_") {
			s.customFieldSchemes.Add(rec.Get("id"))
		}

	case "FieldConfigSchemeIssueType":
		s.configsByConfigScheme.add(rec.Get("fieldconfigscheme"), rec.Get("fieldconfiguration"))

	case "OptionConfiguration":
		if rec.Get("fieldid") == "issuetype" {
			s.issueTypesByConfig.add(rec.Get("fieldconfig"), rec.Get("optionid"))
		}
	}
}

// observeProperty matches an OSPropertyEntry against the configured drop
// globs and rewrite keys.
func (s *Scanner) observeProperty(rec *stream.Record) {
	id := rec.Get("id")
	key := PropertyKey{Entity: rec.Get("entityName"), Key: rec.Get("propertyKey")}

	for _, want := range s.cfg.RewriteOSProperty {
		if key == want {
			s.log.Info("SCAN rewrite osproperty", "property", key.String(), "id", id)
			s.state.OSProperties[id] = key
		}
	}

	for _, pattern := range s.cfg.DropOSProperty {
		ok, err := path.Match(pattern, key.String())
		if err != nil {
			s.log.Warn("bad osproperty glob", "pattern", pattern, "error", err)
			continue
		}
		if ok {
			s.log.Info("SCAN drop osproperty", "property", key.String(), "id", id)
			s.state.DropOSPropertyIDs.Add(id)
			break
		}
	}
}

// observeWorkflow parses the embedded workflow descriptor and extracts the
// field screens referenced by transition views and the statuses referenced
// by step metadata.
func (s *Scanner) observeWorkflow(rec *stream.Record) {
	name := rec.Get("name")
	text := rec.ChildText("descriptor")
	if text == "" {
		return
	}

	descriptor, err := stream.ParseFragment(text)
	if err != nil {
		s.log.Warn("unparseable workflow descriptor", "workflow", name, "error", err)
		return
	}

	descriptor.Walk(func(n *stream.Record) {
		switch n.Tag {
		case "action":
			if n.Get("view") != "fieldscreen" {
				return
			}
			n.Walk(func(m *stream.Record) {
				if m.Tag == "meta" && m.Get("name") == "jira.fieldscreen.id" {
					s.screensByWorkflow.add(name, trimmed(m.Text))
				}
			})
		case "step":
			n.Walk(func(m *stream.Record) {
				if m.Tag == "meta" && m.Get("name") == "jira.status.id" {
					s.statusesByWorkflow.add(name, trimmed(m.Text))
				}
			})
		}
	})
}
