// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolver

// adjacency groups the reference edges of one kind by source key:
// source identifier -> set of target identifiers.
type adjacency map[string]Set

func (a adjacency) add(from, to string) {
	if from == "" || to == "" {
		return
	}
	targets, ok := a[from]
	if !ok {
		targets = NewSet()
		a[from] = targets
	}
	targets.Add(to)
}

// edgeRule is one reference kind applied during closure: for every member
// of from, the adjacency's targets are unioned into to.
type edgeRule struct {
	name string
	from Set
	adj  adjacency
	to   Set
}

// apply unions reachable targets into the rule's destination set and
// reports whether the destination grew. Sources with no recorded edges are
// dangling references and are ignored.
func (r edgeRule) apply() bool {
	grew := false
	for id := range r.from {
		for target := range r.adj[id] {
			if !r.to.Has(target) {
				r.to.Add(target)
				grew = true
			}
		}
	}
	return grew
}

// resolve computes the transitive closure of the seed sets over every
// reference-edge kind.
//
// The domain's reference layers form a DAG (scheme -> screen-scheme ->
// screen -> tab; scheme -> workflow -> {screen, status}; project ->
// field-config-scheme -> field-config -> issue-type), so a single top-down
// pass would suffice. The loop still iterates to a fixed point: it
// converges in depth+1 rounds on the layered graph and stays correct if a
// future edge kind breaks the layering.
func (s *Scanner) resolve() {
	st := s.state

	// Custom-field config schemes survive unconditionally.
	st.Scheme("FieldConfigScheme").AddAll(s.customFieldSchemes)

	rules := []edgeRule{
		{"itss->fieldscreenscheme", st.Scheme("IssueTypeScreenScheme"), s.screenSchemesByITSS, st.Scheme("FieldScreenScheme")},
		{"itss->issuetype", st.Scheme("IssueTypeScreenScheme"), s.issueTypesByITSS, st.Scheme("IssueType")},
		{"fieldlayoutscheme->fieldlayout", st.Scheme("FieldLayoutScheme"), s.layoutsByLayoutScheme, st.Scheme("FieldLayout")},
		{"workflowscheme->workflow", st.Scheme("WorkflowScheme"), s.workflowsByScheme, st.Workflows},
		{"fieldscreenscheme->fieldscreen", st.Scheme("FieldScreenScheme"), s.screensByScreenScheme, st.Scheme("FieldScreen")},
		{"workflow->fieldscreen", st.Workflows, s.screensByWorkflow, st.Scheme("FieldScreen")},
		{"workflow->status", st.Workflows, s.statusesByWorkflow, st.Scheme("Status")},
		{"fieldscreen->tab", st.Scheme("FieldScreen"), s.tabsByScreen, st.Scheme("FieldScreenTab")},
		{"project->fieldconfigscheme", st.ProjectIDs, s.configSchemeByProject, st.Scheme("FieldConfigScheme")},
		{"fieldconfigscheme->fieldconfiguration", st.Scheme("FieldConfigScheme"), s.configsByConfigScheme, st.Scheme("FieldConfiguration")},
		{"fieldconfiguration->issuetype", st.Scheme("FieldConfiguration"), s.issueTypesByConfig, st.Scheme("IssueType")},
	}

	for round := 1; ; round++ {
		grew := false
		for _, rule := range rules {
			if rule.apply() {
				grew = true
			}
		}
		if !grew {
			s.log.Debug("closure reached fixed point", "rounds", round)
			return
		}
	}
}
