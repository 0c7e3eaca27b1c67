// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/manglr/pkg/logging"
	"github.com/AleutianAI/manglr/services/stream"
)

// scanFixture wires every reference-edge kind at least once: a project
// attached to a workflow scheme, the scheme to a workflow, the workflow
// descriptor to a screen and a status, and the issue-type config chain
// from ConfigurationContext down to OptionConfiguration.
const scanFixture = `<?xml version="1.0" encoding="UTF-8"?>
<entity-engine-xml>
	<Directory id="1" type="INTERNAL"></Directory>
	<Directory id="2" type="CROWD"></Directory>
	<User userName="alice" directoryId="1"></User>
	<User userName="bob" directoryId="1"></User>
	<User userName="carol" directoryId="2"></User>
	<Project id="10000" key="OPS"></Project>
	<ProjectRoleActor id="1" projectid="10000" roletype="atlassian-user-role-actor" roletypeparameter="alice"></ProjectRoleActor>
	<ProjectRoleActor id="2" projectid="10000" roletype="atlassian-group-role-actor" roletypeparameter="ops-team"></ProjectRoleActor>
	<NodeAssociation sourceNodeId="10000" sourceNodeEntity="Project" sinkNodeId="12000" sinkNodeEntity="WorkflowScheme" associationType="ProjectScheme"></NodeAssociation>
	<NodeAssociation sourceNodeId="10000" sourceNodeEntity="Project" sinkNodeId="13000" sinkNodeEntity="PermissionScheme" associationType="ProjectScheme"></NodeAssociation>
	<WorkflowSchemeEntity id="1" scheme="12000" workflow="ops-workflow" issuetype="0"></WorkflowSchemeEntity>
	<Workflow name="ops-workflow">
		<descriptor>&lt;workflow&gt;
			&lt;action id="1" name="Resolve" view="fieldscreen"&gt;
				&lt;meta name="jira.fieldscreen.id"&gt;10900&lt;/meta&gt;
			&lt;/action&gt;
			&lt;step id="1" name="Open"&gt;
				&lt;meta name="jira.status.id"&gt;10001&lt;/meta&gt;
			&lt;/step&gt;
		&lt;/workflow&gt;</descriptor>
	</Workflow>
	<FieldScreenTab id="500" fieldscreen="10900"></FieldScreenTab>
	<FieldScreenTab id="501" fieldscreen="99999"></FieldScreenTab>
	<ConfigurationContext id="1" project="10000" key="issuetype" fieldconfigscheme="14000"></ConfigurationContext>
	<FieldConfigScheme id="14000" fieldid="issuetype"></FieldConfigScheme>
	<FieldConfigScheme id="14500" fieldid="customfield_10010"></FieldConfigScheme>
	<FieldConfigSchemeIssueType id="1" fieldconfigscheme="14000" fieldconfiguration="15000"></FieldConfigSchemeIssueType>
	<OptionConfiguration id="1" fieldid="issuetype" fieldconfig="15000" optionid="3"></OptionConfiguration>
	<OSPropertyEntry id="501" entityName="jira.properties" entityId="1" propertyKey="jira.title"></OSPropertyEntry>
	<OSPropertyEntry id="502" entityName="APKeyStore" entityId="1" propertyKey="keyStorePassword"></OSPropertyEntry>
</entity-engine-xml>
`

func scanTestSource(t *testing.T) stream.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entities.xml")
	require.NoError(t, os.WriteFile(path, []byte(scanFixture), 0600))
	return stream.Source(path)
}

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: logging.LevelError, Quiet: true})
}

func TestScanResolvesClosure(t *testing.T) {
	scanner := NewScanner(ScanConfig{
		DropOSProperty:    []string{"jira.properties/*"},
		RewriteOSProperty: []PropertyKey{{Entity: "APKeyStore", Key: "keyStorePassword"}},
	}, testLogger())

	st, err := scanner.Scan(scanTestSource(t))
	require.NoError(t, err)

	assert.Equal(t, 21, st.ElementCount)
	assert.Equal(t, "1", st.InternalDirectoryID)
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, st.AllUsers.Values())
	assert.ElementsMatch(t, []string{"alice"}, st.ProjectUsers.Values())
	assert.ElementsMatch(t, []string{"10000"}, st.ProjectIDs.Values())

	// Workflow chain: project scheme -> workflow -> screen/status.
	assert.ElementsMatch(t, []string{"12000"}, st.Scheme("WorkflowScheme").Values())
	assert.ElementsMatch(t, []string{"ops-workflow"}, st.Workflows.Values())
	assert.ElementsMatch(t, []string{"1", "2", "3", "10900"}, st.Scheme("FieldScreen").Values())
	assert.ElementsMatch(t, []string{"500"}, st.Scheme("FieldScreenTab").Values())
	assert.ElementsMatch(t, []string{"10001"}, st.Scheme("Status").Values())

	// Issue-type config chain, plus the custom-field scheme and the
	// built-in default.
	assert.ElementsMatch(t, []string{"1", "14000", "14500"}, st.Scheme("FieldConfigScheme").Values())
	assert.ElementsMatch(t, []string{"15000"}, st.Scheme("FieldConfiguration").Values())
	assert.ElementsMatch(t, []string{"3"}, st.Scheme("IssueType").Values())

	// Direct project attachments keep the built-in defaults.
	assert.ElementsMatch(t, []string{"0", "13000"}, st.Scheme("PermissionScheme").Values())

	// Property handling.
	assert.ElementsMatch(t, []string{"501"}, st.DropOSPropertyIDs.Values())
	assert.Equal(t, PropertyKey{Entity: "APKeyStore", Key: "keyStorePassword"}, st.OSProperties["502"])
}

func TestScanUnreferencedCategoriesStayEmpty(t *testing.T) {
	scanner := NewScanner(ScanConfig{}, testLogger())
	st, err := scanner.Scan(scanTestSource(t))
	require.NoError(t, err)

	// Nothing attached a NotificationScheme, so its keep-set is empty and
	// every record of that category gets dropped.
	assert.Zero(t, st.Scheme("NotificationScheme").Len())
	assert.Zero(t, st.DropOSPropertyIDs.Len())
	assert.Empty(t, st.OSProperties)
}

func TestParsePropertyKey(t *testing.T) {
	key := ParsePropertyKey("APKeyStore/keyStorePassword")
	assert.Equal(t, "APKeyStore", key.Entity)
	assert.Equal(t, "keyStorePassword", key.Key)
	assert.Equal(t, "APKeyStore/keyStorePassword", key.String())
}
