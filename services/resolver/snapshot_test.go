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
)

func TestSnapshotRoundTrip(t *testing.T) {
	st := NewState()
	st.ElementCount = 42
	st.ProjectIDs.Add("10000")
	st.AllUsers.AddAll(NewSet("alice", "bob"))
	st.ProjectUsers.Add("alice")
	st.InternalDirectoryID = "1"
	st.DropOSPropertyIDs.Add("501")
	st.OSProperties["502"] = PropertyKey{Entity: "APKeyStore", Key: "keyStorePassword"}
	st.Scheme("WorkflowScheme").Add("12000")
	st.Workflows.Add("ops-workflow")

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, st.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 42, loaded.ElementCount)
	assert.ElementsMatch(t, st.ProjectIDs.Values(), loaded.ProjectIDs.Values())
	assert.ElementsMatch(t, st.AllUsers.Values(), loaded.AllUsers.Values())
	assert.ElementsMatch(t, st.ProjectUsers.Values(), loaded.ProjectUsers.Values())
	assert.Equal(t, "1", loaded.InternalDirectoryID)
	assert.ElementsMatch(t, []string{"501"}, loaded.DropOSPropertyIDs.Values())
	assert.Equal(t, st.OSProperties, loaded.OSProperties)
	assert.ElementsMatch(t, []string{"12000"}, loaded.Scheme("WorkflowScheme").Values())
	assert.ElementsMatch(t, []string{"ops-workflow"}, loaded.Workflows.Values())

	// Atomic write: no temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSnapshotLoadHistoricalProjectUsersKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"element_count": 7,
		"projects_ids": ["10000"],
		"all_users": ["alice", "bob"],
		"project_role_actor_users": ["alice"],
		"internal_directory_id": "1",
		"drop_osproperty_ids": [],
		"osproperties": {},
		"scheme_ids": {"PermissionScheme": ["0", "13000"]},
		"workflows": []
	}`), 0600))

	st, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, st.ElementCount)
	assert.ElementsMatch(t, []string{"alice"}, st.ProjectUsers.Values())
	assert.ElementsMatch(t, []string{"0", "13000"}, st.Scheme("PermissionScheme").Values())
}

func TestSnapshotLoadMissingFieldsFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"element_count": 3}`), 0600))

	st, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, st.ElementCount)
	assert.Empty(t, st.InternalDirectoryID)
	assert.Zero(t, st.AllUsers.Len())

	// Seeded defaults survive a sparse snapshot.
	assert.True(t, st.Scheme("PermissionScheme").Has(DefaultPermissionScheme))
	assert.True(t, st.Scheme("FieldConfigScheme").Has(DefaultFieldConfigScheme))
}

func TestSnapshotLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := Load(path)
	require.Error(t, err)
}
