// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryTestState() *State {
	st := NewState()
	st.AllUsers.AddAll(NewSet("alice", "bob", "carol", "dave"))
	st.ProjectUsers.AddAll(NewSet("alice", "bob"))
	return st
}

func TestRegistryKeepUserDerivation(t *testing.T) {
	reg := registryTestState().Registry(KeepConfig{
		KeepProjectUsers: true,
		KeepUsers:        []string{"admin"},
		DropUsers:        []string{"bob"},
		RewriteUsers:     map[string]string{"carol": "user-1"},
	})

	// admin explicitly, alice via project, carol as rewrite source; bob
	// dropped last.
	assert.ElementsMatch(t, []string{"admin", "alice", "carol"}, reg.KeepUsers().Values())
}

func TestRegistryUnconfiguredSetsAreNil(t *testing.T) {
	reg := registryTestState().Registry(KeepConfig{})

	users, known := reg.Set("users.keep")
	assert.True(t, known)
	assert.Nil(t, users)

	groups, known := reg.Set("groups.keep")
	assert.True(t, known)
	assert.Nil(t, groups)

	dirs, known := reg.Set("directories.keep")
	assert.True(t, known)
	assert.Nil(t, dirs)
}

func TestRegistrySchemeNamesAlwaysResolve(t *testing.T) {
	st := registryTestState()
	st.Scheme("WorkflowScheme").Add("12000")
	reg := st.Registry(KeepConfig{})

	set, known := reg.Set("scheme.WorkflowScheme")
	require.True(t, known)
	assert.True(t, set.Has("12000"))

	// A category nothing referenced resolves to an empty set, dropping
	// the whole category.
	set, known = reg.Set("scheme.NeverSeen")
	require.True(t, known)
	require.NotNil(t, set)
	assert.Zero(t, set.Len())
}

func TestRegistryUnknownNames(t *testing.T) {
	reg := registryTestState().Registry(KeepConfig{})

	_, known := reg.Set("users.nope")
	assert.False(t, known)

	_, known = reg.Map("groups.rewrite")
	assert.False(t, known)
}

func TestRegistryDirectorySets(t *testing.T) {
	reg := registryTestState().Registry(KeepConfig{
		RewriteDirectories: map[string]string{"1": "10000"},
	})

	filter, known := reg.Set("directories.filter")
	require.True(t, known)
	assert.ElementsMatch(t, []string{"1"}, filter.Values())

	keep, known := reg.Set("directories.keep")
	require.True(t, known)
	assert.ElementsMatch(t, []string{"10000"}, keep.Values())

	m, known := reg.Map("directories.rewrite")
	require.True(t, known)
	assert.Equal(t, "10000", m["1"])
}

func TestRejectedUsers(t *testing.T) {
	reg := registryTestState().Registry(KeepConfig{
		KeepUsers:    []string{"alice"},
		RewriteUsers: map[string]string{"carol": "user-1"},
	})

	// bob and dave are rejected outright; carol must disappear through
	// its rewrite, so the source name itself counts as rejected while
	// the target does not.
	assert.ElementsMatch(t, []string{"bob", "carol", "dave"}, reg.RejectedUsers().Values())
}

func TestRejectedUsersWithoutUserFiltering(t *testing.T) {
	reg := registryTestState().Registry(KeepConfig{})

	// No keep-set configured: every known user counts as rejected, which
	// makes a verify run against the raw input enumerate all of them.
	assert.ElementsMatch(t, []string{"alice", "bob", "carol", "dave"}, reg.RejectedUsers().Values())
}
