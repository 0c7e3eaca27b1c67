// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolver

import (
	"encoding/json"
	"fmt"
	"os"
)

// snapshot is the persisted scan-state format. It is an external contract:
// older files may spell the project-users field "project_role_actor_users"
// and may omit fields entirely, and both must load cleanly so a state file
// from a previous tool version still skips the scan pass.
type snapshot struct {
	ElementCount          int                 `json:"element_count"`
	ProjectIDs            []string            `json:"projects_ids"`
	AllUsers              []string            `json:"all_users"`
	ProjectUsers          []string            `json:"project_users,omitempty"`
	ProjectRoleActorUsers []string            `json:"project_role_actor_users,omitempty"`
	InternalDirectoryID   *string             `json:"internal_directory_id"`
	DropOSPropertyIDs     []string            `json:"drop_osproperty_ids"`
	OSProperties          map[string]string   `json:"osproperties"`
	SchemeIDs             map[string][]string `json:"scheme_ids"`
	Workflows             []string            `json:"workflows"`
}

// Save persists the state as JSON. The file is written to a temporary path
// and renamed into place so a crash never leaves a truncated snapshot.
func (st *State) Save(path string) error {
	snap := snapshot{
		ElementCount:      st.ElementCount,
		ProjectIDs:        st.ProjectIDs.Values(),
		AllUsers:          st.AllUsers.Values(),
		ProjectUsers:      st.ProjectUsers.Values(),
		DropOSPropertyIDs: st.DropOSPropertyIDs.Values(),
		OSProperties:      make(map[string]string, len(st.OSProperties)),
		SchemeIDs:         make(map[string][]string, len(st.SchemeIDs)),
		Workflows:         st.Workflows.Values(),
	}
	if st.InternalDirectoryID != "" {
		id := st.InternalDirectoryID
		snap.InternalDirectoryID = &id
	}
	for id, key := range st.OSProperties {
		snap.OSProperties[id] = key.String()
	}
	for category, ids := range st.SchemeIDs {
		snap.SchemeIDs[category] = ids.Values()
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load restores a previously saved state. Missing fields fall back to the
// seeded defaults rather than failing, so snapshots written by older
// versions remain usable.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	st := NewState()
	st.ElementCount = snap.ElementCount

	for _, id := range snap.ProjectIDs {
		st.ProjectIDs.Add(id)
	}
	for _, u := range snap.AllUsers {
		st.AllUsers.Add(u)
	}

	// Historical snapshots used the key "project_role_actor_users".
	projectUsers := snap.ProjectRoleActorUsers
	if projectUsers == nil {
		projectUsers = snap.ProjectUsers
	}
	for _, u := range projectUsers {
		st.ProjectUsers.Add(u)
	}

	if snap.InternalDirectoryID != nil {
		st.InternalDirectoryID = *snap.InternalDirectoryID
	}
	for _, id := range snap.DropOSPropertyIDs {
		st.DropOSPropertyIDs.Add(id)
	}
	for id, key := range snap.OSProperties {
		st.OSProperties[id] = ParsePropertyKey(key)
	}
	for category, ids := range snap.SchemeIDs {
		st.SchemeIDs[category] = NewSet(ids...)
	}
	for _, w := range snap.Workflows {
		st.Workflows.Add(w)
	}
	return st, nil
}
