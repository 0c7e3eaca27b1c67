// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mangler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/manglr/services/resolver"
)

func TestVerifyFlagsRejectedIdentifiers(t *testing.T) {
	src := writeSource(t, "entities.xml", entityFixture)

	report, err := Verify(src, resolver.NewSet("bob", "carol"), testLogger())
	require.NoError(t, err)

	// bob: User row + Issue reporter. carol: User row + Issue assignee.
	// The Issue record counts once despite two flagged attributes.
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 3, report.Flagged)
	assert.Equal(t, 2, report.FlaggedByTag["User"])
	assert.Equal(t, 1, report.FlaggedByTag["Issue"])
	assert.False(t, report.Clean())
}

func TestVerifyCleanAfterFiltering(t *testing.T) {
	st := resolver.NewState()
	st.AllUsers.AddAll(resolver.NewSet("alice", "bob", "carol"))

	keep := resolver.KeepConfig{
		KeepUsers:    []string{"alice"},
		RewriteUsers: map[string]string{"carol": "user-1"},
		DropUsers:    []string{"bob"},
	}

	engine, registry := bindEntityEngine(t, st, keep)
	run := New(NewEntityFilter(engine), Config{}, testLogger())

	var out bytes.Buffer
	_, err := run.Run(writeSource(t, "entities.xml", strictEntityFixture), &out)
	require.NoError(t, err)

	report, err := Verify(writeSource(t, "filtered.xml", out.String()),
		registry.RejectedUsers(), testLogger())
	require.NoError(t, err)

	assert.True(t, report.Clean(), "filtered output must not reference rejected users")
}

// strictEntityFixture avoids the lenient pass-through: the dropped user is
// not referenced by surviving records.
const strictEntityFixture = `<?xml version="1.0" encoding="UTF-8"?>
<entity-engine-xml>
	<User id="1" userName="alice" directoryId="1"></User>
	<User id="2" userName="bob" directoryId="1"></User>
	<User id="3" userName="carol" directoryId="1"></User>
	<Issue id="10001" assignee="carol" reporter="alice"></Issue>
	<AuditLog id="1"></AuditLog>
</entity-engine-xml>
`

func TestVerifyEmptyRejectedSetIsAlwaysClean(t *testing.T) {
	report, err := Verify(writeSource(t, "entities.xml", entityFixture),
		resolver.NewSet(), testLogger())
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 6, report.Total)
}
