// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEntities = `<?xml version="1.0" encoding="UTF-8"?>
<entity-engine-xml date="2026-01-05">
	<Project id="10000" key="OPS" lead="alice"></Project>
	<Issue id="10001" assignee="alice" reporter="bob"></Issue>
	<Action id="20001" author="bob">
		<body>first &lt;comment&gt;</body>
	</Action>
</entity-engine-xml>
`

func drain(t *testing.T, r *Reader) []*Record {
	t.Helper()
	var out []*Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

func TestReaderYieldsTopLevelRecords(t *testing.T) {
	r := NewReader(strings.NewReader(sampleEntities))
	records := drain(t, r)

	require.Len(t, records, 3)
	assert.Equal(t, "Project", records[0].Tag)
	assert.Equal(t, "Issue", records[1].Tag)
	assert.Equal(t, "Action", records[2].Tag)
	assert.Equal(t, 3, r.Count())

	require.NotNil(t, r.Root())
	assert.Equal(t, "entity-engine-xml", r.Root().Tag)
	assert.Equal(t, "2026-01-05", r.Root().Get("date"))
}

func TestReaderKeepsNestedChildrenInsideRecord(t *testing.T) {
	r := NewReader(strings.NewReader(sampleEntities))
	records := drain(t, r)

	action := records[2]
	require.Len(t, action.Children, 1)
	assert.Equal(t, "body", action.Children[0].Tag)
	assert.Equal(t, "first <comment>", action.Children[0].Text)
}

func TestReaderProgressCallback(t *testing.T) {
	r := NewReader(strings.NewReader(sampleEntities))

	var reported []int
	r.SetProgress(2, func(n int) { reported = append(reported, n) })
	drain(t, r)

	assert.Equal(t, []int{2}, reported)
}

func TestReaderMalformedInput(t *testing.T) {
	r := NewReader(strings.NewReader(`<root><Issue id="1"></Issue><Broken></root>`))

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "Issue", rec.Tag)

	_, err = r.Next()
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Records)
	assert.Positive(t, parseErr.Offset)
}

func TestReaderEmptyDocument(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.Next()

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestReaderRootOnlyDocument(t *testing.T) {
	r := NewReader(strings.NewReader(`<entity-engine-xml></entity-engine-xml>`))

	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
	require.NotNil(t, r.Root())
	assert.Equal(t, "entity-engine-xml", r.Root().Tag)
}

func TestSourceOpensFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleEntities), 0600))

	r, err := Source(path).Open()
	require.NoError(t, err)
	defer r.Close()

	records := drain(t, r)
	assert.Len(t, records, 3)
	require.NoError(t, r.Close())
}

func TestSourceMissingFile(t *testing.T) {
	_, err := Source(filepath.Join(t.TempDir(), "missing.xml")).Open()
	require.Error(t, err)
}
