// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	// Unknown names fall back to Info.
	assert.Equal(t, LevelInfo, ParseLevel("chatty"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestLoggerLevelFiltering(t *testing.T) {
	log := New(Config{Level: LevelWarn, Quiet: true})
	defer log.Close()

	assert.False(t, log.Enabled(LevelDebug))
	assert.False(t, log.Enabled(LevelInfo))
	assert.True(t, log.Enabled(LevelWarn))
	assert.True(t, log.Enabled(LevelError))
}

func TestLoggerFileOutput(t *testing.T) {
	dir := t.TempDir()

	log := New(Config{Level: LevelInfo, LogDir: dir, Service: "scan", Quiet: true})
	log.Info("scan complete", "records", 42)
	log.With("phase", "closure").Debug("suppressed", "rounds", 3)
	require.NoError(t, log.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "scan_"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "scan complete")
	assert.Contains(t, string(data), `"records":42`)
	assert.NotContains(t, string(data), "suppressed")
}

func TestLoggerCloseWithoutFileIsNoop(t *testing.T) {
	log := New(Config{Quiet: true})
	require.NoError(t, log.Close())
	require.NoError(t, log.Close())
}
