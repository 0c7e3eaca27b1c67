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
)

func TestSetIgnoresEmptyValues(t *testing.T) {
	s := NewSet("a", "", "b")
	s.Add("")

	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Has(""))
}

func TestSetValuesSorted(t *testing.T) {
	s := NewSet("c", "a", "b")
	assert.Equal(t, []string{"a", "b", "c"}, s.Values())
}

func TestSetCloneIsIndependent(t *testing.T) {
	s := NewSet("a")
	c := s.Clone()
	c.Add("b")

	assert.True(t, c.Has("b"))
	assert.False(t, s.Has("b"))
}

func TestSetRemove(t *testing.T) {
	s := NewSet("a", "b", "c")
	s.Remove(NewSet("b", "x"))
	assert.Equal(t, []string{"a", "c"}, s.Values())
}
