// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTag(t *testing.T) {
	for _, tag := range []string{"User", "OSPropertyEntry", "AO_60DB71_BOARDADMINS", "data", "entity-engine-xml"} {
		assert.NoError(t, ValidateTag(tag), tag)
	}
	for _, tag := range []string{"", "<User>", "1User", "User Name", strings.Repeat("x", 65)} {
		assert.Error(t, ValidateTag(tag), tag)
	}
}

func TestValidateAttr(t *testing.T) {
	for _, attr := range []string{"userName", "lowerUserName", "roletypeparameter", "sinkNodeId"} {
		assert.NoError(t, ValidateAttr(attr), attr)
	}
	for _, attr := range []string{"", "user name", "=x"} {
		assert.Error(t, ValidateAttr(attr), attr)
	}
}

func TestValidateSetName(t *testing.T) {
	for _, name := range []string{"workflows", "users.keep", "scheme.PermissionScheme", "osproperty.drop"} {
		assert.NoError(t, ValidateSetName(name), name)
	}
	for _, name := range []string{"", "Users.keep", ".keep", "users..keep", "users keep"} {
		assert.Error(t, ValidateSetName(name), name)
	}
}
