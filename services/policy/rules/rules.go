// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
This file serves as the bridge between the build system and the runtime logic. It utilizes the Go
embed package to bake the default_rules.yaml file directly into the compiled binary, so the
shipped filtering policy travels with the executable and needs no install-time configuration.
A job config may still point at an external policy file to replace it.
*/

package rules

import (
	_ "embed"
)

// DefaultRules holds the raw byte content of the 'default_rules.yaml' file.
//
// This variable is populated at compile-time using the Go 'embed' directive.
// Pass these bytes to policy.Load to obtain the default rule table.
//
//go:embed default_rules.yaml
var DefaultRules []byte
