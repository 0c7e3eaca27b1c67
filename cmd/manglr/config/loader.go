// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultProgressInterval is applied when the job file leaves
// progress_interval unset.
const DefaultProgressInterval = 10000

// Load reads and validates a job file. Unknown keys are rejected so a
// misspelled option fails the run instead of silently doing nothing.
func Load(path string) (*JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("job config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates a job file already in memory.
func Parse(data []byte) (*JobConfig, error) {
	var cfg JobConfig

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}

	if cfg.ProgressInterval == 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	return &cfg, nil
}

// check applies the semantic validation the struct tags can't express.
func (c *JobConfig) check() error {
	for _, pattern := range c.Entities.DropOSProperty {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("bad drop_osproperty pattern %q: %w", pattern, err)
		}
	}
	for spelling := range c.Entities.RewriteOSProperty {
		if !strings.Contains(spelling, "/") {
			return fmt.Errorf("rewrite_osproperty key %q is not an entity/key pair", spelling)
		}
	}
	for _, pattern := range c.ActiveObjects.ClearTables {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("bad clear_tables pattern %q: %w", pattern, err)
		}
	}
	for user, attrs := range c.Entities.ModifyUsers {
		if len(attrs) == 0 {
			return fmt.Errorf("modify_users entry %q has no attribute overrides", user)
		}
	}
	return nil
}
