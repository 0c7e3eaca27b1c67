// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/AleutianAI/manglr/cmd/manglr/config"
	"github.com/AleutianAI/manglr/pkg/logging"
	"github.com/AleutianAI/manglr/services/policy"
	"github.com/AleutianAI/manglr/services/policy/rules"
	"github.com/AleutianAI/manglr/services/resolver"
	"github.com/AleutianAI/manglr/services/stream"
)

func newLogger(service string) *logging.Logger {
	return logging.New(logging.Config{
		Level:   logging.ParseLevel(logLevel),
		LogDir:  logDir,
		Service: service,
		Quiet:   quiet,
	})
}

// loadJob reads the --config job file; without one, every identity filter
// is disabled and only the rule table's unconditional behavior applies.
func loadJob() (*config.JobConfig, error) {
	if configPath == "" {
		return &config.JobConfig{ProgressInterval: config.DefaultProgressInterval}, nil
	}
	return config.Load(configPath)
}

// resolveState loads a snapshot when --load-state was given, otherwise
// scans the input.
func resolveState(job *config.JobConfig, log *logging.Logger) (*resolver.State, error) {
	if statePath != "" {
		log.Info("loading state", "path", statePath)
		return resolver.Load(statePath)
	}

	scanCfg := job.Entities.ScanConfig()
	scanCfg.ProgressInterval = job.ProgressInterval
	scanCfg.Progress = func(n int) { log.Info("scanning", "records", n) }

	scanner := resolver.NewScanner(scanCfg, log)
	return scanner.Scan(stream.Source(inputPath))
}

// loadTable reads the rule table named by the job config, falling back to
// the embedded default.
func loadTable(job *config.JobConfig) (*policy.Table, error) {
	data := rules.DefaultRules
	if job.Policy.Path != "" {
		var err error
		if data, err = os.ReadFile(job.Policy.Path); err != nil {
			return nil, fmt.Errorf("read rule table: %w", err)
		}
	}
	return policy.Load(data)
}

// bindEngine resolves the rule table against the scan state.
func bindEngine(job *config.JobConfig, st *resolver.State, log *logging.Logger) (*policy.Engine, *resolver.Registry, error) {
	table, err := loadTable(job)
	if err != nil {
		return nil, nil, err
	}
	registry := st.Registry(job.Entities.KeepConfig())
	engine, err := policy.Bind(table, registry, policy.Options{Strict: job.Policy.Strict()}, log)
	if err != nil {
		return nil, nil, err
	}
	return engine, registry, nil
}

// withOutput runs fn against the output sink. A real path is written via a
// temp file and renamed into place only on success; "" or "-" streams to
// stdout.
func withOutput(path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(os.Stdout)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
