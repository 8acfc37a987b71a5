// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads sbstat's optional YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/perfkit/sbperf/sbfmt"
)

// Config is the contents of a configuration file. Command-line flags
// take precedence over Output.
type Config struct {
	Labels struct {
		// Metrics maps metric keys (e.g., "iops") to labels.
		Metrics map[string]string `yaml:"metrics"`
		// Tests maps test mode keys (e.g., "rndrd") to labels.
		Tests map[string]string `yaml:"tests"`
	} `yaml:"labels"`

	Output Output `yaml:"output"`
}

// Output configures where sbstat writes its results.
type Output struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	PNG    string `yaml:"png"`
	SVG    string `yaml:"svg"`

	// DB is a "driver:dsn" pair, such as "sqlite3:results.db".
	DB string `yaml:"db"`

	// GCS is a gs://bucket/prefix URL. GCSCredentials names a
	// service account key file; if empty, the application default
	// credentials are used.
	GCS            string `yaml:"gcs"`
	GCSCredentials string `yaml:"gcs_credentials"`
}

// Load reads the configuration file at path. Unknown fields are
// errors.
func Load(path string) (Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ApplyLabels overrides labels with the labels configured in c.
func (c Config) ApplyLabels(labels *sbfmt.Labels) error {
	return labels.Override(c.Labels.Metrics, c.Labels.Tests)
}
