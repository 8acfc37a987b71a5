// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sbfmt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoConfig is wrapped by errors reporting a report file whose
// configuration name cannot be determined.
var ErrNoConfig = errors.New("no configuration name")

// A ConfigError reports a report file that is not inside a directory
// named after its configuration.
type ConfigError struct {
	Path string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s needs to be in a directory named after the config name", e.Path)
}

func (e *ConfigError) Unwrap() error {
	return ErrNoConfig
}

// ConfigName returns the configuration name of the report at path,
// which is the name of the directory containing it. It returns a
// *ConfigError if path names no such directory, as for "run.log" or
// "/run.log".
func ConfigName(path string) (string, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(dir)
	if dir == "." || name == "." || name == string(filepath.Separator) || strings.TrimSpace(name) == "" {
		return "", &ConfigError{path}
	}
	return name, nil
}

// A Files reads sysbench reports from a sequence of input files and
// groups them by configuration.
//
// By default the configuration of each file is the name of the
// directory containing it. If AllowLabels is true, then entries in
// Paths may be of the form config=path to name the configuration
// explicitly.
type Files struct {
	// Paths is the list of file names to read in.
	Paths []string

	// AllowLabels indicates that entries in Paths may be of the
	// form config=path.
	AllowLabels bool

	// Progress, if non-nil, is called after each file is read
	// successfully.
	Progress func(path, config string)

	reader Reader
}

type input struct {
	path, config string
}

// inputs resolves the configuration of every path. It fails before
// any file is opened if a configuration name cannot be determined.
func (f *Files) inputs() ([]input, error) {
	inputs := make([]input, 0, len(f.Paths))
	for _, path := range f.Paths {
		if i := strings.Index(path, "="); f.AllowLabels && i > 0 {
			inputs = append(inputs, input{path[i+1:], path[:i]})
			continue
		}
		config, err := ConfigName(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input{path, config})
	}
	return inputs, nil
}

// Configs returns the configuration name of each path, in order.
func (f *Files) Configs() ([]string, error) {
	inputs, err := f.inputs()
	if err != nil {
		return nil, err
	}
	configs := make([]string, len(inputs))
	for i, inp := range inputs {
		configs[i] = inp.config
	}
	return configs, nil
}

// ReadInto reads every file in order, recording its observations into
// the results of its configuration. It stops at the first error.
func (f *Files) ReadInto(results Results) error {
	inputs, err := f.inputs()
	if err != nil {
		return err
	}
	for _, inp := range inputs {
		if err := f.readFile(inp.path, results.Config(inp.config)); err != nil {
			return err
		}
		if f.Progress != nil {
			f.Progress(inp.path, inp.config)
		}
	}
	return nil
}

func (f *Files) readFile(path string, into ModeResults) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	f.reader.Reset(file, path)
	return f.reader.ReadInto(into)
}
