// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	yaml "gopkg.in/yaml.v3"
)

// Workfiles reads and writes the command input/output files below the work
// directory. The file extension picks the codec: .json and .yaml/.yml are
// structured, anything else is plain text. Names without an extension get
// .json appended.
type Workfiles struct {
	Dir string
	Log zerolog.Logger
}

// NewWorkfiles returns a Workfiles rooted at dir.
func NewWorkfiles(dir string, log zerolog.Logger) Workfiles {
	return Workfiles{Dir: dir, Log: log}
}

// Resolve turns a user-supplied file name into the on-disk path. Absolute
// paths are kept, everything else lands below the work directory.
func (w Workfiles) Resolve(name string) string {
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(w.Dir, name)
}

// Exists reports whether the resolved file is present.
func (w Workfiles) Exists(name string) bool {
	_, err := os.Stat(w.Resolve(name))
	return err == nil
}

// Write encodes content into the resolved file, creating parent directories
// as needed. Unstructured extensions are written as plain text.
func (w Workfiles) Write(name string, content any) (string, error) {
	path := w.Resolve(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrapf(err, "creating directory for %s", path)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(content, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(content)
	default:
		data = []byte(cast.ToString(content))
	}
	if err != nil {
		return "", errors.Wrapf(err, "encoding %s", path)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing file %s", path)
	}
	w.Log.Info().Msgf("file %q written", path)
	return path, nil
}

// Read decodes the resolved file into out. For unstructured extensions out
// must be a *string or *[]byte.
func (w Workfiles) Read(name string, out any) error {
	path := w.Resolve(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading file %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrapf(err, "parsing %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return errors.Wrapf(err, "parsing %s", path)
		}
	default:
		switch v := out.(type) {
		case *string:
			*v = string(data)
		case *[]byte:
			*v = data
		default:
			return errors.Errorf("file %s is plain text, cannot decode into %T", path, out)
		}
	}
	return nil
}

// ReadBytes returns the raw content of the resolved file.
func (w Workfiles) ReadBytes(name string) ([]byte, error) {
	path := w.Resolve(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading file %s", path)
	}
	return data, nil
}
