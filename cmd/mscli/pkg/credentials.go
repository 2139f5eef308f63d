// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ini "github.com/go-ini/ini"
	"github.com/pkg/errors"

	"github.com/nvidia/management-system-cli/client"
)

const (
	credentialsFileName = "credentials.ini"

	envURL      = "MS_URL"
	envUser     = "MS_USR"
	envPassword = "MS_PSW"
)

// ErrMissingConfiguration is returned when no Management System URL can be
// found in flags, the credentials file, or the environment.
var ErrMissingConfiguration = errors.New(
	"no Management System URL provided, set --ms_url, the MS_URL environment variable, or a credentials.ini section")

// AmbiguousCredentialsFileError is returned when the credentials file lists
// several hosts and neither flag nor environment selects one.
type AmbiguousCredentialsFileError struct {
	Path  string
	Hosts []string
}

func (e *AmbiguousCredentialsFileError) Error() string {
	return fmt.Sprintf("credentials file %s lists several hosts (%s), select one with --ms_url or MS_URL",
		e.Path, strings.Join(e.Hosts, ", "))
}

// Credentials is the resolved MS endpoint and login identity. Username and
// password may stay empty; the client reports that as a login failure, not
// a configuration one.
type Credentials struct {
	URL      string
	Username string
	Password string
}

// CredentialsPath returns the location of the credentials file inside the
// work directory.
func CredentialsPath(workDir string) string {
	return filepath.Join(workDir, credentialsFileName)
}

// ResolveCredentials combines flags, the credentials file, and environment
// variables into one login identity. Precedence per field is flag, then the
// file section of the resolved host, then environment. The host itself is
// taken from the flag, from a single-section credentials file, or from
// MS_URL; a multi-section file without an explicit host is ambiguous.
func ResolveCredentials(flagURL, flagUser, flagPassword, workDir string) (Credentials, error) {
	path := CredentialsPath(workDir)
	cfg, hosts, err := loadCredentialsFile(path)
	if err != nil {
		return Credentials{}, err
	}

	host := client.TrimScheme(flagURL)
	if host == "" {
		switch {
		case len(hosts) == 1:
			host = client.TrimScheme(hosts[0])
		case len(hosts) > 1 && os.Getenv(envURL) == "":
			return Credentials{}, &AmbiguousCredentialsFileError{Path: path, Hosts: hosts}
		default:
			host = client.TrimScheme(os.Getenv(envURL))
		}
	}
	if host == "" {
		return Credentials{}, ErrMissingConfiguration
	}

	creds := Credentials{URL: host, Username: flagUser, Password: flagPassword}

	if cfg != nil {
		if sec, err := cfg.GetSection(host); err == nil {
			if creds.Username == "" && sec.HasKey("username") {
				creds.Username = sec.Key("username").String()
			}
			if creds.Password == "" && sec.HasKey("password") {
				creds.Password = sec.Key("password").String()
			}
		}
	}
	if creds.Username == "" {
		creds.Username = os.Getenv(envUser)
	}
	if creds.Password == "" {
		creds.Password = os.Getenv(envPassword)
	}

	return creds, nil
}

// StoreCredentials persists the resolved identity under its host section,
// keeping any other sections in the file. Empty fields do not overwrite
// stored values.
func StoreCredentials(path string, creds Credentials) error {
	cfg, err := ini.LooseLoad(path)
	if err != nil {
		return errors.Wrapf(err, "reading credentials file %s", path)
	}

	sec := cfg.Section(creds.URL)
	if creds.Username != "" {
		sec.Key("username").SetValue(creds.Username)
	}
	if creds.Password != "" {
		sec.Key("password").SetValue(creds.Password)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}
	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return errors.Wrap(err, "encoding credentials")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return errors.Wrapf(err, "writing credentials file %s", path)
	}
	return nil
}

func loadCredentialsFile(path string) (*ini.File, []string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, errors.Wrapf(err, "reading credentials file %s", path)
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "malformed credentials file %s", path)
	}

	var hosts []string
	for _, name := range cfg.SectionStrings() {
		if name == ini.DefaultSection {
			continue
		}
		hosts = append(hosts, name)
	}
	return cfg, hosts, nil
}
