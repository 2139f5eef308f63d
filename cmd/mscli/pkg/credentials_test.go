// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"os"
	"path/filepath"
	"testing"

	ini "github.com/go-ini/ini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(envURL, "")
	t.Setenv(envUser, "")
	t.Setenv(envPassword, "")
}

func writeCredentialsFile(t *testing.T, workDir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, credentialsFileName), []byte(content), 0o600))
}

func TestResolveCredentialsPrecedence(t *testing.T) {
	const fileContent = "[ms.example.com]\nusername = file-user\npassword = file-pass\n"

	tests := []struct {
		name     string
		flagUser string
		flagPass string
		env      map[string]string
		want     Credentials
	}{
		{
			name: "file fills unset flags",
			want: Credentials{URL: "ms.example.com", Username: "file-user", Password: "file-pass"},
		},
		{
			name:     "flags beat file",
			flagUser: "flag-user",
			flagPass: "flag-pass",
			want:     Credentials{URL: "ms.example.com", Username: "flag-user", Password: "flag-pass"},
		},
		{
			name:     "fields resolve independently",
			flagUser: "flag-user",
			want:     Credentials{URL: "ms.example.com", Username: "flag-user", Password: "file-pass"},
		},
		{
			name: "file beats env",
			env:  map[string]string{envUser: "env-user", envPassword: "env-pass"},
			want: Credentials{URL: "ms.example.com", Username: "file-user", Password: "file-pass"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			workDir := t.TempDir()
			writeCredentialsFile(t, workDir, fileContent)

			got, err := ResolveCredentials("ms.example.com", tt.flagUser, tt.flagPass, workDir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCredentialsEnvFallback(t *testing.T) {
	t.Run("user and password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(envUser, "env-user")
		t.Setenv(envPassword, "env-pass")

		got, err := ResolveCredentials("ms.example.com", "", "", t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, Credentials{URL: "ms.example.com", Username: "env-user", Password: "env-pass"}, got)
	})

	t.Run("environment alone resolves everything", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(envURL, "env.example.com")
		t.Setenv(envUser, "env-user")
		t.Setenv(envPassword, "env-pass")

		got, err := ResolveCredentials("", "", "", t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, Credentials{URL: "env.example.com", Username: "env-user", Password: "env-pass"}, got)
	})
}

func TestResolveCredentialsHostSelection(t *testing.T) {
	const twoHosts = "[ms-a.example.com]\nusername = a\npassword = pa\n" +
		"[ms-b.example.com]\nusername = b\npassword = pb\n"

	t.Run("single section selects host", func(t *testing.T) {
		clearEnv(t)
		workDir := t.TempDir()
		writeCredentialsFile(t, workDir, "[ms.example.com]\nusername = u\npassword = p\n")

		got, err := ResolveCredentials("", "", "", workDir)
		require.NoError(t, err)
		assert.Equal(t, Credentials{URL: "ms.example.com", Username: "u", Password: "p"}, got)
	})

	t.Run("multiple sections without host are ambiguous", func(t *testing.T) {
		clearEnv(t)
		workDir := t.TempDir()
		writeCredentialsFile(t, workDir, twoHosts)

		_, err := ResolveCredentials("", "", "", workDir)
		var ambiguous *AmbiguousCredentialsFileError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, []string{"ms-a.example.com", "ms-b.example.com"}, ambiguous.Hosts)
		assert.Contains(t, ambiguous.Error(), "ms-a.example.com")
	})

	t.Run("env URL disambiguates", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(envURL, "ms-b.example.com")
		workDir := t.TempDir()
		writeCredentialsFile(t, workDir, twoHosts)

		got, err := ResolveCredentials("", "", "", workDir)
		require.NoError(t, err)
		assert.Equal(t, Credentials{URL: "ms-b.example.com", Username: "b", Password: "pb"}, got)
	})

	t.Run("flag disambiguates", func(t *testing.T) {
		clearEnv(t)
		workDir := t.TempDir()
		writeCredentialsFile(t, workDir, twoHosts)

		got, err := ResolveCredentials("ms-a.example.com", "", "", workDir)
		require.NoError(t, err)
		assert.Equal(t, Credentials{URL: "ms-a.example.com", Username: "a", Password: "pa"}, got)
	})

	t.Run("no URL anywhere is a configuration error", func(t *testing.T) {
		clearEnv(t)
		_, err := ResolveCredentials("", "", "", t.TempDir())
		assert.ErrorIs(t, err, ErrMissingConfiguration)
	})

	t.Run("empty file behaves as absent", func(t *testing.T) {
		clearEnv(t)
		workDir := t.TempDir()
		writeCredentialsFile(t, workDir, "\n")

		_, err := ResolveCredentials("", "", "", workDir)
		assert.ErrorIs(t, err, ErrMissingConfiguration)
	})
}

func TestResolveCredentialsStripsScheme(t *testing.T) {
	tests := []struct {
		name    string
		flagURL string
		envURL  string
		want    string
	}{
		{name: "https flag", flagURL: "https://ms.example.com", want: "ms.example.com"},
		{name: "http flag with trailing slash", flagURL: "http://ms.example.com/", want: "ms.example.com"},
		{name: "env URL", envURL: "https://env.example.com", want: "env.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.envURL != "" {
				t.Setenv(envURL, tt.envURL)
			}
			got, err := ResolveCredentials(tt.flagURL, "user", "pass", t.TempDir())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.URL)
		})
	}
}

func TestResolveCredentialsUnresolvedStayEmpty(t *testing.T) {
	clearEnv(t)
	got, err := ResolveCredentials("ms.example.com", "", "", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got.Username)
	assert.Empty(t, got.Password)
}

func TestResolveCredentialsMalformedFile(t *testing.T) {
	clearEnv(t)
	workDir := t.TempDir()
	writeCredentialsFile(t, workDir, "not an ini file at all\n")

	_, err := ResolveCredentials("ms.example.com", "", "", workDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), credentialsFileName)
}

func TestStoreCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), credentialsFileName)

	require.NoError(t, StoreCredentials(path, Credentials{URL: "ms-a.example.com", Username: "a", Password: "pa"}))
	require.NoError(t, StoreCredentials(path, Credentials{URL: "ms-b.example.com", Username: "b", Password: "pb"}))
	// An empty password must not wipe the stored one.
	require.NoError(t, StoreCredentials(path, Credentials{URL: "ms-a.example.com", Username: "a2"}))

	cfg, err := ini.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "a2", cfg.Section("ms-a.example.com").Key("username").String())
	assert.Equal(t, "pa", cfg.Section("ms-a.example.com").Key("password").String())
	assert.Equal(t, "b", cfg.Section("ms-b.example.com").Key("username").String())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
