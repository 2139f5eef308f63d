// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nvidia/management-system-cli/client"
)

// newTestEnv wires an Env against a TLS test server serving the given mux.
// The login endpoint every session needs is added here.
func newTestEnv(t *testing.T, mux *http.ServeMux) *Env {
	t.Helper()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"sessionId": "sess-1"})
	})
	ts := httptest.NewTLSServer(mux)
	t.Cleanup(ts.Close)

	workDir := t.TempDir()
	log := zerolog.Nop()
	ms, err := client.New(ts.URL, "admin", "secret",
		client.WithWorkDir(workDir),
		client.WithInsecure(true),
		client.WithRateLimit(1000))
	require.NoError(t, err)

	return &Env{Log: log, Files: NewWorkfiles(workDir, log), client: ms}
}

// offlineTestEnv builds an Env with no Management System behind it, for
// actions that work on local files alone.
func offlineTestEnv(t *testing.T) *Env {
	t.Helper()
	log := zerolog.Nop()
	return &Env{
		Log:       log,
		Files:     NewWorkfiles(t.TempDir(), log),
		clientErr: ErrMissingConfiguration,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeNodesFile seeds the nodes file most commands read.
func writeNodesFile(t *testing.T, env *Env, nodes []nodeRecord) {
	t.Helper()
	_, err := env.Files.Write("nodes.json", nodes)
	require.NoError(t, err)
}
