// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceOSDNAGet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/nodes/SN1/service-os/dna/current", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"hostname": "edge-1", "logLevel": "info"})
	})
	mux.HandleFunc("/api/nodes/SN1/service-os/dna/target", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"hostname": "edge-1", "logLevel": "debug"})
	})
	env := newTestEnv(t, mux)
	writeNodesFile(t, env, []nodeRecord{{Name: "edge-1", SerialNumber: "SN1"}})

	err := ServiceOSDNA(context.Background(), env, ServiceOSDNAOptions{File: "nodes.json", GetCurrent: true})
	require.NoError(t, err)
	err = ServiceOSDNA(context.Background(), env, ServiceOSDNAOptions{File: "nodes.json", GetTarget: true})
	require.NoError(t, err)

	var current, target map[string]any
	require.NoError(t, env.Files.Read(filepath.Join("SN1", "current_service_os_dna.json"), &current))
	require.NoError(t, env.Files.Read(filepath.Join("SN1", "target_service_os_dna.json"), &target))
	assert.Equal(t, "info", current["logLevel"])
	assert.Equal(t, "debug", target["logLevel"])
}

func TestServiceOSDNAPutTarget(t *testing.T) {
	var put map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/nodes/SN1/service-os/dna/target", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
		writeJSON(w, map[string]any{})
	})
	env := newTestEnv(t, mux)
	writeNodesFile(t, env, []nodeRecord{{Name: "edge-1", SerialNumber: "SN1"}})
	_, err := env.Files.Write("service_os.json", map[string]any{"hostname": "edge-1", "logLevel": "info"})
	require.NoError(t, err)

	err = ServiceOSDNA(context.Background(), env, ServiceOSDNAOptions{
		File: "nodes.json", PutTarget: "service_os.json",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"hostname": "edge-1", "logLevel": "info"}, put)
}

func TestServiceOSDNACancelAndReapply(t *testing.T) {
	var posts []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/nodes/SN1/service-os/dna/target/cancel", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		posts = append(posts, "cancel")
		writeJSON(w, map[string]any{})
	})
	mux.HandleFunc("/api/nodes/SN1/service-os/dna/target/reapply", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		posts = append(posts, "reapply")
		writeJSON(w, map[string]any{})
	})
	env := newTestEnv(t, mux)
	writeNodesFile(t, env, []nodeRecord{{Name: "edge-1", SerialNumber: "SN1"}})

	require.NoError(t, ServiceOSDNA(context.Background(), env, ServiceOSDNAOptions{File: "nodes.json", Cancel: true}))
	require.NoError(t, ServiceOSDNA(context.Background(), env, ServiceOSDNAOptions{File: "nodes.json", ReApply: true}))
	assert.Equal(t, []string{"cancel", "reapply"}, posts)
}

func TestServiceOSDNAStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/nodes/SN1/service-os/dna/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": "applying"})
	})
	mux.HandleFunc("/api/nodes/SN2/service-os/dna/status", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `[{"message":"no service os target deployed"}]`, http.StatusNotFound)
	})
	env := newTestEnv(t, mux)
	writeNodesFile(t, env, []nodeRecord{
		{Name: "edge-1", SerialNumber: "SN1"},
		{Name: "edge-2", SerialNumber: "SN2"},
	})

	err := ServiceOSDNA(context.Background(), env, ServiceOSDNAOptions{File: "nodes.json", Status: true})
	assert.NoError(t, err, "a node without a target is reported, not an error")
}

func TestServiceOSDNAActionFlags(t *testing.T) {
	env := offlineTestEnv(t)

	err := ServiceOSDNA(context.Background(), env, ServiceOSDNAOptions{File: "nodes.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one of")

	err = ServiceOSDNA(context.Background(), env, ServiceOSDNAOptions{File: "nodes.json", Cancel: true, ReApply: true})
	assert.ErrorContains(t, err, "mutually exclusive")
}
