// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutNodeDNATarget(t *testing.T) {
	files := map[string][]byte{
		"dna.yaml": []byte("workloads:\n  - name: monitoring-agent\n"),
		"prod.env": []byte("STAGE=prod\n"),
	}

	var gotQuery map[string]string
	var gotZip []byte
	mux := withLogin(http.NewServeMux())
	mux.HandleFunc("/api/nodes/S1/dna/target", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotQuery = map[string]string{
			"restartAllWorkloads":  r.URL.Query().Get("restartAllWorkloads"),
			"continueAfterRestart": r.URL.Query().Get("continueAfterRestart"),
		}
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "config.zip", header.Filename)
		gotZip, err = io.ReadAll(file)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	})

	c, _ := newTestClient(t, mux)
	err := c.PutNodeDNATarget(context.Background(), "S1", files, DNAOptions{RestartAllWorkloads: true})
	require.NoError(t, err)

	assert.Equal(t, "true", gotQuery["restartAllWorkloads"])
	assert.Equal(t, "false", gotQuery["continueAfterRestart"])

	zr, err := zip.NewReader(bytes.NewReader(gotZip), int64(len(gotZip)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	unpacked := map[string][]byte{}
	for _, zf := range zr.File {
		entry, err := zf.Open()
		require.NoError(t, err)
		payload, err := io.ReadAll(entry)
		require.NoError(t, err)
		require.NoError(t, entry.Close())
		unpacked[zf.Name] = payload
	}
	assert.Equal(t, files, unpacked)
}

func TestPutNodeDNATargetEmpty(t *testing.T) {
	c, _ := newTestClient(t, withLogin(http.NewServeMux()))
	err := c.PutNodeDNATarget(context.Background(), "S1", nil, DNAOptions{})
	assert.Error(t, err)
}

func TestNodeDNAViews(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) (map[string]any, error)
		path string
	}{
		{
			name: "current",
			call: func(c *Client) (map[string]any, error) { return c.NodeDNACurrent(context.Background(), "S1") },
			path: "/api/nodes/S1/dna/current",
		},
		{
			name: "target",
			call: func(c *Client) (map[string]any, error) { return c.NodeDNATarget(context.Background(), "S1") },
			path: "/api/nodes/S1/dna/target",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			mux := withLogin(http.NewServeMux())
			mux.HandleFunc("/api/nodes/S1/dna/", func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				writeJSON(w, map[string]any{"dna.yaml": map[string]any{"view": tt.name}})
			})

			c, _ := newTestClient(t, mux)
			out, err := tt.call(c)
			require.NoError(t, err)
			assert.Equal(t, tt.path, gotPath)
			require.Contains(t, out, "dna.yaml")
		})
	}
}

func TestNodeDNAStatus(t *testing.T) {
	mux := withLogin(http.NewServeMux())
	mux.HandleFunc("/api/nodes/S1/dna/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "APPLIED"})
	})
	mux.HandleFunc("/api/nodes/S2/dna/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`[{"message": "no DNA configuration deployed"}]`))
	})

	c, _ := newTestClient(t, mux)

	status, err := c.NodeDNAStatus(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, "APPLIED", status)

	_, err = c.NodeDNAStatus(context.Background(), "S2")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestServiceOSDNALifecycle(t *testing.T) {
	var gotPaths []string
	var gotTarget map[string]any
	mux := withLogin(http.NewServeMux())
	mux.HandleFunc("/api/nodes/S1/service-os/dna/", func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotTarget))
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/api/nodes/S1/service-os/dna/current":
			writeJSON(w, map[string]any{"image": "service-os-1.2"})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})

	c, _ := newTestClient(t, mux)

	current, err := c.ServiceOSDNACurrent(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, "service-os-1.2", current["image"])

	require.NoError(t, c.PutServiceOSDNATarget(context.Background(), "S1", map[string]any{"image": "service-os-1.3"}))
	assert.Equal(t, "service-os-1.3", gotTarget["image"])

	assert.Error(t, c.PutServiceOSDNATarget(context.Background(), "S1", nil))

	require.NoError(t, c.CancelServiceOSDNA(context.Background(), "S1"))
	require.NoError(t, c.ReapplyServiceOSDNA(context.Background(), "S1"))

	assert.Equal(t, []string{
		"GET /api/nodes/S1/service-os/dna/current",
		"PUT /api/nodes/S1/service-os/dna/target",
		"POST /api/nodes/S1/service-os/dna/target/cancel",
		"POST /api/nodes/S1/service-os/dna/target/reapply",
	}, gotPaths)
}
