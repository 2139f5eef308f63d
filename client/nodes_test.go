// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeDetailsDecode(t *testing.T) {
	mux := withLogin(http.NewServeMux())
	mux.HandleFunc("/api/nodes/S1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"name":             "edge-1",
			"serialNumber":     "S1",
			"connectionStatus": "online",
			"currentFWVersion": "2.8.0",
			"labels":           []map[string]string{{"_id": "l1", "key": "env", "value": "prod"}},
			"capabilities":     []string{"docker", "vm"},
			"remoteAccess":     true,
			"lastSeenAt":       "2026-08-20T10:00:00Z",
		})
	})

	c, _ := newTestClient(t, mux)
	details, err := c.Node(context.Background(), "S1")
	require.NoError(t, err)

	assert.Equal(t, "edge-1", details.Name)
	assert.Equal(t, "2.8.0", details.FirmwareVersion)
	assert.Equal(t, []string{"docker", "vm"}, details.Capabilities)
	assert.True(t, details.RemoteAccess)
	require.Len(t, details.Labels, 1)
	assert.Equal(t, "l1", details.Labels[0].ID)
	assert.Equal(t, "env", details.Labels[0].Key)
	assert.Contains(t, details.Extra, "lastSeenAt")
}

func TestNodeWorkloads(t *testing.T) {
	mux := withLogin(http.NewServeMux())
	mux.HandleFunc("/api/nodes/S1/workloads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{
				"name":         "monitoring-agent",
				"type":         "docker",
				"_id":          "wl-1",
				"version_id":   "v-1",
				"version_name": "1.0",
				"state":        "STARTED",
				"device_id":    "dev-1",
			},
		})
	})

	c, _ := newTestClient(t, mux)
	wls, err := c.NodeWorkloads(context.Background(), "S1")
	require.NoError(t, err)
	require.Len(t, wls, 1)
	assert.Equal(t, "monitoring-agent", wls[0].Name)
	assert.Equal(t, "wl-1", wls[0].WorkloadID)
	assert.Equal(t, "STARTED", wls[0].State)
	assert.Equal(t, "dev-1", wls[0].DeviceID)
}

func TestRebootNode(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{name: "accepted", statusCode: http.StatusOK, wantErr: nil},
		{name: "node offline", statusCode: http.StatusConflict, wantErr: ErrNodeOffline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := withLogin(http.NewServeMux())
			mux.HandleFunc("/api/nodes/S1/reboot", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				w.WriteHeader(tt.statusCode)
			})

			c, _ := newTestClient(t, mux)
			err := c.RebootNode(context.Background(), "S1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestControlWorkload(t *testing.T) {
	var gotCommand string
	mux := withLogin(http.NewServeMux())
	mux.HandleFunc("/api/nodes/S1/workloads/dev-1/control", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotCommand = body["command"]
		w.WriteHeader(http.StatusOK)
	})

	c, _ := newTestClient(t, mux)
	require.NoError(t, c.ControlWorkload(context.Background(), "S1", "dev-1", "restart"))
	assert.Equal(t, "RESTART", gotCommand, "commands go upper-cased onto the wire")

	err := c.ControlWorkload(context.Background(), "S1", "dev-1", "explode")
	assert.Error(t, err)
}

func TestNodeTree(t *testing.T) {
	mux := withLogin(http.NewServeMux())
	mux.HandleFunc("/api/nodes/tree", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{
				"_id":  "root",
				"name": "Root",
				"type": "folder",
				"children": []map[string]any{
					{"_id": "n1", "name": "edge-1", "type": "node", "device": "S1"},
				},
			},
		})
	})

	c, _ := newTestClient(t, mux)
	tree, err := c.NodeTree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "S1", tree[0].Children[0].Device)
}
