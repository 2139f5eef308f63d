// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvidia/management-system-cli/client"
)

func TestNodesWorkloadsState(t *testing.T) {
	var commands []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/nodes/SN1/workloads/dev-1/control", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		commands = append(commands, body["command"])
		writeJSON(w, map[string]any{})
	})
	env := newTestEnv(t, mux)
	writeNodesFile(t, env, []nodeRecord{
		{
			Name: "edge-1", SerialNumber: "SN1",
			Workloads: []client.NodeWorkload{
				{Name: "agent", DeviceID: "dev-1"},
				{Name: "orphan", DeviceID: ""},
			},
		},
		{Name: "edge-2", SerialNumber: "SN2"},
	})

	err := NodesWorkloadsState(context.Background(), env, NodesWorkloadsStateOptions{
		File:  "nodes.json",
		State: "stop",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"STOP"}, commands,
		"only the addressable workload is controlled, entries without a device id are skipped")
}

func TestNodesWorkloadsStateRejectsUnknownCommand(t *testing.T) {
	env := offlineTestEnv(t)
	err := NodesWorkloadsState(context.Background(), env, NodesWorkloadsStateOptions{
		File:  "nodes.json",
		State: "explode",
	})
	assert.ErrorContains(t, err, "invalid state")
}
