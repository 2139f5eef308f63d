// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"
)

func TestRenderOutputJSON(t *testing.T) {
	in := []map[string]any{
		{"name": "edge-1", "serialNumber": "SN1"},
		{"name": "edge-2", "serialNumber": "SN2"},
	}

	var buf bytes.Buffer
	require.NoError(t, renderOutput(&buf, in, "json"))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, in, got)
	assert.Contains(t, buf.String(), "  \"name\": \"edge-1\"")
}

func TestRenderOutputYAML(t *testing.T) {
	in := map[string]any{"name": "edge-1", "connectionStatus": "online"}

	var buf bytes.Buffer
	require.NoError(t, renderOutput(&buf, in, "yaml"))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, in, got)
}

func TestRenderOutputTable(t *testing.T) {
	in := []map[string]any{
		{"name": "edge-1", "serialNumber": "SN1", "connectionStatus": "online", "created": 123},
		{"name": "edge-2", "serialNumber": "SN2", "connectionStatus": "offline", "created": 456},
	}

	var buf bytes.Buffer
	require.NoError(t, renderOutput(&buf, in, "table"))
	out := buf.String()

	assert.Contains(t, out, "name")
	assert.Contains(t, out, "serialNumber")
	assert.Contains(t, out, "connectionStatus")
	assert.NotContains(t, out, "created")
	assert.Contains(t, out, "edge-1")
	assert.Contains(t, out, "SN2")
	assert.Contains(t, out, "offline")
}

func TestRenderOutputTableSingleObject(t *testing.T) {
	in := map[string]any{"key": "env", "value": "prod"}

	var buf bytes.Buffer
	require.NoError(t, renderOutput(&buf, in, "table"))

	assert.Contains(t, buf.String(), "key")
	assert.Contains(t, buf.String(), "prod")
}

func TestRenderOutputTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderOutput(&buf, []map[string]any{}, "table"))
	assert.Equal(t, "(no results)\n", buf.String())
}

func TestRenderOutputTableFallsBackToJSON(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{name: "no candidate columns", in: []map[string]any{{"created": 123, "updated": 456}}},
		{name: "scalar payload", in: "just a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, renderOutput(&buf, tt.in, "table"))

			var got any
			assert.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		})
	}
}
