// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvidia/management-system-cli/client"
)

func TestLabelsList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/labels", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"_id": "l-1", "key": "env", "value": "prod"},
			{"_id": "l-2", "key": "site", "value": "berlin"},
		})
	})
	env := newTestEnv(t, mux)

	require.NoError(t, Labels(context.Background(), env, LabelsOptions{File: "labels.json", List: true}))

	var labels []client.Label
	require.NoError(t, env.Files.Read("labels.json", &labels))
	require.Len(t, labels, 2)
	assert.Equal(t, client.Label{Key: "env", Value: "prod"}, labels[0])

	raw, err := env.Files.ReadBytes("labels.json")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "_id", "server ids do not leak into the file")
}

func TestLabelsAdd(t *testing.T) {
	var created []client.Label
	mux := http.NewServeMux()
	mux.HandleFunc("/api/labels", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, []map[string]any{{"_id": "l-1", "key": "env", "value": "prod"}})
		case http.MethodPost:
			var l client.Label
			require.NoError(t, json.NewDecoder(r.Body).Decode(&l))
			created = append(created, l)
			writeJSON(w, map[string]any{"_id": "l-new", "key": l.Key, "value": l.Value})
		default:
			http.NotFound(w, r)
		}
	})
	env := newTestEnv(t, mux)
	_, err := env.Files.Write("labels.json", []client.Label{
		{Key: "env", Value: "prod"},
		{Key: "site", Value: "berlin"},
	})
	require.NoError(t, err)

	require.NoError(t, Labels(context.Background(), env, LabelsOptions{File: "labels.json", Add: true}))
	assert.Equal(t, []client.Label{{Key: "site", Value: "berlin"}}, created, "labels already present are not recreated")
}

func TestLabelsDelete(t *testing.T) {
	var deleted []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/labels", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"_id": "l-1", "key": "env", "value": "prod"}})
	})
	mux.HandleFunc("/api/labels/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		deleted = append(deleted, strings.TrimPrefix(r.URL.Path, "/api/labels/"))
		writeJSON(w, map[string]any{})
	})
	env := newTestEnv(t, mux)
	_, err := env.Files.Write("labels.json", []client.Label{
		{Key: "env", Value: "prod"},
		{Key: "site", Value: "berlin"},
	})
	require.NoError(t, err)

	require.NoError(t, Labels(context.Background(), env, LabelsOptions{File: "labels.json", Delete: true}))
	assert.Equal(t, []string{"l-1"}, deleted, "labels absent on the Management System are only warned about")
}

func TestLabelsActionFlags(t *testing.T) {
	env := offlineTestEnv(t)

	err := Labels(context.Background(), env, LabelsOptions{File: "labels.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one of")

	err = Labels(context.Background(), env, LabelsOptions{File: "labels.json", Add: true, Delete: true})
	assert.ErrorContains(t, err, "mutually exclusive")

	err = Labels(context.Background(), env, LabelsOptions{File: "labels.json", List: true, Output: "csv"})
	assert.ErrorContains(t, err, "invalid output format")
}
