// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateDefinition(t *testing.T) {
	for _, templateType := range TemplateTypes {
		t.Run(templateType, func(t *testing.T) {
			def, err := TemplateDefinition(templateType)
			require.NoError(t, err)
			assert.NoError(t, ValidateDefinition(def), "templates must provision without edits")
			assert.Equal(t, "test_workload", def["name"])
		})
	}
}

func TestTemplateDefinitionRegistryIsDocker(t *testing.T) {
	def, err := TemplateDefinition("registry")
	require.NoError(t, err)
	assert.Equal(t, "docker", def["type"])
}

func TestTemplateDefinitionVM(t *testing.T) {
	def, err := TemplateDefinition("vm")
	require.NoError(t, err)

	versions, ok := def["versions"].([]any)
	require.True(t, ok)
	require.Len(t, versions, 1)
	version, ok := versions[0].(map[string]any)
	require.True(t, ok)

	assert.Contains(t, version, "vm_snapshot")
	assert.Equal(t, []any{"slitaz_small.qcow2", "slitaz_small.qcow2.xml"}, version["files"])
}

func TestTemplateDefinitionUnknownType(t *testing.T) {
	_, err := TemplateDefinition("lxc")
	assert.Error(t, err)
}
