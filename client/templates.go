// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// TemplateTypes lists the flavors TemplateDefinition produces. A registry
// template provisions a docker workload pulled from a registry instead of an
// uploaded image archive.
var TemplateTypes = []string{"docker", "registry", "codesys", "vm", "docker-compose"}

// TemplateDefinition returns a ready-to-edit workload definition for one
// template type. The values are placeholders a user adjusts before
// provisioning, chosen so the definition passes ValidateDefinition as is.
func TemplateDefinition(templateType string) (map[string]any, error) {
	if !lo.Contains(TemplateTypes, templateType) {
		return nil, errors.Errorf("unknown template type %q, must be one of %v", templateType, TemplateTypes)
	}

	wlType := templateType
	networks := []any{"bridge"}
	files := []any{}
	remote := map[string]any{
		"type":           "TUNNEL",
		"name":           "test_tunnel",
		"acknowledgment": "No",
		"hostname":       "127.0.0.1",
		"port":           8080,
		"localPort":      8080,
	}

	switch templateType {
	case "docker":
		files = []any{"nginx.tar.gz"}
	case "registry":
		wlType = "docker"
		files = []any{"arvindr226/alpine-ssh"}
	case "codesys":
		files = []any{"CodesysApp.zip"}
	case "vm":
		files = []any{"slitaz_small.qcow2", "slitaz_small.qcow2.xml"}
		networks = []any{map[string]any{"type": "Bridged", "interface": "isolated1"}}
		remote = map[string]any{
			"type":           "TUNNEL",
			"name":           "Remote Desktop",
			"acknowledgment": "No",
			"hostname":       "172.20.2.50",
			"port":           3389,
			"localPort":      3390,
		}
	case "docker-compose":
		remote["serviceName"] = "docker-compose-service"
	}

	version := map[string]any{
		"name":        "test_version",
		"releaseName": "test_release",
		"files":       files,
		"networks":    networks,
		"ports": []any{map[string]any{
			"protocol":       "TCP",
			"host_port":      80,
			"container_port": 8080,
		}},
		"environment_variables": []any{map[string]any{
			"env_variable":    "test_var",
			"container_value": "var_value",
		}},
		"remote_connections": []any{remote},
		"restart_policy":     "always",
		"limit_cpus":         200,
		"limit_memory":       map[string]any{"unit": "MB", "value": 256},
	}
	switch templateType {
	case "vm":
		version["vm_snapshot"] = map[string]any{"enabled": true, "value": 1, "unit": "GB"}
	case "registry":
		version["auth_credentials"] = map[string]any{"username": "", "password": ""}
	}

	return map[string]any{
		"name":        "test_workload",
		"type":        wlType,
		"description": "description text",
		"labels":      []any{},
		"versions":    []any{version},
	}, nil
}
