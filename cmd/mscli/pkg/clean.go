// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// serverOwnedKeys are assigned by the Management System when a workload is
// provisioned and must not travel back on a new provisioning request.
var serverOwnedKeys = mapset.NewSet(
	"createdBy",
	"_id",
	"createdAt",
	"hash",
	"isDeployable",
	"overall_size",
	"summarizedFileStatuses",
	"numberOfServices",
)

// CleanDefinition returns a copy of a workload definition with all
// server-owned bookkeeping removed, recursing into nested objects and lists.
func CleanDefinition(def map[string]any) map[string]any {
	cleaned := make(map[string]any, len(def))
	for k, v := range def {
		if serverOwnedKeys.Contains(k) {
			continue
		}
		cleaned[k] = cleanValue(v)
	}
	return cleaned
}

func cleanValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CleanDefinition(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cleanValue(item)
		}
		return out
	default:
		return v
	}
}
