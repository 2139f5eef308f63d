// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// ValidWorkloadTypes defines the workload types the Management System provisions.
var ValidWorkloadTypes = []string{"docker", "codesys", "vm", "docker-compose"}

var validWorkloadTypesAny = func() []interface{} {
	result := make([]interface{}, len(ValidWorkloadTypes))
	for i, s := range ValidWorkloadTypes {
		result[i] = s
	}
	return result
}()

// ValidWorkloadStates defines the deployment states a workload on a node can report.
var ValidWorkloadStates = []string{
	"IDLE", "CREATING", "REMOVING", "SUSPENDING", "SUSPENDED",
	"STARTING", "RESTARTING", "RESUMING", "STARTED", "STOPPING",
	"STOPPED", "ERROR", "REMOVING_FAILED", "PARTIALLY_RUNNING",
}

// ValidControlCommands defines the state-change commands accepted by deployed workloads.
var ValidControlCommands = []string{"start", "stop", "restart", "pause", "resume", "suspend", "undeploy"}

// Label is a key/value tag attached to nodes by the Management System.
type Label struct {
	ID    string `json:"_id,omitempty" mapstructure:"_id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Node is one entry of the fleet inventory.
type Node struct {
	Name             string  `json:"name"`
	SerialNumber     string  `json:"serialNumber"`
	ConnectionStatus string  `json:"connectionStatus"`
	Model            string  `json:"model,omitempty"`
	FirmwareVersion  string  `json:"currentFWVersion,omitempty" mapstructure:"currentFWVersion"`
	Labels           []Label `json:"labels,omitempty"`
}

// NodeDetails carries the per-node view including capabilities.
type NodeDetails struct {
	Node         `mapstructure:",squash"`
	Capabilities []string       `json:"capabilities,omitempty"`
	RemoteAccess bool           `json:"remoteAccess,omitempty"`
	Extra        map[string]any `json:"-" mapstructure:",remain"`
}

// TreeElement is one element of the node hierarchy (folders and nodes).
type TreeElement struct {
	ID       string        `json:"_id"`
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Device   string        `json:"device,omitempty"`
	Children []TreeElement `json:"children,omitempty"`
}

// NodeWorkload is a workload as deployed on a particular node.
type NodeWorkload struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	WorkloadID  string `json:"_id"`
	VersionID   string `json:"version_id"`
	VersionName string `json:"version_name"`
	State       string `json:"state"`
	DeviceID    string `json:"device_id"`
}

// VersionFile is one artifact belonging to a workload version.
type VersionFile struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"originalName"`
	Path string `json:"path,omitempty"`
	Size int64  `json:"size"`
}

// WorkloadVersion is one released version of a catalog workload.
type WorkloadVersion struct {
	ID          string         `json:"_id"`
	Name        string         `json:"name"`
	ReleaseName string         `json:"releaseName,omitempty"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`
	OverallSize int64          `json:"overall_size,omitempty"`
	Files       []VersionFile  `json:"files,omitempty"`
	Properties  map[string]any `json:"workloadProperties,omitempty"`
}

// TotalSize returns the summed size of the version's files in bytes.
func (v WorkloadVersion) TotalSize() int64 {
	var total int64
	for _, f := range v.Files {
		total += f.Size
	}
	return total
}

// Workload is one entry of the Management System workload catalog.
type Workload struct {
	ID       string            `json:"_id"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Disabled bool              `json:"disabled"`
	Versions []WorkloadVersion `json:"versions,omitempty"`
}

// definitionHeader is the typed subset of a raw workload definition that
// provisioning validates before anything goes on the wire.
type definitionHeader struct {
	Name     string           `mapstructure:"name"`
	Type     string           `mapstructure:"type"`
	Versions []map[string]any `mapstructure:"versions"`
}

// ValidateDefinition checks a raw workload definition for the fields
// provisioning requires. Extra keys are left alone, the server owns them.
func ValidateDefinition(def map[string]any) error {
	var h definitionHeader
	if err := mapstructure.Decode(def, &h); err != nil {
		return errors.Wrap(err, "decoding workload definition")
	}
	return validation.ValidateStruct(&h,
		validation.Field(&h.Name, validation.Required),
		validation.Field(&h.Type,
			validation.Required,
			validation.In(validWorkloadTypesAny...).Error(
				fmt.Sprintf("must be one of %v", ValidWorkloadTypes))),
		validation.Field(&h.Versions, validation.Required),
	)
}
