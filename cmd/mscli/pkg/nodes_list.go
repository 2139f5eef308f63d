// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	cli "github.com/urfave/cli/v2"

	"github.com/nvidia/management-system-cli/client"
)

func nodesListCommand() *cli.Command {
	return &cli.Command{
		Name:  "nodes_list",
		Usage: "Write the nodes of the Management System to the nodes file, with optional filters",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Nodes file",
				Value:   "nodes.json",
			},
			&cli.BoolFlag{
				Name:    "add",
				Aliases: []string{"a"},
				Usage:   "Append to the nodes file instead of overwriting it",
			},
			&cli.BoolFlag{
				Name:    "node_connected",
				Aliases: []string{"nc"},
				Usage:   "Keep online nodes only",
			},
			&cli.StringFlag{
				Name:    "node_name",
				Aliases: []string{"nn"},
				Usage:   "Filter on node name, prefix with regex: for a pattern",
			},
			&cli.StringFlag{
				Name:    "node_path",
				Aliases: []string{"np"},
				Usage:   "Filter on the node path, folder names joined with '/'",
			},
			&cli.StringFlag{
				Name:    "node_version",
				Aliases: []string{"nv"},
				Usage:   "Filter on the node firmware version",
			},
			&cli.StringFlag{
				Name:    "node_model",
				Aliases: []string{"nm"},
				Usage:   "Filter on the node model",
			},
			&cli.StringFlag{
				Name:    "node_labels",
				Aliases: []string{"nl"},
				Usage:   "Filter on the node labels, rendered as key=K/value=V pairs joined with ','",
			},
			&cli.StringFlag{
				Name:    "workload_name",
				Aliases: []string{"wn"},
				Usage:   "Keep nodes running a workload with this name",
			},
			&cli.StringFlag{
				Name:    "workload_id",
				Aliases: []string{"wid"},
				Usage:   "Keep nodes running the workload with this id",
			},
			&cli.StringFlag{
				Name:    "workload_version_name",
				Aliases: []string{"wvn"},
				Usage:   "Keep nodes running a workload version with this name",
			},
			&cli.StringFlag{
				Name:    "workload_version_id",
				Aliases: []string{"wvid"},
				Usage:   "Keep nodes running the workload version with this id",
			},
			&cli.StringFlag{
				Name:    "workload_status",
				Aliases: []string{"ws"},
				Usage:   "Keep nodes with a workload in this state (" + strings.Join(client.ValidWorkloadStates, ", ") + ")",
			},
			&cli.StringFlag{
				Name:    "workload_type",
				Aliases: []string{"wt"},
				Usage:   "Keep nodes with a workload of this type (" + strings.Join(client.ValidWorkloadTypes, ", ") + ")",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also render the result to stdout (" + strings.Join(OutputFormats, ", ") + ")",
			},
		},
		Action: func(c *cli.Context) error {
			env, err := setupEnv(c)
			if err != nil {
				return err
			}
			return NodesList(c.Context, env, NodesListOptions{
				File:                c.String("file"),
				Add:                 c.Bool("add"),
				NodeConnected:       c.Bool("node_connected"),
				NodeName:            c.String("node_name"),
				NodePath:            c.String("node_path"),
				NodeVersion:         c.String("node_version"),
				NodeModel:           c.String("node_model"),
				NodeLabels:          c.String("node_labels"),
				WorkloadName:        c.String("workload_name"),
				WorkloadID:          c.String("workload_id"),
				WorkloadVersionName: c.String("workload_version_name"),
				WorkloadVersionID:   c.String("workload_version_id"),
				WorkloadStatus:      c.String("workload_status"),
				WorkloadType:        c.String("workload_type"),
				Output:              c.String("output"),
			})
		},
	}
}

// NodesListOptions hold the nodes file target and the node and workload
// filters of one listing.
type NodesListOptions struct {
	File   string
	Add    bool
	Output string

	NodeConnected bool
	NodeName      string
	NodePath      string
	NodeVersion   string
	NodeModel     string
	NodeLabels    string

	WorkloadName        string
	WorkloadID          string
	WorkloadVersionName string
	WorkloadVersionID   string
	WorkloadStatus      string
	WorkloadType        string
}

func (o NodesListOptions) workloadFilterSet() bool {
	return o.WorkloadName != "" || o.WorkloadID != "" || o.WorkloadVersionName != "" ||
		o.WorkloadVersionID != "" || o.WorkloadStatus != "" || o.WorkloadType != ""
}

// nodeRecord is one entry of the nodes file. The downstream commands
// (reboot, workload state, remote connections, DNA) feed on serialNumber
// and workloads.
type nodeRecord struct {
	Name             string                `json:"name"`
	SerialNumber     string                `json:"serialNumber"`
	ConnectionStatus string                `json:"connectionStatus"`
	Model            string                `json:"model"`
	FirmwareVersion  string                `json:"currentFWVersion"`
	Labels           []client.Label        `json:"labels"`
	Path             []string              `json:"path"`
	Workloads        []client.NodeWorkload `json:"workloads,omitempty"`
}

// NodesList writes the fleet inventory to the nodes file. Node filters
// narrow which nodes appear; workload filters additionally require an
// online node running a matching workload.
func NodesList(ctx context.Context, env *Env, opts NodesListOptions) error {
	if opts.WorkloadStatus != "" && !lo.Contains(client.ValidWorkloadStates, opts.WorkloadStatus) {
		return errors.Errorf("invalid workload status %q, must be one of %v", opts.WorkloadStatus, client.ValidWorkloadStates)
	}
	if opts.WorkloadType != "" && !lo.Contains(client.ValidWorkloadTypes, opts.WorkloadType) {
		return errors.Errorf("invalid workload type %q, must be one of %v", opts.WorkloadType, client.ValidWorkloadTypes)
	}
	if opts.Output != "" && !lo.Contains(OutputFormats, opts.Output) {
		return errors.Errorf("invalid output format %q, must be one of %v", opts.Output, OutputFormats)
	}

	nodeName, err := NewFilter(opts.NodeName)
	if err != nil {
		return err
	}
	nodePath, err := NewFilter(opts.NodePath)
	if err != nil {
		return err
	}
	nodeVersion, err := NewFilter(opts.NodeVersion)
	if err != nil {
		return err
	}
	nodeModel, err := NewFilter(opts.NodeModel)
	if err != nil {
		return err
	}
	nodeLabels, err := NewFilter(opts.NodeLabels)
	if err != nil {
		return err
	}
	wlName, err := NewFilter(opts.WorkloadName)
	if err != nil {
		return err
	}
	wlID, err := NewFilter(opts.WorkloadID)
	if err != nil {
		return err
	}
	wlVersionName, err := NewFilter(opts.WorkloadVersionName)
	if err != nil {
		return err
	}
	wlVersionID, err := NewFilter(opts.WorkloadVersionID)
	if err != nil {
		return err
	}

	ms, err := env.Client()
	if err != nil {
		return err
	}
	nodes, err := ms.Nodes(ctx)
	if err != nil {
		return err
	}
	tree, err := ms.NodeTree(ctx)
	if err != nil {
		return err
	}

	output := make([]nodeRecord, 0, len(nodes))
	for _, node := range nodes {
		if !nodeName.Match(node.Name) || !nodeVersion.Match(node.FirmwareVersion) {
			continue
		}

		details, err := ms.Node(ctx, node.SerialNumber)
		if err != nil {
			return err
		}
		rec := nodeRecord{
			Name:             node.Name,
			SerialNumber:     node.SerialNumber,
			ConnectionStatus: node.ConnectionStatus,
			Model:            details.Model,
			FirmwareVersion:  node.FirmwareVersion,
			Labels:           make([]client.Label, 0, len(details.Labels)),
		}
		if !nodeModel.Match(rec.Model) {
			continue
		}

		labelParts := make([]string, 0, len(details.Labels))
		for _, l := range details.Labels {
			rec.Labels = append(rec.Labels, client.Label{Key: l.Key, Value: l.Value})
			labelParts = append(labelParts, fmt.Sprintf("key=%s/value=%s", l.Key, l.Value))
		}
		if !nodeLabels.Match(strings.Join(labelParts, ",")) {
			continue
		}

		rec.Path = findNodePath(tree, node.Name)
		if !nodePath.Match(strings.Join(rec.Path, "/")) {
			continue
		}
		if opts.NodeConnected && node.ConnectionStatus != "online" {
			continue
		}

		var workloadLines []string
		if node.ConnectionStatus == "online" {
			deployed, err := ms.NodeWorkloads(ctx, node.SerialNumber)
			if err != nil {
				return err
			}
			for _, wl := range deployed {
				if !wlName.Match(wl.Name) || !wlVersionName.Match(wl.VersionName) {
					continue
				}
				if !wlID.Match(wl.WorkloadID) || !wlVersionID.Match(wl.VersionID) {
					continue
				}
				if opts.WorkloadStatus != "" && wl.State != opts.WorkloadStatus {
					continue
				}
				if opts.WorkloadType != "" && wl.Type != opts.WorkloadType {
					continue
				}
				rec.Workloads = append(rec.Workloads, wl)
				workloadLines = append(workloadLines,
					fmt.Sprintf("name: %-20s, version: %-20s, status: %s", wl.Name, wl.VersionName, wl.State))
			}
		}
		if opts.workloadFilterSet() && len(rec.Workloads) == 0 {
			continue
		}

		env.Log.Info().Msgf("node %q (%s):\n    status   : %s\n    path     : %s\n    workloads: - %s",
			rec.Name, rec.SerialNumber, rec.ConnectionStatus,
			strings.Join(rec.Path, "/"), strings.Join(workloadLines, "\n               - "))
		output = append(output, rec)
	}

	if opts.Add && env.Files.Exists(opts.File) {
		var existing []nodeRecord
		if err := env.Files.Read(opts.File, &existing); err != nil {
			return err
		}
		output = append(existing, output...)
	}
	if _, err := env.Files.Write(opts.File, output); err != nil {
		return err
	}
	if opts.Output != "" {
		return FormatOutput(output, opts.Output)
	}
	return nil
}

// findNodePath walks the node hierarchy and returns the element names from
// the top of the tree down to the named node, the node itself included.
// Nodes absent from the tree yield nil.
func findNodePath(tree []client.TreeElement, name string) []string {
	for _, elem := range tree {
		if elem.Name == name && elem.Type != "folder" {
			return []string{elem.Name}
		}
		if sub := findNodePath(elem.Children, name); sub != nil {
			return append([]string{elem.Name}, sub...)
		}
	}
	return nil
}
