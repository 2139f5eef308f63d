// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	cli "github.com/urfave/cli/v2"

	"github.com/nvidia/management-system-cli/client"
)

func nodesWorkloadsStateCommand() *cli.Command {
	return &cli.Command{
		Name:  "nodes_workloads_state",
		Usage: "Send a state change to every workload listed in the nodes file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Nodes file, typically narrowed down with nodes_list workload filters first",
				Value:   "nodes.json",
			},
			&cli.StringFlag{
				Name:     "state",
				Aliases:  []string{"s"},
				Usage:    "Command to send: " + strings.Join(client.ValidControlCommands, ", "),
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			env, err := setupEnv(c)
			if err != nil {
				return err
			}
			return NodesWorkloadsState(c.Context, env, NodesWorkloadsStateOptions{
				File:  c.String("file"),
				State: c.String("state"),
			})
		},
	}
}

// NodesWorkloadsStateOptions name the nodes file and the command sent to
// each of its workloads.
type NodesWorkloadsStateOptions struct {
	File  string
	State string
}

// NodesWorkloadsState sends the given command to every workload of every
// node in the nodes file. Workload entries without a device id cannot be
// addressed and are skipped with a warning.
func NodesWorkloadsState(ctx context.Context, env *Env, opts NodesWorkloadsStateOptions) error {
	if !lo.Contains(client.ValidControlCommands, strings.ToLower(opts.State)) {
		return errors.Errorf("invalid state %q, must be one of %v", opts.State, client.ValidControlCommands)
	}

	var nodes []nodeRecord
	if err := env.Files.Read(opts.File, &nodes); err != nil {
		return err
	}
	ms, err := env.Client()
	if err != nil {
		return err
	}

	for _, node := range nodes {
		for _, wl := range node.Workloads {
			if wl.DeviceID == "" {
				env.Log.Warn().Msgf("workload %s on node %s carries no device id, skipping", wl.Name, node.Name)
				continue
			}
			env.Log.Info().Msgf("sending %s to workload %s on node %s", opts.State, wl.Name, node.Name)
			if err := ms.ControlWorkload(ctx, node.SerialNumber, wl.DeviceID, opts.State); err != nil {
				return err
			}
		}
	}
	return nil
}
