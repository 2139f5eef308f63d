// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	cli "github.com/urfave/cli/v2"

	"github.com/nvidia/management-system-cli/client"
	"github.com/nvidia/management-system-cli/cmd/mscli/pkg/interactive"
)

func nodesRebootCommand() *cli.Command {
	return &cli.Command{
		Name:  "nodes_reboot",
		Usage: "Reboot the nodes of the nodes file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Nodes file",
				Value:   "nodes.json",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Reboot without asking per node",
			},
		},
		Action: func(c *cli.Context) error {
			env, err := setupEnv(c)
			if err != nil {
				return err
			}
			return NodesReboot(c.Context, env, NodesRebootOptions{
				File: c.String("file"),
				Yes:  c.Bool("yes"),
			})
		},
	}
}

// NodesRebootOptions control the reboot run. Confirm is consulted per node
// unless Yes is set; it defaults to an interactive terminal prompt.
type NodesRebootOptions struct {
	File string
	Yes  bool

	Confirm func(prompt string) (bool, error)
}

// NodesReboot reboots every node of the nodes file, asking per node unless
// --yes was given. Offline nodes are reported and skipped.
func NodesReboot(ctx context.Context, env *Env, opts NodesRebootOptions) error {
	if opts.Confirm == nil {
		opts.Confirm = interactive.Confirm
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
		if !opts.Yes {
			ok, err := opts.Confirm(fmt.Sprintf("Reboot node %s (%s)? (y/n): ", node.Name, node.SerialNumber))
			if err != nil {
				return err
			}
			if !ok {
				env.Log.Info().Msgf("skipping node %s", node.Name)
				continue
			}
		}
		env.Log.Info().Msgf("triggering reboot of node %s (%s)", node.Name, node.SerialNumber)
		if err := ms.RebootNode(ctx, node.SerialNumber); err != nil {
			if errors.Is(err, client.ErrNodeOffline) {
				env.Log.Warn().Msgf("node %s is currently offline and cannot be rebooted", node.Name)
				continue
			}
			return err
		}
	}
	return nil
}
