// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"net/http"
	"path/filepath"

	cli "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/nvidia/management-system-cli/client"
)

func serviceOSDNACommand() *cli.Command {
	return &cli.Command{
		Name:  "service_os_dna",
		Usage: "Read or deploy the service OS configuration of the nodes in the nodes file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Nodes file",
				Value:   "nodes.json",
			},
			&cli.StringFlag{
				Name:  "put_target",
				Usage: "Deploy the given configuration file as the new service OS target",
			},
			&cli.BoolFlag{
				Name:  "get_current",
				Usage: "Fetch the service OS configuration each node currently runs",
			},
			&cli.BoolFlag{
				Name:  "get_target",
				Usage: "Fetch the service OS configuration each node converges towards",
			},
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Report the service OS reconciliation status of each node",
			},
			&cli.BoolFlag{
				Name:  "cancel",
				Usage: "Cancel the running service OS target deployment on each node",
			},
			&cli.BoolFlag{
				Name:  "re_apply",
				Usage: "Apply the deployed service OS target again on each node",
			},
		},
		Action: func(c *cli.Context) error {
			env, err := setupEnv(c)
			if err != nil {
				return err
			}
			return ServiceOSDNA(c.Context, env, ServiceOSDNAOptions{
				File:       c.String("file"),
				PutTarget:  c.String("put_target"),
				GetCurrent: c.Bool("get_current"),
				GetTarget:  c.Bool("get_target"),
				Status:     c.Bool("status"),
				Cancel:     c.Bool("cancel"),
				ReApply:    c.Bool("re_apply"),
			})
		},
	}
}

// ServiceOSDNAOptions hold the nodes file and the selected service OS
// action.
type ServiceOSDNAOptions struct {
	File       string
	PutTarget  string
	GetCurrent bool
	GetTarget  bool
	Status     bool
	Cancel     bool
	ReApply    bool
}

// ServiceOSDNA runs one service OS action against every node of the nodes
// file. Fetched configurations are written per node under a directory
// named by its serial number.
func ServiceOSDNA(ctx context.Context, env *Env, opts ServiceOSDNAOptions) error {
	if err := exactlyOneAction(map[string]bool{
		"put_target":  opts.PutTarget != "",
		"get_current": opts.GetCurrent,
		"get_target":  opts.GetTarget,
		"status":      opts.Status,
		"cancel":      opts.Cancel,
		"re_apply":    opts.ReApply,
	}, "put_target", "get_current", "get_target", "status", "cancel", "re_apply"); err != nil {
		return err
	}

	var nodes []nodeRecord
	if err := env.Files.Read(opts.File, &nodes); err != nil {
		return err
	}
	ms, err := env.Client()
	if err != nil {
		return err
	}

	var target map[string]any
	if opts.PutTarget != "" {
		if err := env.Files.Read(opts.PutTarget, &target); err != nil {
			return err
		}
	}

	for _, node := range nodes {
		switch {
		case opts.GetCurrent:
			err = fetchServiceOSDNA(ctx, env, ms, node, "current")
		case opts.GetTarget:
			err = fetchServiceOSDNA(ctx, env, ms, node, "target")
		case opts.Status:
			err = reportServiceOSDNAStatus(ctx, env, ms, node)
		case opts.Cancel:
			if err = ms.CancelServiceOSDNA(ctx, node.SerialNumber); err == nil {
				env.Log.Info().Msgf("service OS target deployment cancelled on node %s", node.Name)
			}
		case opts.ReApply:
			if err = ms.ReapplyServiceOSDNA(ctx, node.SerialNumber); err == nil {
				env.Log.Info().Msgf("service OS target re-apply triggered on node %s", node.Name)
			}
		default:
			if err = ms.PutServiceOSDNATarget(ctx, node.SerialNumber, target); err == nil {
				env.Log.Info().Msgf("service OS configuration deployed to node %s", node.Name)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// fetchServiceOSDNA writes one node's service OS configuration next to its
// DNA files and logs it as YAML.
func fetchServiceOSDNA(ctx context.Context, env *Env, ms *client.Client, node nodeRecord, view string) error {
	var (
		config map[string]any
		err    error
	)
	if view == "current" {
		config, err = ms.ServiceOSDNACurrent(ctx, node.SerialNumber)
	} else {
		config, err = ms.ServiceOSDNATarget(ctx, node.SerialNumber)
	}
	if err != nil {
		return err
	}

	name := filepath.Join(node.SerialNumber, view+"_service_os_dna.json")
	if _, err := env.Files.Write(name, config); err != nil {
		return err
	}
	pretty, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	env.Log.Info().Msgf("%s service OS configuration of node %s:\n%s", view, node.Name, pretty)
	return nil
}

func reportServiceOSDNAStatus(ctx context.Context, env *Env, ms *client.Client, node nodeRecord) error {
	status, err := ms.ServiceOSDNAStatus(ctx, node.SerialNumber)
	if err != nil {
		if client.IsStatus(err, http.StatusNotFound) {
			env.Log.Info().Msgf("service OS DNA status of node %-25s: %s",
				node.Name, statusErrorMessage(err, "no service OS target deployed"))
			return nil
		}
		return err
	}
	env.Log.Info().Msgf("service OS DNA status of node %-25s: %s", node.Name, status)
	return nil
}
