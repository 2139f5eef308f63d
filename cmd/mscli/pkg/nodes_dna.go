// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	cli "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/nvidia/management-system-cli/client"
)

func nodesDNACommand() *cli.Command {
	return &cli.Command{
		Name:  "nodes_dna",
		Usage: "Read or deploy the DNA configuration of the nodes in the nodes file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Nodes file",
				Value:   "nodes.json",
			},
			&cli.BoolFlag{
				Name:    "strip_hash",
				Aliases: []string{"s"},
				Usage:   "Drop the per-workload hashes from fetched configurations",
			},
			&cli.BoolFlag{
				Name:    "restart_all_workloads",
				Aliases: []string{"r"},
				Usage:   "Restart every workload when the target is applied",
			},
			&cli.BoolFlag{
				Name:    "continue_after_restart",
				Aliases: []string{"c"},
				Usage:   "Continue applying the target after a node restart",
			},
			&cli.StringFlag{
				Name:  "put_target",
				Usage: "Deploy the comma-separated configuration files as the new target",
			},
			&cli.BoolFlag{
				Name:  "get_current",
				Usage: "Fetch the configuration each node currently runs",
			},
			&cli.BoolFlag{
				Name:  "get_target",
				Usage: "Fetch the configuration each node converges towards",
			},
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Report the reconciliation status of each node",
			},
		},
		Action: func(c *cli.Context) error {
			env, err := setupEnv(c)
			if err != nil {
				return err
			}
			return NodesDNA(c.Context, env, NodesDNAOptions{
				File:                 c.String("file"),
				StripHash:            c.Bool("strip_hash"),
				RestartAllWorkloads:  c.Bool("restart_all_workloads"),
				ContinueAfterRestart: c.Bool("continue_after_restart"),
				PutTarget:            c.String("put_target"),
				GetCurrent:           c.Bool("get_current"),
				GetTarget:            c.Bool("get_target"),
				Status:               c.Bool("status"),
			})
		},
	}
}

// NodesDNAOptions hold the nodes file, the apply behavior and the selected
// DNA action.
type NodesDNAOptions struct {
	File                 string
	StripHash            bool
	RestartAllWorkloads  bool
	ContinueAfterRestart bool

	PutTarget  string
	GetCurrent bool
	GetTarget  bool
	Status     bool
}

// NodesDNA runs one DNA action against every node of the nodes file.
// Fetched configurations are written per node under a directory named by
// its serial number.
func NodesDNA(ctx context.Context, env *Env, opts NodesDNAOptions) error {
	if err := exactlyOneAction(map[string]bool{
		"put_target":  opts.PutTarget != "",
		"get_current": opts.GetCurrent,
		"get_target":  opts.GetTarget,
		"status":      opts.Status,
	}, "put_target", "get_current", "get_target", "status"); err != nil {
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

	var target map[string][]byte
	if opts.PutTarget != "" {
		if target, err = readDNAFiles(env, opts.PutTarget); err != nil {
			return err
		}
	}

	for _, node := range nodes {
		switch {
		case opts.GetCurrent:
			err = fetchNodeDNA(ctx, env, ms, node, "current", opts.StripHash)
		case opts.GetTarget:
			err = fetchNodeDNA(ctx, env, ms, node, "target", opts.StripHash)
		case opts.Status:
			err = reportNodeDNAStatus(ctx, env, ms, node)
		default:
			err = ms.PutNodeDNATarget(ctx, node.SerialNumber, target, client.DNAOptions{
				RestartAllWorkloads:  opts.RestartAllWorkloads,
				ContinueAfterRestart: opts.ContinueAfterRestart,
			})
			if err == nil {
				env.Log.Info().Msgf("DNA configuration deployed to node %s", node.Name)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// fetchNodeDNA writes one node's configuration files under a directory
// named by its serial number and logs the whole configuration as YAML.
func fetchNodeDNA(ctx context.Context, env *Env, ms *client.Client, node nodeRecord, view string, stripHash bool) error {
	var (
		config map[string]any
		err    error
	)
	if view == "current" {
		config, err = ms.NodeDNACurrent(ctx, node.SerialNumber)
	} else {
		config, err = ms.NodeDNATarget(ctx, node.SerialNumber)
	}
	if err != nil {
		return err
	}
	if stripHash {
		stripWorkloadHashes(config)
	}

	for name, content := range config {
		if _, err := env.Files.Write(filepath.Join(node.SerialNumber, name), content); err != nil {
			return err
		}
	}
	pretty, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	env.Log.Info().Msgf("%s DNA configuration of node %s:\n%s", view, node.Name, pretty)
	return nil
}

// stripWorkloadHashes drops the per-workload content hashes, which change
// on every upload and drown out real differences between configurations.
func stripWorkloadHashes(config map[string]any) {
	for _, content := range config {
		doc, ok := content.(map[string]any)
		if !ok {
			continue
		}
		workloads, ok := doc["workloads"].([]any)
		if !ok {
			continue
		}
		for _, w := range workloads {
			if wl, ok := w.(map[string]any); ok {
				delete(wl, "hash")
			}
		}
	}
}

func reportNodeDNAStatus(ctx context.Context, env *Env, ms *client.Client, node nodeRecord) error {
	status, err := ms.NodeDNAStatus(ctx, node.SerialNumber)
	if err != nil {
		if client.IsStatus(err, http.StatusNotFound) {
			env.Log.Info().Msgf("DNA status of node %-25s: %s",
				node.Name, statusErrorMessage(err, "no DNA target deployed"))
			return nil
		}
		return err
	}
	env.Log.Info().Msgf("DNA status of node %-25s: %s", node.Name, status)
	return nil
}

// statusErrorMessage digs the human-readable message out of a StatusError.
// The DNA endpoints wrap their errors in a single-element list.
func statusErrorMessage(err error, fallback string) string {
	var se *client.StatusError
	if !errors.As(err, &se) {
		return fallback
	}
	var wrapped []struct {
		Message string `json:"message"`
	}
	if json.Unmarshal([]byte(se.Body), &wrapped) == nil && len(wrapped) > 0 && wrapped[0].Message != "" {
		return wrapped[0].Message
	}
	if se.Message != "" {
		return se.Message
	}
	return fallback
}

// readDNAFiles loads the comma-separated configuration files of a target
// deployment. Structured files are decoded and re-encoded as YAML, the
// form the node agent parses, and travel under their base name.
func readDNAFiles(env *Env, raw string) (map[string][]byte, error) {
	files := map[string][]byte{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name := filepath.Base(part)
		switch filepath.Ext(part) {
		case ".json", ".yaml", ".yml":
			var doc map[string]any
			if err := env.Files.Read(part, &doc); err != nil {
				return nil, err
			}
			content, err := yaml.Marshal(doc)
			if err != nil {
				return nil, errors.Wrapf(err, "encoding %s", part)
			}
			files[name] = content
		default:
			content, err := env.Files.ReadBytes(part)
			if err != nil {
				return nil, err
			}
			files[name] = content
		}
	}
	if len(files) == 0 {
		return nil, errors.New("no DNA configuration files given")
	}
	return files, nil
}
