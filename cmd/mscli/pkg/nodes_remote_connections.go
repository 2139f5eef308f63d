// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"reflect"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	cli "github.com/urfave/cli/v2"

	"github.com/nvidia/management-system-cli/client"
)

// remoteTemplateTypes name the starting points template_create offers.
var remoteTemplateTypes = []string{"tunnel", "screen", "first_node"}

// serverOwnedRemoteKeys is the bookkeeping the Management System attaches
// to a configured remote connection. Stripped before connections are
// compared with or written as definitions.
var serverOwnedRemoteKeys = []string{
	"uniqueConnectionRequestNo", "workloadId", "versionId", "serialNumber",
}

func nodesRemoteConnectionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "nodes_remote_connections",
		Usage: "Manage remote connections on the nodes of the nodes file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Nodes file",
				Value:   "nodes.json",
			},
			&cli.StringFlag{
				Name:    "remotes_file",
				Aliases: []string{"r"},
				Usage:   "Remote connection definitions file",
				Value:   "node_remotes.json",
			},
			&cli.StringFlag{
				Name:    "template_create",
				Aliases: []string{"t"},
				Usage:   "Write a remotes file template: tunnel, screen, or first_node to copy the first node's connections",
			},
			&cli.BoolFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "Show the remote connections configured on the nodes",
			},
			&cli.BoolFlag{
				Name:    "add",
				Aliases: []string{"a"},
				Usage:   "Add the connections of the remotes file to every node",
			},
			&cli.BoolFlag{
				Name:    "delete",
				Aliases: []string{"d"},
				Usage:   "Remove the connections of the remotes file from every node",
			},
			&cli.BoolFlag{
				Name:    "establish",
				Aliases: []string{"e"},
				Usage:   "Open the connections of the remotes file in the browser",
			},
		},
		Action: func(c *cli.Context) error {
			env, err := setupEnv(c)
			if err != nil {
				return err
			}
			return NodesRemoteConnections(c.Context, env, NodesRemoteConnectionsOptions{
				File:           c.String("file"),
				RemotesFile:    c.String("remotes_file"),
				TemplateCreate: c.String("template_create"),
				List:           c.Bool("list"),
				Add:            c.Bool("add"),
				Delete:         c.Bool("delete"),
				Establish:      c.Bool("establish"),
			})
		},
	}
}

// NodesRemoteConnectionsOptions name the nodes and remotes files and the
// selected action. OpenURL receives established connection URLs and
// defaults to the desktop browser.
type NodesRemoteConnectionsOptions struct {
	File        string
	RemotesFile string

	TemplateCreate string
	List           bool
	Add            bool
	Delete         bool
	Establish      bool

	OpenURL func(string)
}

// NodesRemoteConnections manages remote connections through the remotes
// file: its definitions are matched against what each node of the nodes
// file has configured, then added, removed or opened.
func NodesRemoteConnections(ctx context.Context, env *Env, opts NodesRemoteConnectionsOptions) error {
	if err := exactlyOneAction(map[string]bool{
		"template_create": opts.TemplateCreate != "",
		"list":            opts.List,
		"add":             opts.Add,
		"delete":          opts.Delete,
		"establish":       opts.Establish,
	}, "template_create", "list", "add", "delete", "establish"); err != nil {
		return err
	}

	switch {
	case opts.TemplateCreate != "":
		return writeRemotesTemplate(ctx, env, opts)
	case opts.List:
		return listRemoteConnections(ctx, env, opts)
	case opts.Add:
		return addRemoteConnections(ctx, env, opts)
	case opts.Delete:
		return deleteRemoteConnections(ctx, env, opts)
	default:
		return establishRemoteConnections(ctx, env, opts)
	}
}

func writeRemotesTemplate(ctx context.Context, env *Env, opts NodesRemoteConnectionsOptions) error {
	var template []map[string]any
	switch opts.TemplateCreate {
	case "tunnel":
		template = []map[string]any{{
			"name":           "LocalUi",
			"type":           "TUNNEL",
			"acknowledgment": "No",
			"hostname":       "172.20.2.1",
			"localPort":      3333,
			"port":           3333,
		}}
	case "screen":
		template = []map[string]any{{
			"name":                    "screen_test",
			"type":                    "SCREEN",
			"acknowledgment":          "No",
			"hostname":                "172.20.2.20",
			"port":                    3389,
			"connection":              "RDP",
			"username":                "admin",
			"password":                "",
			"securityMode":            "any",
			"ignoreServerCertificate": true,
			"swapRedBlue":             false,
			"readOnly":                false,
			"cursor":                  "",
			"autoretry":               1,
			"numberOfConnections":     1,
		}}
	case "first_node":
		nodes, ms, err := remoteTargets(env, opts.File)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			return errors.Errorf("no nodes found in %s", opts.File)
		}
		remotes, err := ms.NodeRemoteConnections(ctx, nodes[0].SerialNumber)
		if err != nil {
			return err
		}
		for _, r := range remotes {
			template = append(template, stripRemote(r, append(serverOwnedRemoteKeys, "_id")...))
		}
	default:
		return errors.Errorf("invalid template %q, must be one of %v", opts.TemplateCreate, remoteTemplateTypes)
	}

	_, err := env.Files.Write(opts.RemotesFile, template)
	return err
}

func listRemoteConnections(ctx context.Context, env *Env, opts NodesRemoteConnectionsOptions) error {
	nodes, ms, err := remoteTargets(env, opts.File)
	if err != nil {
		return err
	}

	byNode := map[string][]map[string]any{}
	for _, node := range nodes {
		remotes, err := ms.NodeRemoteConnections(ctx, node.SerialNumber)
		if err != nil {
			return err
		}
		if len(remotes) == 0 {
			continue
		}
		cleaned := make([]map[string]any, 0, len(remotes))
		for _, r := range remotes {
			cleaned = append(cleaned, stripRemote(r, serverOwnedRemoteKeys...))
		}
		byNode[node.Name] = cleaned
	}

	pretty, err := json.MarshalIndent(byNode, "", "  ")
	if err != nil {
		return err
	}
	env.Log.Info().Msgf("remote connections of the nodes:\n%s", pretty)
	return nil
}

func addRemoteConnections(ctx context.Context, env *Env, opts NodesRemoteConnectionsOptions) error {
	nodes, ms, err := remoteTargets(env, opts.File)
	if err != nil {
		return err
	}
	var wanted []map[string]any
	if err := env.Files.Read(opts.RemotesFile, &wanted); err != nil {
		return err
	}

	for _, node := range nodes {
		existing, err := ms.NodeRemoteConnections(ctx, node.SerialNumber)
		if err != nil {
			return err
		}
		var missing []map[string]any
		for _, want := range wanted {
			if matchRemote(want, existing) == nil {
				missing = append(missing, want)
			}
		}
		if len(missing) == 0 {
			env.Log.Info().Msgf("node %s already has all connections of %s", node.Name, opts.RemotesFile)
			continue
		}
		pretty, err := json.MarshalIndent(missing, "", "  ")
		if err != nil {
			return err
		}
		env.Log.Info().Msgf("adding remote connections to node %s:\n%s", node.Name, pretty)
		if err := ms.AddNodeRemoteConnections(ctx, node.SerialNumber, missing); err != nil {
			return err
		}
	}
	return nil
}

func deleteRemoteConnections(ctx context.Context, env *Env, opts NodesRemoteConnectionsOptions) error {
	nodes, ms, err := remoteTargets(env, opts.File)
	if err != nil {
		return err
	}
	var unwanted []map[string]any
	if err := env.Files.Read(opts.RemotesFile, &unwanted); err != nil {
		return err
	}

	for _, node := range nodes {
		existing, err := ms.NodeRemoteConnections(ctx, node.SerialNumber)
		if err != nil {
			return err
		}
		var matched []map[string]any
		for _, want := range unwanted {
			if found := matchRemote(want, existing); found != nil {
				matched = append(matched, found)
			}
		}
		if len(matched) == 0 {
			env.Log.Info().Msgf("node %s has none of the connections of %s", node.Name, opts.RemotesFile)
			continue
		}
		pretty, err := json.MarshalIndent(matched, "", "  ")
		if err != nil {
			return err
		}
		env.Log.Info().Msgf("removing remote connections from node %s:\n%s", node.Name, pretty)
		if err := ms.RemoveNodeRemoteConnections(ctx, node.SerialNumber, matched); err != nil {
			return err
		}
	}
	return nil
}

func establishRemoteConnections(ctx context.Context, env *Env, opts NodesRemoteConnectionsOptions) error {
	nodes, ms, err := remoteTargets(env, opts.File)
	if err != nil {
		return err
	}
	var wanted []map[string]any
	if err := env.Files.Read(opts.RemotesFile, &wanted); err != nil {
		return err
	}
	if opts.OpenURL == nil {
		opts.OpenURL = func(u string) { openBrowser(env, u) }
	}

	for _, node := range nodes {
		existing, err := ms.NodeRemoteConnections(ctx, node.SerialNumber)
		if err != nil {
			return err
		}
		for _, want := range wanted {
			found := matchRemote(want, existing)
			if found == nil {
				env.Log.Warn().Msgf("node %s has no connection matching %q", node.Name, cast.ToString(want["name"]))
				continue
			}
			name := cast.ToString(found["name"])
			connURL, err := ms.EstablishRemoteConnection(ctx, node.SerialNumber, name)
			if err != nil {
				return err
			}
			env.Log.Info().Msgf("established remote connection %q to node %s: %s", name, node.Name, connURL)
			opts.OpenURL(connURL)
		}
	}
	return nil
}

// remoteTargets reads the nodes file and hands out the client, the shared
// preamble of every remote connection action.
func remoteTargets(env *Env, file string) ([]nodeRecord, *client.Client, error) {
	var nodes []nodeRecord
	if err := env.Files.Read(file, &nodes); err != nil {
		return nil, nil, err
	}
	ms, err := env.Client()
	if err != nil {
		return nil, nil, err
	}
	return nodes, ms, nil
}

// matchRemote returns the first existing connection carrying every
// key/value pair of want, nil when none does. Extra keys on the existing
// side are expected, the server decorates connections with bookkeeping.
func matchRemote(want map[string]any, existing []map[string]any) map[string]any {
	for _, have := range existing {
		if remoteContains(have, want) {
			return have
		}
	}
	return nil
}

func remoteContains(have, want map[string]any) bool {
	for k, v := range want {
		got, ok := have[k]
		if !ok || !reflect.DeepEqual(got, v) {
			return false
		}
	}
	return true
}

func stripRemote(remote map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(remote))
	for k, v := range remote {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// openBrowser hands a connection URL to the desktop, falling back to
// printing it where no opener exists.
func openBrowser(env *Env, rawURL string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "darwin":
		cmd = exec.Command("open", rawURL)
	default:
		fmt.Println(rawURL)
		return
	}
	if err := cmd.Start(); err != nil {
		env.Log.Warn().Msgf("could not open the browser: %v", err)
		fmt.Println(rawURL)
	}
}
