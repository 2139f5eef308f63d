// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	cli "github.com/urfave/cli/v2"

	"github.com/nvidia/management-system-cli/client"
)

func labelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "labels",
		Usage: "List, add or delete node labels via the labels file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Labels file",
				Value:   "labels.json",
			},
			&cli.BoolFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "Fetch all labels and write them to the file",
			},
			&cli.BoolFlag{
				Name:    "add",
				Aliases: []string{"a"},
				Usage:   "Create the labels of the file on the Management System",
			},
			&cli.BoolFlag{
				Name:    "delete",
				Aliases: []string{"d"},
				Usage:   "Delete the labels of the file from the Management System",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also render listed labels to stdout (" + strings.Join(OutputFormats, ", ") + ")",
			},
		},
		Action: func(c *cli.Context) error {
			env, err := setupEnv(c)
			if err != nil {
				return err
			}
			return Labels(c.Context, env, LabelsOptions{
				File:   c.String("file"),
				List:   c.Bool("list"),
				Add:    c.Bool("add"),
				Delete: c.Bool("delete"),
				Output: c.String("output"),
			})
		},
	}
}

// LabelsOptions selects the labels action and the file it works on.
type LabelsOptions struct {
	File   string
	List   bool
	Add    bool
	Delete bool
	Output string
}

// Labels synchronizes node labels between the Management System and the
// labels file. Listing drops the server-side IDs so the file can be fed
// back into add on another system.
func Labels(ctx context.Context, env *Env, opts LabelsOptions) error {
	if err := exactlyOneAction(map[string]bool{
		"list":   opts.List,
		"add":    opts.Add,
		"delete": opts.Delete,
	}, "list", "add", "delete"); err != nil {
		return err
	}
	if opts.Output != "" && !lo.Contains(OutputFormats, opts.Output) {
		return errors.Errorf("invalid output format %q, must be one of %v", opts.Output, OutputFormats)
	}

	ms, err := env.Client()
	if err != nil {
		return err
	}

	switch {
	case opts.List:
		return listLabels(ctx, env, ms, opts)
	case opts.Add:
		return addLabels(ctx, env, ms, opts.File)
	default:
		return deleteLabels(ctx, env, ms, opts.File)
	}
}

func listLabels(ctx context.Context, env *Env, ms *client.Client, opts LabelsOptions) error {
	labels, err := ms.Labels(ctx)
	if err != nil {
		return err
	}
	out := make([]client.Label, 0, len(labels))
	for _, l := range labels {
		out = append(out, client.Label{Key: l.Key, Value: l.Value})
	}

	path, err := env.Files.Write(opts.File, out)
	if err != nil {
		return err
	}
	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	env.Log.Info().Msgf("labels read from the Management System and written to %s:\n%s", path, pretty)
	if opts.Output != "" {
		return FormatOutput(out, opts.Output)
	}
	return nil
}

func addLabels(ctx context.Context, env *Env, ms *client.Client, file string) error {
	var wanted []client.Label
	if err := env.Files.Read(file, &wanted); err != nil {
		return err
	}
	existing, err := ms.Labels(ctx)
	if err != nil {
		return err
	}

	present := mapset.NewSet[string]()
	for _, l := range existing {
		present.Add(labelPair(l))
	}
	for _, l := range wanted {
		if present.Contains(labelPair(l)) {
			env.Log.Debug().Msgf("label %s already exists, skipping", labelPair(l))
			continue
		}
		created, err := ms.CreateLabel(ctx, l.Key, l.Value)
		if err != nil {
			return err
		}
		present.Add(labelPair(*created))
		env.Log.Info().Msgf("label %s created", labelPair(*created))
	}
	return nil
}

func deleteLabels(ctx context.Context, env *Env, ms *client.Client, file string) error {
	var unwanted []client.Label
	if err := env.Files.Read(file, &unwanted); err != nil {
		return err
	}
	existing, err := ms.Labels(ctx)
	if err != nil {
		return err
	}

	byPair := make(map[string]client.Label, len(existing))
	for _, l := range existing {
		byPair[labelPair(l)] = l
	}
	for _, l := range unwanted {
		match, ok := byPair[labelPair(l)]
		if !ok {
			env.Log.Warn().Msgf("label %s not found on the Management System", labelPair(l))
			continue
		}
		if err := ms.DeleteLabel(ctx, match.ID); err != nil {
			return err
		}
		env.Log.Info().Msgf("label %s deleted", labelPair(l))
	}
	return nil
}

// labelPair renders a label the way nodes report them, key=K/value=V.
func labelPair(l client.Label) string {
	return fmt.Sprintf("key=%s/value=%s", l.Key, l.Value)
}
