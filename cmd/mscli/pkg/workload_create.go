// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	cli "github.com/urfave/cli/v2"

	"github.com/nvidia/management-system-cli/client"
)

func workloadCreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "workload_create",
		Usage: "Create workloads in the Management System from a definition file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Definition file, a single definition or a list of them",
				Value:   "wl_def.json",
			},
			&cli.StringFlag{
				Name:    "template",
				Aliases: []string{"t"},
				Usage:   "Write a definition template of the given type (" + strings.Join(client.TemplateTypes, ", ") + ") to the file",
			},
			&cli.BoolFlag{
				Name:    "create",
				Aliases: []string{"c"},
				Usage:   "Create the workloads defined in the file",
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Comma-separated glob patterns naming workload files to upload, relative to the work directory",
			},
		},
		Action: func(c *cli.Context) error {
			env, err := setupEnv(c)
			if err != nil {
				return err
			}
			return WorkloadCreate(c.Context, env, WorkloadCreateOptions{
				File:     c.String("file"),
				Template: c.String("template"),
				Create:   c.Bool("create"),
				Paths:    c.String("path"),
			})
		},
	}
}

// WorkloadCreateOptions selects between writing a definition template and
// provisioning the definitions of the file.
type WorkloadCreateOptions struct {
	File     string
	Template string
	Create   bool
	Paths    string
}

// WorkloadCreate writes a workload definition template or provisions every
// definition found in the file. A list entry that fails is logged and
// skipped so one broken definition does not abort a batch.
func WorkloadCreate(ctx context.Context, env *Env, opts WorkloadCreateOptions) error {
	if err := exactlyOneAction(map[string]bool{
		"template": opts.Template != "",
		"create":   opts.Create,
	}, "template", "create"); err != nil {
		return err
	}

	if opts.Template != "" {
		def, err := client.TemplateDefinition(opts.Template)
		if err != nil {
			return err
		}
		_, err = env.Files.Write(opts.File, def)
		return err
	}

	ms, err := env.Client()
	if err != nil {
		return err
	}
	var raw any
	if err := env.Files.Read(opts.File, &raw); err != nil {
		return err
	}
	paths, err := expandUploadPaths(env, opts.Paths)
	if err != nil {
		return err
	}

	switch defs := raw.(type) {
	case map[string]any:
		if err := ms.ProvisionWorkload(ctx, CleanDefinition(defs), paths); err != nil {
			return err
		}
		env.Log.Info().Msgf("workload %q created", defs["name"])
		return nil
	case []any:
		for i, item := range defs {
			def, ok := item.(map[string]any)
			if !ok {
				env.Log.Warn().Msgf("workload creation failed for element %d: not a definition object", i)
				continue
			}
			if err := ms.ProvisionWorkload(ctx, CleanDefinition(def), paths); err != nil {
				env.Log.Warn().Msgf("workload creation failed for element %d: %v", i, err)
				continue
			}
			env.Log.Info().Msgf("workload %q created", def["name"])
		}
		return nil
	default:
		return errors.Errorf("cannot interpret %s, expected a definition object or a list of them", opts.File)
	}
}

// expandUploadPaths resolves the comma-separated glob patterns of --path
// against the work directory. Absolute patterns are used as given.
func expandUploadPaths(env *Env, raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var paths []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pattern := part
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(env.Files.Dir, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid path pattern %q", part)
		}
		if len(matches) == 0 {
			env.Log.Warn().Msgf("path pattern %q matched no files", part)
		}
		paths = append(paths, matches...)
	}
	env.Log.Debug().Msgf("uploading workload files:\n    - %s", strings.Join(paths, "\n    - "))
	return paths, nil
}
