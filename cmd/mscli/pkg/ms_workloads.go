// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	cli "github.com/urfave/cli/v2"

	"github.com/nvidia/management-system-cli/client"
)

func msWorkloadsCommand() *cli.Command {
	return &cli.Command{
		Name:  "ms_workloads",
		Usage: "List, copy, delete or deploy catalog workloads via the workloads file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Workloads file",
				Value:   "workloads.json",
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Directory for copied workload files, relative to the work directory",
				Value:   "workload_files",
			},
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Filter on workload type (" + strings.Join(client.ValidWorkloadTypes, ", ") + ")",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Filter on workload name, prefix with regex: for a pattern",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Filter on workload id",
			},
			&cli.BoolFlag{
				Name:  "disabled",
				Usage: "Include disabled workloads",
			},
			&cli.StringFlag{
				Name:    "version_name",
				Aliases: []string{"v"},
				Usage:   "Filter on version name",
			},
			&cli.StringFlag{
				Name:    "version_release_name",
				Aliases: []string{"r"},
				Usage:   "Filter on version release name",
			},
			&cli.StringFlag{
				Name:  "version_size_above",
				Usage: "Keep versions larger than this size, e.g. 250MB",
			},
			&cli.StringFlag{
				Name:  "version_date_older_than",
				Usage: "Keep versions last touched before this day, YYYY-MM-DD",
			},
			&cli.StringFlag{
				Name:  "nodes_file",
				Usage: "Nodes file naming the deploy targets",
				Value: "nodes.json",
			},
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Wait for each deployment to settle",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also render listed workloads to stdout (" + strings.Join(OutputFormats, ", ") + ")",
			},
			&cli.BoolFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "Write the matching workloads to the file",
			},
			&cli.BoolFlag{
				Name:    "copy",
				Aliases: []string{"c"},
				Usage:   "Like --list, additionally download the workload files",
			},
			&cli.BoolFlag{
				Name:  "delete",
				Usage: "Delete the versions listed in the file, and emptied workloads",
			},
			&cli.BoolFlag{
				Name:    "deploy",
				Aliases: []string{"d"},
				Usage:   "Deploy the workloads of the file to the nodes of the nodes file",
			},
		},
		Action: func(c *cli.Context) error {
			env, err := setupEnv(c)
			if err != nil {
				return err
			}
			return MSWorkloads(c.Context, env, MSWorkloadsOptions{
				File:                 c.String("file"),
				Path:                 c.String("path"),
				Type:                 c.String("type"),
				Name:                 c.String("name"),
				ID:                   c.String("id"),
				Disabled:             c.Bool("disabled"),
				VersionName:          c.String("version_name"),
				VersionReleaseName:   c.String("version_release_name"),
				VersionSizeAbove:     c.String("version_size_above"),
				VersionDateOlderThan: c.String("version_date_older_than"),
				NodesFile:            c.String("nodes_file"),
				Wait:                 c.Bool("wait"),
				Output:               c.String("output"),
				List:                 c.Bool("list"),
				Copy:                 c.Bool("copy"),
				Delete:               c.Bool("delete"),
				Deploy:               c.Bool("deploy"),
			})
		},
	}
}

// MSWorkloadsOptions hold the workloads file, the catalog filters and the
// selected action.
type MSWorkloadsOptions struct {
	File                 string
	Path                 string
	Type                 string
	Name                 string
	ID                   string
	Disabled             bool
	VersionName          string
	VersionReleaseName   string
	VersionSizeAbove     string
	VersionDateOlderThan string
	NodesFile            string
	Wait                 bool
	Output               string

	List   bool
	Copy   bool
	Delete bool
	Deploy bool
}

// MSWorkloads works the workload catalog through the workloads file:
// list and copy write the filtered catalog to it, delete and deploy read
// it back and act on the Management System.
func MSWorkloads(ctx context.Context, env *Env, opts MSWorkloadsOptions) error {
	if err := exactlyOneAction(map[string]bool{
		"list":   opts.List,
		"copy":   opts.Copy,
		"delete": opts.Delete,
		"deploy": opts.Deploy,
	}, "list", "copy", "delete", "deploy"); err != nil {
		return err
	}

	switch {
	case opts.List:
		return listWorkloads(ctx, env, opts, false)
	case opts.Copy:
		return listWorkloads(ctx, env, opts, true)
	case opts.Delete:
		return deleteWorkloads(ctx, env, opts)
	default:
		return deployWorkloads(ctx, env, opts)
	}
}

// versionFilters narrow the versions kept per workload. Thresholds are
// strict: a version must be larger than sizeAbove and last touched before
// olderThan to survive.
type versionFilters struct {
	name      Filter
	release   Filter
	sizeAbove *int64
	olderThan *time.Time
}

func newVersionFilters(opts MSWorkloadsOptions) (versionFilters, error) {
	var vf versionFilters
	var err error
	if vf.name, err = NewFilter(opts.VersionName); err != nil {
		return vf, err
	}
	if vf.release, err = NewFilter(opts.VersionReleaseName); err != nil {
		return vf, err
	}
	if opts.VersionSizeAbove != "" {
		size, err := ParseSize(opts.VersionSizeAbove)
		if err != nil {
			return vf, err
		}
		vf.sizeAbove = &size
	}
	if opts.VersionDateOlderThan != "" {
		day, err := ParseDay(opts.VersionDateOlderThan)
		if err != nil {
			return vf, err
		}
		vf.olderThan = &day
	}
	return vf, nil
}

func (f versionFilters) apply(versions []client.WorkloadVersion) ([]client.WorkloadVersion, error) {
	var out []client.WorkloadVersion
	for _, v := range versions {
		if !f.name.Match(v.Name) || !f.release.Match(v.ReleaseName) {
			continue
		}
		v.OverallSize = v.TotalSize()
		if f.sizeAbove != nil && v.OverallSize <= *f.sizeAbove {
			continue
		}
		if f.olderThan != nil {
			ts, err := versionTimestamp(v)
			if err != nil {
				return nil, err
			}
			if !ts.Before(*f.olderThan) {
				continue
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// versionTimestamp prefers the update time and falls back to the creation
// time for versions never touched after upload.
func versionTimestamp(v client.WorkloadVersion) (time.Time, error) {
	raw := v.UpdatedAt
	if raw == "" {
		raw = v.CreatedAt
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	return ts, errors.Wrapf(err, "version %s carries no usable timestamp", v.Name)
}

func listWorkloads(ctx context.Context, env *Env, opts MSWorkloadsOptions, copyFiles bool) error {
	if opts.Type != "" && !lo.Contains(client.ValidWorkloadTypes, opts.Type) {
		return errors.Errorf("invalid workload type %q, must be one of %v", opts.Type, client.ValidWorkloadTypes)
	}
	if opts.Output != "" && !lo.Contains(OutputFormats, opts.Output) {
		return errors.Errorf("invalid output format %q, must be one of %v", opts.Output, OutputFormats)
	}
	nameFilter, err := NewFilter(opts.Name)
	if err != nil {
		return err
	}
	idFilter, err := NewFilter(opts.ID)
	if err != nil {
		return err
	}
	vf, err := newVersionFilters(opts)
	if err != nil {
		return err
	}

	ms, err := env.Client()
	if err != nil {
		return err
	}
	all, err := ms.Workloads(ctx)
	if err != nil {
		return err
	}

	output := make([]client.Workload, 0, len(all))
	for _, wl := range all {
		if !nameFilter.Match(wl.Name) || !idFilter.Match(wl.ID) {
			continue
		}
		if opts.Type != "" && wl.Type != opts.Type {
			continue
		}
		if wl.Disabled && !opts.Disabled {
			continue
		}
		versions, err := vf.apply(wl.Versions)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			continue
		}
		wl.Versions = versions

		logWorkloadVersions(env.Log, wl)
		if copyFiles {
			if err := copyWorkloadFiles(ctx, env, ms, wl, opts.Path); err != nil {
				return err
			}
		}
		output = append(output, wl)
	}

	if _, err := env.Files.Write(opts.File, output); err != nil {
		return err
	}
	if opts.Output != "" {
		return FormatOutput(output, opts.Output)
	}
	return nil
}

func logWorkloadVersions(log zerolog.Logger, wl client.Workload) {
	log.Info().Msgf("%s workload %q (%s):", wl.Type, wl.Name, wl.ID)
	for _, v := range wl.Versions {
		name := fmt.Sprintf("%q", v.Name)
		if v.ReleaseName != "" && v.ReleaseName != v.Name {
			name = fmt.Sprintf("%q/%q", v.Name, v.ReleaseName)
		}
		line := fmt.Sprintf("    version %s (%s)", name, FormatSize(v.OverallSize))
		if wl.Type == "docker" {
			if cn := cast.ToString(v.Properties["container_name"]); cn != "" {
				line += fmt.Sprintf(", container %q", cn)
			}
		}
		log.Info().Msg(line)
	}
}

// copyWorkloadFiles downloads every artifact of the kept versions into the
// copy directory. A failed download is reported and does not stop the rest.
func copyWorkloadFiles(ctx context.Context, env *Env, ms *client.Client, wl client.Workload, dir string) error {
	destDir := dir
	if !filepath.IsAbs(destDir) {
		destDir = filepath.Join(env.Files.Dir, destDir)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating copy directory %s", destDir)
	}

	for _, v := range wl.Versions {
		for _, f := range v.Files {
			name := f.Name
			if name == "" && f.Path != "" {
				name = filepath.Base(f.Path)
			}
			if name == "" || name == "." {
				env.Log.Warn().Msgf("version %s of workload %s lists a file without a name, skipping", v.Name, wl.Name)
				continue
			}
			dest := exportDestination(destDir, name, v.ID, f.ID)
			if err := ms.ExportWorkloadVersion(ctx, wl.ID, v.ID, dest); err != nil {
				env.Log.Error().Msgf("downloading %s of workload %s failed: %v", name, wl.Name, err)
				continue
			}
			env.Log.Info().Msgf("downloaded %s", dest)
		}
	}
	return nil
}

// exportDestination picks a collision-free path for one downloaded file,
// appending the version id and then the file id until the name is free.
func exportDestination(dir, name, versionID, fileID string) string {
	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); err != nil {
		return dest
	}
	base, ext := splitArchiveExt(name)
	dest = filepath.Join(dir, fmt.Sprintf("%s_%s%s", base, versionID, ext))
	if _, err := os.Stat(dest); err != nil {
		return dest
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s%s", base, versionID, fileID, ext))
}

// splitArchiveExt splits a file name before its extension, keeping two-part
// archive suffixes like .tar.gz together.
func splitArchiveExt(name string) (string, string) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if second := filepath.Ext(base); second == ".tar" {
		base = strings.TrimSuffix(base, second)
		ext = second + ext
	}
	return base, ext
}

// deleteWorkloads removes the versions listed in the workloads file, then
// every workload that ended up without versions.
func deleteWorkloads(ctx context.Context, env *Env, opts MSWorkloadsOptions) error {
	var workloads []client.Workload
	if err := env.Files.Read(opts.File, &workloads); err != nil {
		return err
	}
	ms, err := env.Client()
	if err != nil {
		return err
	}

	for _, wl := range workloads {
		for _, v := range wl.Versions {
			if err := ms.DeleteWorkloadVersion(ctx, wl.ID, v.ID); err != nil {
				env.Log.Warn().Msgf("version %s of workload %s cannot be removed: %v", v.Name, wl.Name, err)
				continue
			}
			env.Log.Info().Msgf("removed version %s of workload %s", v.Name, wl.Name)
		}

		remaining, err := ms.Workload(ctx, wl.ID)
		if err != nil {
			if client.IsStatus(err, http.StatusNotFound) {
				env.Log.Info().Msgf("workload %s removed", wl.Name)
				continue
			}
			return err
		}
		if len(cast.ToSlice(remaining["versions"])) == 0 {
			if err := ms.DeleteWorkload(ctx, wl.ID); err != nil {
				return err
			}
			env.Log.Info().Msgf("workload %s removed", wl.Name)
		}
	}
	return nil
}

// deployWorkloads deploys the workloads of the workloads file to the nodes
// of the nodes file. A file entry with several versions falls back to its
// last one, an entry without versions to the workload's latest on the
// Management System.
func deployWorkloads(ctx context.Context, env *Env, opts MSWorkloadsOptions) error {
	var nodes []nodeRecord
	if err := env.Files.Read(opts.NodesFile, &nodes); err != nil {
		return err
	}
	serials := lo.Map(nodes, func(n nodeRecord, _ int) string { return n.SerialNumber })
	if len(serials) == 0 {
		return errors.Errorf("no nodes found in %s", opts.NodesFile)
	}

	var workloads []client.Workload
	if err := env.Files.Read(opts.File, &workloads); err != nil {
		return err
	}
	ms, err := env.Client()
	if err != nil {
		return err
	}

	for _, wl := range workloads {
		var versionID string
		switch {
		case len(wl.Versions) == 1:
			versionID = wl.Versions[0].ID
		case len(wl.Versions) > 1:
			env.Log.Warn().Msgf("workload %s has no specific version selected, using the last one of the file", wl.Name)
			versionID = wl.Versions[len(wl.Versions)-1].ID
		default:
			env.Log.Warn().Msgf("workload %s has no version in the file, using the latest one", wl.Name)
			var err error
			versionID, err = latestVersionID(ctx, ms, wl.ID)
			if err != nil {
				return err
			}
		}
		env.Log.Info().Msgf("deploying workload %s to %d nodes", wl.Name, len(serials))
		if err := ms.DeployWorkloadVersion(ctx, wl.ID, versionID, serials, opts.Wait); err != nil {
			return err
		}
	}
	return nil
}

// latestVersionID fetches one workload from the Management System and
// returns the id of its newest version.
func latestVersionID(ctx context.Context, ms *client.Client, workloadID string) (string, error) {
	raw, err := ms.Workload(ctx, workloadID)
	if err != nil {
		return "", err
	}
	versions := cast.ToSlice(raw["versions"])
	if len(versions) == 0 {
		return "", errors.Errorf("workload %s has no versions on the Management System", workloadID)
	}
	last := cast.ToStringMap(versions[len(versions)-1])
	id := cast.ToString(last["_id"])
	if id == "" {
		return "", errors.Errorf("workload %s: latest version carries no id", workloadID)
	}
	return id, nil
}
