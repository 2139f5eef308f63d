// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// DNAOptions control how a node applies a new target configuration.
type DNAOptions struct {
	RestartAllWorkloads  bool
	ContinueAfterRestart bool
}

// NodeDNACurrent returns the configuration a node currently runs, keyed by
// configuration file name.
func (c *Client) NodeDNACurrent(ctx context.Context, serial string) (map[string]any, error) {
	return c.getNodeDNA(ctx, serial, "current")
}

// NodeDNATarget returns the configuration a node is converging towards,
// keyed by configuration file name.
func (c *Client) NodeDNATarget(ctx context.Context, serial string) (map[string]any, error) {
	return c.getNodeDNA(ctx, serial, "target")
}

// NodeDNAStatus returns the reconciliation state between current and target.
// Nodes without a deployed target answer 404, callers inspect the returned
// StatusError for that.
func (c *Client) NodeDNAStatus(ctx context.Context, serial string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	path := fmt.Sprintf("/api/nodes/%s/dna/status", url.PathEscape(serial))
	if _, err := c.do(ctx, http.MethodGet, path, withResult(&out)); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *Client) getNodeDNA(ctx context.Context, serial, view string) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/api/nodes/%s/dna/%s", url.PathEscape(serial), view)
	if _, err := c.do(ctx, http.MethodGet, path, withResult(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

// PutNodeDNATarget uploads a new target configuration for one node. The
// given files (configuration yaml plus any env files) travel zipped as
// config.zip in a multipart upload, the form the node-side agent consumes.
func (c *Client) PutNodeDNATarget(ctx context.Context, serial string, files map[string][]byte, opts DNAOptions) error {
	if len(files) == 0 {
		return errors.New("dna target is empty")
	}
	data, err := zipDNATarget(files)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/api/nodes/%s/dna/target", url.PathEscape(serial))
	_, err = c.do(ctx, http.MethodPut, path,
		withFile("file", "config.zip", data),
		withQuery("restartAllWorkloads", strconv.FormatBool(opts.RestartAllWorkloads)),
		withQuery("continueAfterRestart", strconv.FormatBool(opts.ContinueAfterRestart)))
	return err
}

func zipDNATarget(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, errors.Wrapf(err, "creating zip entry %s", name)
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, errors.Wrapf(err, "writing zip entry %s", name)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "closing zip")
	}
	return buf.Bytes(), nil
}
