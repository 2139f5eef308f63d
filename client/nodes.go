// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Nodes returns the flat fleet inventory.
func (c *Client) Nodes(ctx context.Context) ([]Node, error) {
	var out []Node
	if _, err := c.do(ctx, http.MethodGet, "/api/nodes", withResult(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

// NodeTree returns the folder hierarchy the Management System organizes
// nodes in. Callers walk it to compute per-node paths.
func (c *Client) NodeTree(ctx context.Context) ([]TreeElement, error) {
	var out []TreeElement
	if _, err := c.do(ctx, http.MethodGet, "/api/nodes/tree", withResult(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

// Node returns the detailed view of one node. The reply is wider than the
// typed fields; everything unknown lands in Extra.
func (c *Client) Node(ctx context.Context, serial string) (*NodeDetails, error) {
	var raw map[string]any
	if _, err := c.do(ctx, http.MethodGet, "/api/nodes/"+url.PathEscape(serial), withResult(&raw)); err != nil {
		return nil, err
	}
	var details NodeDetails
	if err := mapstructure.Decode(raw, &details); err != nil {
		return nil, errors.Wrapf(err, "decoding node %s", serial)
	}
	return &details, nil
}

// NodeWorkloads returns the workloads deployed on one node.
func (c *Client) NodeWorkloads(ctx context.Context, serial string) ([]NodeWorkload, error) {
	var out []NodeWorkload
	path := fmt.Sprintf("/api/nodes/%s/workloads", url.PathEscape(serial))
	if _, err := c.do(ctx, http.MethodGet, path, withResult(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

// RebootNode asks one node to reboot. A node that cannot take the command
// right now answers 409, surfaced as ErrNodeOffline.
func (c *Client) RebootNode(ctx context.Context, serial string) error {
	path := fmt.Sprintf("/api/nodes/%s/reboot", url.PathEscape(serial))
	_, err := c.do(ctx, http.MethodPost, path)
	if IsStatus(err, http.StatusConflict) {
		return ErrNodeOffline
	}
	return err
}

// ControlWorkload applies a state-change command to a workload deployed on a
// node. The command goes upper-cased onto the wire.
func (c *Client) ControlWorkload(ctx context.Context, serial, deviceID, command string) error {
	command = strings.ToLower(command)
	if !lo.Contains(ValidControlCommands, command) {
		return errors.Errorf("unknown workload command %q, valid commands: %v", command, ValidControlCommands)
	}
	path := fmt.Sprintf("/api/nodes/%s/workloads/%s/control", url.PathEscape(serial), url.PathEscape(deviceID))
	_, err := c.do(ctx, http.MethodPost, path, withBody(map[string]string{"command": strings.ToUpper(command)}))
	return err
}
