// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// NodeRemoteConnections returns the remote connections configured on one
// node. Entries stay raw maps, their shape depends on the connection type
// (TUNNEL, SCREEN) and on whether the connection targets the node itself or
// a workload deployed to it.
func (c *Client) NodeRemoteConnections(ctx context.Context, serialNumber string) ([]map[string]any, error) {
	var out []map[string]any
	if _, err := c.do(ctx, http.MethodGet, remoteConnectionsPath(serialNumber), withResult(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

// AddNodeRemoteConnections appends connections to a node's configuration.
func (c *Client) AddNodeRemoteConnections(ctx context.Context, serialNumber string, conns []map[string]any) error {
	if len(conns) == 0 {
		return errors.New("no connections given")
	}
	_, err := c.do(ctx, http.MethodPost, remoteConnectionsPath(serialNumber), withBody(conns))
	return err
}

// RemoveNodeRemoteConnections deletes the given connections from a node's
// configuration. Entries must carry the identifiers the Management System
// assigned to them, so callers pass elements of NodeRemoteConnections back
// in rather than rebuilding them.
func (c *Client) RemoveNodeRemoteConnections(ctx context.Context, serialNumber string, conns []map[string]any) error {
	if len(conns) == 0 {
		return errors.New("no connections given")
	}
	_, err := c.do(ctx, http.MethodDelete, remoteConnectionsPath(serialNumber), withBody(conns))
	return err
}

// EstablishRemoteConnection opens the named connection on a node and returns
// the local URL the Management System makes it reachable on.
func (c *Client) EstablishRemoteConnection(ctx context.Context, serialNumber, name string) (string, error) {
	if name == "" {
		return "", errors.New("connection name is empty")
	}
	var reply struct {
		URL string `json:"url"`
	}
	path := fmt.Sprintf("%s/%s/establish", remoteConnectionsPath(serialNumber), url.PathEscape(name))
	if _, err := c.do(ctx, http.MethodPost, path, withResult(&reply)); err != nil {
		return "", err
	}
	if reply.URL == "" {
		return "", errors.New("establish reply carried no url")
	}
	return reply.URL, nil
}

func remoteConnectionsPath(serialNumber string) string {
	return "/api/nodes/" + url.PathEscape(serialNumber) + "/remote-connections"
}
