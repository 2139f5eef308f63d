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

// ServiceOSDNACurrent returns the service OS configuration a node currently
// runs.
func (c *Client) ServiceOSDNACurrent(ctx context.Context, serial string) (map[string]any, error) {
	return c.getServiceOSDNA(ctx, serial, "current")
}

// ServiceOSDNATarget returns the service OS configuration a node is
// converging towards.
func (c *Client) ServiceOSDNATarget(ctx context.Context, serial string) (map[string]any, error) {
	return c.getServiceOSDNA(ctx, serial, "target")
}

// ServiceOSDNAStatus returns the rollout state of a node's service OS
// configuration. Nodes without a deployed target answer 404.
func (c *Client) ServiceOSDNAStatus(ctx context.Context, serial string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	path := serviceOSDNAPath(serial, "status")
	if _, err := c.do(ctx, http.MethodGet, path, withResult(&out)); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *Client) getServiceOSDNA(ctx context.Context, serial, view string) (map[string]any, error) {
	var out map[string]any
	if _, err := c.do(ctx, http.MethodGet, serviceOSDNAPath(serial, view), withResult(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

// PutServiceOSDNATarget uploads a new service OS target configuration for
// one node.
func (c *Client) PutServiceOSDNATarget(ctx context.Context, serial string, target map[string]any) error {
	if len(target) == 0 {
		return errors.New("service os dna target is empty")
	}
	_, err := c.do(ctx, http.MethodPut, serviceOSDNAPath(serial, "target"), withBody(target))
	return err
}

// CancelServiceOSDNA aborts an ongoing service OS rollout on one node.
func (c *Client) CancelServiceOSDNA(ctx context.Context, serial string) error {
	_, err := c.do(ctx, http.MethodPost, serviceOSDNAPath(serial, "target/cancel"))
	return err
}

// ReapplyServiceOSDNA restarts the rollout of a node's current target.
func (c *Client) ReapplyServiceOSDNA(ctx context.Context, serial string) error {
	_, err := c.do(ctx, http.MethodPost, serviceOSDNAPath(serial, "target/reapply"))
	return err
}

func serviceOSDNAPath(serial, tail string) string {
	return fmt.Sprintf("/api/nodes/%s/service-os/dna/%s", url.PathEscape(serial), tail)
}
