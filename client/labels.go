// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Labels returns every label known to the Management System.
func (c *Client) Labels(ctx context.Context) ([]Label, error) {
	var out []Label
	if _, err := c.do(ctx, http.MethodGet, "/api/labels", withResult(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLabel registers a new key/value label and returns it with the
// server-assigned id.
func (c *Client) CreateLabel(ctx context.Context, key, value string) (*Label, error) {
	if key == "" {
		return nil, errors.New("label key is empty")
	}
	var out Label
	if _, err := c.do(ctx, http.MethodPost, "/api/labels",
		withBody(Label{Key: key, Value: value}),
		withResult(&out)); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteLabel removes one label by id.
func (c *Client) DeleteLabel(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/labels/"+url.PathEscape(id))
	return err
}
