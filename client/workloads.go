// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

const (
	deployPollInterval = 10 * time.Second
	deployPollAttempts = 180
)

// Workloads returns the workload catalog.
func (c *Client) Workloads(ctx context.Context) ([]Workload, error) {
	var out []Workload
	if _, err := c.do(ctx, http.MethodGet, "/api/workloads", withResult(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

// Workload returns the full raw definition of one catalog workload.
func (c *Client) Workload(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	if _, err := c.do(ctx, http.MethodGet, "/api/workloads/"+url.PathEscape(id), withResult(&out)); err != nil {
		return nil, err
	}
	return out, nil
}

// ProvisionWorkload validates and creates a workload from a raw definition.
// Artifact files named in filePaths are uploaded alongside the definition.
// Compose definitions go through API version 3, everything else version 2.
func (c *Client) ProvisionWorkload(ctx context.Context, def map[string]any, filePaths []string) error {
	if err := ValidateDefinition(def); err != nil {
		return err
	}
	apiVersion := "2"
	if cast.ToString(def["type"]) == "docker-compose" {
		apiVersion = "3"
	}

	body, err := json.Marshal(def)
	if err != nil {
		return errors.Wrap(err, "encoding workload definition")
	}
	opts := []requestOpt{
		withHeader("api-version", apiVersion),
		withFormField("data", string(body)),
	}
	for _, p := range filePaths {
		if _, err := os.Stat(p); err != nil {
			return errors.Wrapf(err, "workload file %s", p)
		}
		opts = append(opts, withUploadFile("files", p))
	}

	_, err = c.do(ctx, http.MethodPost, "/api/workloads", opts...)
	return err
}

// DeleteWorkload removes a catalog workload and all its versions.
func (c *Client) DeleteWorkload(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/workloads/"+url.PathEscape(id))
	return err
}

// DeleteWorkloadVersion removes one version of a catalog workload.
func (c *Client) DeleteWorkloadVersion(ctx context.Context, workloadID, versionID string) error {
	path := fmt.Sprintf("/api/workloads/%s/versions/%s", url.PathEscape(workloadID), url.PathEscape(versionID))
	_, err := c.do(ctx, http.MethodDelete, path)
	return err
}

// ExportWorkloadVersion downloads the archive of one version to destPath,
// creating parent directories as needed.
func (c *Client) ExportWorkloadVersion(ctx context.Context, workloadID, versionID, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return errors.Wrap(err, "creating export directory")
	}
	path := fmt.Sprintf("/api/workloads/%s/versions/%s/export", url.PathEscape(workloadID), url.PathEscape(versionID))
	_, err := c.do(ctx, http.MethodGet, path, withOutput(destPath))
	return err
}

type deployRequest struct {
	SerialNumbers []string `json:"serialNumbers"`
}

type deployReply struct {
	DeploymentID string `json:"deploymentId"`
}

type deploymentStatus struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// DeployWorkloadVersion deploys one catalog version to the given nodes.
// With wait the call polls the deployment until it settles.
func (c *Client) DeployWorkloadVersion(ctx context.Context, workloadID, versionID string, serials []string, wait bool) error {
	if len(serials) == 0 {
		return errors.New("no target nodes given")
	}
	var reply deployReply
	path := fmt.Sprintf("/api/workloads/%s/versions/%s/deploy", url.PathEscape(workloadID), url.PathEscape(versionID))
	if _, err := c.do(ctx, http.MethodPost, path,
		withBody(deployRequest{SerialNumbers: serials}),
		withResult(&reply)); err != nil {
		return err
	}
	c.log.Info().
		Str("workload", workloadID).
		Str("version", versionID).
		Int("nodes", len(serials)).
		Msg("deployment started")
	if !wait || reply.DeploymentID == "" {
		return nil
	}
	return c.waitForDeployment(ctx, reply.DeploymentID)
}

// waitForDeployment polls until the deployment reports COMPLETED, or fails
// when it reports FAILED or CANCELED.
func (c *Client) waitForDeployment(ctx context.Context, id string) error {
	return retry.Do(
		func() error {
			var st deploymentStatus
			if _, err := c.do(ctx, http.MethodGet, "/api/deployments/"+url.PathEscape(id), withResult(&st)); err != nil {
				return retry.Unrecoverable(err)
			}
			switch st.Status {
			case "COMPLETED":
				return nil
			case "FAILED", "CANCELED":
				return retry.Unrecoverable(errors.Errorf("deployment %s %s: %s", id, strings.ToLower(st.Status), st.Message))
			default:
				c.log.Debug().
					Str("deployment", id).
					Str("status", st.Status).
					Int("progress", st.Progress).
					Msg("deployment in progress")
				return errors.Errorf("deployment %s still %s", id, st.Status)
			}
		},
		retry.Attempts(deployPollAttempts),
		retry.Delay(deployPollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
}
