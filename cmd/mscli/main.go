// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// mscli is the Management System command line interface.
//
// It drives a fleet of edge nodes through the Management System REST API:
// listing nodes and workloads into work files, provisioning and deploying
// workloads, rebooting nodes, managing labels, remote connections, and DNA
// configurations. An interactive shell (mscli cli) exposes the same commands
// with autocomplete on top of one shared session.
package main

import (
	"context"
	"os"

	mscli "github.com/nvidia/management-system-cli/cmd/mscli/pkg"
)

func main() {
	ctx := context.Background()

	app := mscli.NewApp()
	if err := app.RunContext(ctx, os.Args); err != nil {
		mscli.ReportError(err, os.Args)
		os.Exit(1)
	}
}
