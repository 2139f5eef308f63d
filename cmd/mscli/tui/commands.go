// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package tui implements the interactive shell: a raw-mode REPL with inline
// suggestions dispatching to the same command set the plain CLI exposes.
package tui

import (
	"fmt"
	"os"
	"text/tabwriter"
)

// Command is one shell command: the subcommand name, a one-line description
// for help, and the runner receiving everything typed after the name.
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
}

// Session holds the state of one interactive shell.
type Session struct {
	Host     string
	Commands []Command
}

func printHelp(commands []Command) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "\nCOMMAND\tDESCRIPTION")
	fmt.Fprintln(tw, "-------\t-----------")
	for _, cmd := range commands {
		fmt.Fprintf(tw, "%s\t%s\n", cmd.Name, cmd.Description)
	}
	fmt.Fprintln(tw, "help\tShow available commands")
	fmt.Fprintln(tw, "exit\tLeave the shell")
	tw.Flush()
	fmt.Println()
}
