// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mscli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	cli "github.com/urfave/cli/v2"

	"github.com/nvidia/management-system-cli/cmd/mscli/pkg/interactive"
	"github.com/nvidia/management-system-cli/cmd/mscli/pkg/metadata"
	"github.com/nvidia/management-system-cli/cmd/mscli/tui"
)

// NewApp builds the mscli application: global connection flags plus one
// subcommand per fleet operation.
func NewApp() *cli.App {
	return &cli.App{
		Name:                 "mscli",
		Usage:                "Management System CLI for deploying workloads to edge nodes",
		Version:              metadata.Version,
		EnableBashCompletion: true,
		Before: func(c *cli.Context) error {
			// A .env in the current directory supplies MS_URL/MS_USR/MS_PSW
			// without overriding anything already set.
			_ = godotenv.Load()
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ms_url",
				Usage: "URL of the Management System (read from credentials.ini or MS_URL when omitted)",
			},
			&cli.StringFlag{
				Name:  "ms_user",
				Usage: "Login user for the Management System (read from credentials.ini or MS_USR when omitted)",
			},
			&cli.StringFlag{
				Name:  "ms_password",
				Usage: "Login password for the Management System (read from credentials.ini or MS_PSW when omitted)",
			},
			&cli.StringFlag{
				Name:    "work_dir",
				Usage:   "Directory for command input/output files",
				EnvVars: []string{"MSCLI_WORK_DIR"},
				Value:   "work_dir",
			},
			&cli.StringFlag{
				Name:    "log_level",
				Aliases: []string{"l"},
				Usage:   "Log level: trace, debug, info, warn, error",
				EnvVars: []string{"MSCLI_LOG_LEVEL"},
				Value:   "info",
			},
			&cli.BoolFlag{
				Name:  "store_credentials",
				Usage: "Store the resolved credentials in credentials.ini for future use",
			},
			&cli.BoolFlag{
				Name:  "insecure",
				Usage: "Skip TLS certificate verification",
			},
		},
		Commands: []*cli.Command{
			cliCommand(),
			workloadCreateCommand(),
			msWorkloadsCommand(),
			nodesListCommand(),
			nodesRebootCommand(),
			nodesDNACommand(),
			serviceOSDNACommand(),
			nodesWorkloadsStateCommand(),
			nodesRemoteConnectionsCommand(),
			labelsCommand(),
			logoutCommand(),
			versionCommand(),
			completionCommand(),
		},
	}
}

// cliCommand launches the interactive shell. Commands inside the shell are
// the regular subcommands, re-dispatched with the global flags of this
// invocation; the on-disk session cache keeps it to one login.
func cliCommand() *cli.Command {
	return &cli.Command{
		Name:  "cli",
		Usage: "Start the interactive shell",
		Action: func(c *cli.Context) error {
			env, err := setupEnv(c)
			if err != nil {
				return err
			}

			host := env.Creds.URL
			if _, cerr := env.Client(); cerr != nil {
				fmt.Fprintf(os.Stderr, "%s %s\n", interactive.Yellow("Warning:"), TranslateError(cerr))
				if host == "" {
					host = "offline"
				}
			}

			session := &tui.Session{Host: host, Commands: shellCommands(c)}
			return tui.RunREPL(session)
		},
	}
}

// shellCommands mirrors every non-interactive subcommand into the shell.
func shellCommands(c *cli.Context) []tui.Command {
	baseArgs := globalArgs(c)

	var cmds []tui.Command
	for _, cmd := range NewApp().Commands {
		// The shell itself and completion make no sense inside a session.
		if cmd.Name == "cli" || cmd.Name == "completion" {
			continue
		}
		name := cmd.Name
		cmds = append(cmds, tui.Command{
			Name:        name,
			Description: cmd.Usage,
			Run: func(args []string) error {
				argv := append([]string{"mscli"}, baseArgs...)
				argv = append(argv, name)
				argv = append(argv, args...)
				return NewApp().RunContext(c.Context, argv)
			},
		})
	}
	return cmds
}

// globalArgs reconstructs the global flags for shell re-dispatch.
// store_credentials stays out, one write per invocation is enough.
func globalArgs(c *cli.Context) []string {
	args := []string{
		"--work_dir", c.String("work_dir"),
		"--log_level", c.String("log_level"),
	}
	for _, name := range []string{"ms_url", "ms_user", "ms_password"} {
		if v := c.String(name); v != "" {
			args = append(args, "--"+name, v)
		}
	}
	if c.Bool("insecure") {
		args = append(args, "--insecure")
	}
	return args
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Log out from the Management System",
		Action: func(c *cli.Context) error {
			env, err := setupEnv(c)
			if err != nil {
				return err
			}
			ms, err := env.Client()
			if err != nil {
				return err
			}
			if err := ms.Logout(c.Context); err != nil {
				return err
			}
			env.Log.Info().Msg("logged out from the Management System")
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version and build time",
		Action: func(c *cli.Context) error {
			fmt.Printf("mscli %s (built %s)\n", metadata.Version, metadata.BuildTime)
			return nil
		},
	}
}

// exactlyOneAction enforces the mutually exclusive action flags of a
// subcommand.
func exactlyOneAction(actions map[string]bool, order ...string) error {
	var set []string
	for _, name := range order {
		if actions[name] {
			set = append(set, "--"+name)
		}
	}
	switch len(set) {
	case 1:
		return nil
	case 0:
		all := make([]string, len(order))
		for i, name := range order {
			all[i] = "--" + name
		}
		return errors.Errorf("one of %s is required", strings.Join(all, ", "))
	default:
		return errors.Errorf("%s are mutually exclusive", strings.Join(set, ", "))
	}
}

func completionCommand() *cli.Command {
	return &cli.Command{
		Name:  "completion",
		Usage: "Output shell completion script",
		Subcommands: []*cli.Command{
			{
				Name:  "bash",
				Usage: "Output bash completion script",
				Action: func(c *cli.Context) error {
					fmt.Print(bashCompletion)
					return nil
				},
			},
			{
				Name:  "zsh",
				Usage: "Output zsh completion script",
				Action: func(c *cli.Context) error {
					fmt.Print(zshCompletion)
					return nil
				},
			},
			{
				Name:  "fish",
				Usage: "Output fish completion script",
				Action: func(c *cli.Context) error {
					fmt.Print(fishCompletion)
					return nil
				},
			},
		},
	}
}

const bashCompletion = `# bash completion for mscli
# Add to ~/.bashrc:  eval "$(mscli completion bash)"
_mscli_complete() {
    local cur opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    opts=$(${COMP_WORDS[0]} --generate-bash-completion "${COMP_WORDS[@]:1:$COMP_CWORD}")
    COMPREPLY=($(compgen -W "${opts}" -- "${cur}"))
    return 0
}
complete -o default -F _mscli_complete mscli
`

const zshCompletion = `# zsh completion for mscli
# Add to ~/.zshrc:  eval "$(mscli completion zsh)"
_mscli_complete() {
    local -a opts
    opts=(${(f)"$(${words[1]} --generate-bash-completion ${words:1:$CURRENT-1})"})
    _describe 'mscli' opts
}
compdef _mscli_complete mscli
`

const fishCompletion = `# fish completion for mscli
# Add to ~/.config/fish/completions/mscli.fish or run:
#   mscli completion fish > ~/.config/fish/completions/mscli.fish
complete -c mscli -f -a '(mscli --generate-bash-completion (commandline -cop))'
`
