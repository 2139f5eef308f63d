// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/nvidia/management-system-cli/cmd/mscli/pkg/interactive"
)

const maxSuggestions = 6

// RunREPL starts the interactive shell loop with inline autocomplete.
func RunREPL(s *Session) error {
	cmdNames := make([]string, 0, len(s.Commands)+3)
	cmdMap := make(map[string]Command, len(s.Commands))
	for _, cmd := range s.Commands {
		cmdNames = append(cmdNames, cmd.Name)
		cmdMap[cmd.Name] = cmd
	}
	// help/exit/quit are shell builtins, suggested but dispatched here.
	cmdNames = append(cmdNames, "help", "exit", "quit")

	fmt.Printf("\n%s\n", interactive.Bold("Management System shell"))
	fmt.Printf("Host: %s\n", interactive.Cyan(s.Host))
	fmt.Printf("Start typing a command, %s lists them. %s to quit.\n\n",
		interactive.Bold("help"), interactive.Bold("Ctrl+D"))

	prompt := interactive.Cyan("ms:"+s.Host) + "> "

	for {
		line, err := readLineWithSuggestions(prompt, cmdNames)
		if err != nil {
			// Ctrl+D or read error
			fmt.Println("\nGoodbye.")
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "exit" || line == "quit" {
			fmt.Println("Goodbye.")
			return nil
		}
		if line == "help" {
			printHelp(s.Commands)
			continue
		}

		// Exact command name first.
		if cmd, ok := cmdMap[line]; ok {
			runCommand(cmd, nil)
			continue
		}

		// Then a command name followed by arguments.
		matched := false
		for _, cmd := range s.Commands {
			if strings.HasPrefix(line, cmd.Name+" ") {
				args := strings.Fields(strings.TrimSpace(line[len(cmd.Name):]))
				runCommand(cmd, args)
				matched = true
				break
			}
		}

		if !matched {
			fmt.Fprintf(os.Stderr, "%s unknown command: %s\n", interactive.Red("Error:"), line)
			fmt.Println()
		}
	}
}

func runCommand(cmd Command, args []string) {
	if err := cmd.Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", interactive.Red("Error:"), err)
	}
	fmt.Println()
}

// readLineWithSuggestions reads a line in raw mode, showing matching command
// names below the input as the user types.
func readLineWithSuggestions(prompt string, cmdNames []string) (string, error) {
	restore, err := interactive.RawMode()
	if err != nil {
		return "", err
	}
	defer func() {
		restore()
		interactive.ShowCursor()
	}()

	line := ""
	selected := -1 // -1 = no suggestion selected
	prevCount := 0

	visible := func(s string) []string {
		suggestions := getSuggestions(s, cmdNames)
		if len(suggestions) > maxSuggestions {
			suggestions = suggestions[:maxSuggestions]
		}
		return suggestions
	}

	render := func() {
		suggestions := visible(line)

		clearSuggestionLines(prevCount)

		interactive.ClearLine()
		fmt.Print("\r" + prompt + line)

		if selected >= len(suggestions) {
			selected = len(suggestions) - 1
		}

		if len(line) > 0 && len(suggestions) > 0 {
			for i, s := range suggestions {
				fmt.Print("\r\n")
				interactive.ClearLine()
				if i == selected {
					fmt.Print("  " + interactive.Reverse(" "+s+" "))
				} else {
					fmt.Print("  " + interactive.Dim(s))
				}
			}
			interactive.MoveUp(len(suggestions))
			interactive.MoveToColumn(len(stripAnsi(prompt)) + len(line) + 1)
		}

		prevCount = len(suggestions)
		if len(line) == 0 {
			prevCount = 0
		}
	}

	interactive.ShowCursor()
	render()

	for {
		key, err := interactive.ReadKey()
		if err != nil {
			return "", err
		}

		switch {
		case key.Char == interactive.KeyCtrlC:
			// Clear the line and start over.
			line = ""
			selected = -1
			clearSuggestionLines(prevCount)
			prevCount = 0
			render()

		case key.Char == interactive.KeyCtrlD:
			clearSuggestionLines(prevCount)
			return "", fmt.Errorf("EOF")

		case key.Char == interactive.KeyEnter || key.Char == interactive.KeyNewline:
			suggestions := visible(line)

			// A highlighted suggestion is accepted, not executed.
			if selected >= 0 && selected < len(suggestions) {
				line = suggestions[selected]
				selected = -1
				clearSuggestionLines(prevCount)
				prevCount = 0
				render()
				continue
			}

			clearSuggestionLines(prevCount)
			interactive.ClearLine()
			fmt.Print("\r" + prompt + line + "\r\n")
			return line, nil

		case key.Char == interactive.KeyTab:
			suggestions := visible(line)
			if len(suggestions) > 0 {
				idx := selected
				if idx < 0 {
					idx = 0
				}
				line = suggestions[idx]
				selected = -1
			}
			render()

		case key.Special == interactive.KeyDown:
			if suggestions := visible(line); len(suggestions) > 0 {
				selected++
				if selected >= len(suggestions) {
					selected = 0
				}
			}
			render()

		case key.Special == interactive.KeyUp:
			if suggestions := visible(line); len(suggestions) > 0 {
				selected--
				if selected < 0 {
					selected = len(suggestions) - 1
				}
			}
			render()

		case key.Char == interactive.KeyBackspace:
			if len(line) > 0 {
				line = line[:len(line)-1]
				selected = -1
			}
			render()

		case key.Char >= 32 && key.Char < 127:
			line += string(key.Char)
			selected = -1
			render()

		default:
			continue
		}
	}
}

func getSuggestions(input string, cmdNames []string) []string {
	if input == "" {
		return nil
	}
	lower := strings.ToLower(input)
	var matches []string
	for _, name := range cmdNames {
		if strings.HasPrefix(strings.ToLower(name), lower) {
			matches = append(matches, name)
		}
	}
	return matches
}

func clearSuggestionLines(count int) {
	if count == 0 {
		return
	}
	for i := 0; i < count; i++ {
		fmt.Print("\r\n")
		interactive.ClearLine()
	}
	interactive.MoveUp(count)
}

// stripAnsi removes ANSI escape codes to get the visible prompt length.
func stripAnsi(s string) string {
	var result strings.Builder
	inEscape := false
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (s[i] >= 'a' && s[i] <= 'z') || (s[i] >= 'A' && s[i] <= 'Z') {
				inEscape = false
			}
			continue
		}
		result.WriteByte(s[i])
	}
	return result.String()
}
