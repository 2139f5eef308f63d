// SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package interactive holds the raw-terminal primitives the shell is built
// on: key events, cursor movement, and simple prompts.
package interactive

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Key constants for special keys.
const (
	KeyEnter     = '\r'
	KeyNewline   = '\n'
	KeyEscape    = 27
	KeyBackspace = 127
	KeyCtrlC     = 3
	KeyCtrlD     = 4
	KeyTab       = '\t'
)

// SpecialKey represents a multi-byte arrow key sequence.
type SpecialKey int

const (
	KeyNone SpecialKey = iota
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
)

// KeyEvent represents a single keypress.
type KeyEvent struct {
	Char    byte
	Special SpecialKey
}

// RawMode enters raw terminal mode and returns a restore function.
func RawMode() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "entering raw mode")
	}
	return func() {
		term.Restore(fd, oldState)
	}, nil
}

// ReadKey reads a single key event from stdin (must be in raw mode).
// Escape sequences for the arrow keys are folded into one event.
func ReadKey() (KeyEvent, error) {
	buf := make([]byte, 1)
	if _, err := os.Stdin.Read(buf); err != nil {
		return KeyEvent{}, err
	}

	if buf[0] == KeyEscape {
		seq := make([]byte, 2)
		n, err := os.Stdin.Read(seq)
		if err != nil || n < 2 {
			return KeyEvent{Char: KeyEscape}, nil
		}
		if seq[0] == '[' {
			switch seq[1] {
			case 'A':
				return KeyEvent{Special: KeyUp}, nil
			case 'B':
				return KeyEvent{Special: KeyDown}, nil
			case 'C':
				return KeyEvent{Special: KeyRight}, nil
			case 'D':
				return KeyEvent{Special: KeyLeft}, nil
			}
		}
		return KeyEvent{Char: KeyEscape}, nil
	}

	return KeyEvent{Char: buf[0]}, nil
}

// Confirm prompts on stdout and reads one line from stdin. Only "y" or
// "yes" (case-insensitive) count as consent.
func Confirm(prompt string) (bool, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, errors.Wrap(err, "reading confirmation")
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// ANSI escape code helpers.

func ClearLine() {
	fmt.Print("\033[2K\r")
}

func MoveUp(n int) {
	if n > 0 {
		fmt.Printf("\033[%dA", n)
	}
}

func MoveToColumn(n int) {
	fmt.Printf("\033[%dG", n)
}

func ShowCursor() {
	fmt.Print("\033[?25h")
}

func Bold(s string) string {
	return "\033[1m" + s + "\033[0m"
}

func Dim(s string) string {
	return "\033[2m" + s + "\033[0m"
}

func Reverse(s string) string {
	return "\033[7m" + s + "\033[0m"
}

func Cyan(s string) string {
	return "\033[36m" + s + "\033[0m"
}

func Red(s string) string {
	return "\033[31m" + s + "\033[0m"
}

func Yellow(s string) string {
	return "\033[33m" + s + "\033[0m"
}
