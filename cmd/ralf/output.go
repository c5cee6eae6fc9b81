// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// colorEnabled reports whether stdout is an interactive terminal and
// NO_COLOR has not been set (spec §6 "Environment").
func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

var (
	okMark   = "✓"
	failMark = "✗"
	warnMark = "!"
)

func init() {
	if !colorEnabled() {
		okMark, failMark, warnMark = "[ok]", "[x]", "[!]"
	}
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func render(style lipgloss.Style, s string) string {
	if !colorEnabled() {
		return s
	}
	return style.Render(s)
}

func printOK(format string, args ...any) {
	fmt.Printf("%s %s\n", render(okStyle, okMark), fmt.Sprintf(format, args...))
}

func printFail(format string, args ...any) {
	fmt.Printf("%s %s\n", render(failStyle, failMark), fmt.Sprintf(format, args...))
}

func printWarn(format string, args ...any) {
	fmt.Printf("%s %s\n", render(warnStyle, warnMark), fmt.Sprintf(format, args...))
}

func printDim(format string, args ...any) {
	fmt.Println(render(dimStyle, fmt.Sprintf(format, args...)))
}
