// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ralfcli/ralf/internal/runner"
	"github.com/ralfcli/ralf/internal/threadmodel"
	"github.com/ralfcli/ralf/internal/threadstore"
)

// tuiCmd opens the interactive dashboard: a scrollable list of threads
// with their phase, plus the active run's status. It is the default
// action when ralf is invoked with no subcommand.
//
// # Exit Codes
//
//	0 - The dashboard was closed normally (q, ctrl+c, esc)
//	1 - .ralf/ is missing
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive thread dashboard",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	if err := requireRalfDir(); err != nil {
		return err
	}

	store := openStore()
	p := tea.NewProgram(newDashboard(store, baseDirFlag))
	_, err := p.Run()
	return err
}

type dashboardModel struct {
	store     *threadstore.Store
	baseDir   string
	threads   []threadmodel.Summary
	cursor    int
	state     *runner.State
	cooldowns []string
	err       error
}

func newDashboard(store *threadstore.Store, baseDir string) dashboardModel {
	return dashboardModel{store: store, baseDir: baseDir}
}

type tickMsg time.Time

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(refreshCmd(m.store, m.baseDir), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type refreshMsg struct {
	threads   []threadmodel.Summary
	state     *runner.State
	cooldowns []string
	err       error
}

func refreshCmd(store *threadstore.Store, baseDir string) tea.Cmd {
	return func() tea.Msg {
		threads, err := store.List()
		if err != nil {
			return refreshMsg{err: err}
		}
		state, err := runner.LoadState(filepath.Join(baseDir, "state.json"))
		if err != nil {
			return refreshMsg{threads: threads, err: err}
		}
		cooldowns, err := runner.LoadCooldowns(filepath.Join(baseDir, "cooldowns.json"))
		if err != nil {
			return refreshMsg{threads: threads, state: state, err: err}
		}
		return refreshMsg{threads: threads, state: state, cooldowns: cooldowns.Cooling(time.Now())}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.threads)-1 {
				m.cursor++
			}
		case "r":
			return m, refreshCmd(m.store, m.baseDir)
		}
	case tickMsg:
		return m, tea.Batch(refreshCmd(m.store, m.baseDir), tickCmd())
	case refreshMsg:
		m.threads = msg.threads
		m.state = msg.state
		m.cooldowns = msg.cooldowns
		m.err = msg.err
		if m.cursor >= len(m.threads) {
			m.cursor = max(0, len(m.threads)-1)
		}
	}
	return m, nil
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func (m dashboardModel) View() string {
	b := titleStyle.Render("ralf — threads") + "\n\n"

	if len(m.threads) == 0 {
		b += "  (no threads yet)\n"
	}
	for i, t := range m.threads {
		line := fmt.Sprintf("%-10s %-14s %s", t.ID, t.PhaseName, t.Title)
		if t.IsActive {
			line += "  [active]"
		}
		if i == m.cursor {
			b += "> " + selectedStyle.Render(line) + "\n"
		} else {
			b += "  " + line + "\n"
		}
	}

	if m.state != nil {
		b += fmt.Sprintf("\nrun %s: %s (iteration %d)\n", m.state.RunID, m.state.Status, m.state.Iteration)
	}
	if len(m.cooldowns) > 0 {
		b += fmt.Sprintf("cooling down: %v\n", m.cooldowns)
	}
	if m.err != nil {
		b += "\nerror: " + m.err.Error() + "\n"
	}

	b += "\n" + helpStyle.Render("↑/↓ select · r refresh · q quit")
	return b
}
