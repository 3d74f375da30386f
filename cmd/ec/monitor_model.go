// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marcelldls/edge-containers-cli/pkg/services"
)

var (
	monitorTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	monitorNoticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	monitorHelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type monitorKeyMap struct {
	Quit      key.Binding
	ToggleAll key.Binding
	Wide      key.Binding
}

func defaultMonitorKeyMap() monitorKeyMap {
	return monitorKeyMap{
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		ToggleAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all/running")),
		Wide:      key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "image column")),
	}
}

// snapshotMsg delivers one completed poll to the model.
type snapshotMsg services.Snapshot

// monitorModel is the bubbletea model for the live monitor. It only reads
// snapshots; the poller owns the refresh cadence.
type monitorModel struct {
	poller    *services.Poller
	namespace string
	keymap    monitorKeyMap
	spinner   spinner.Model

	records    []services.ServiceRecord
	notice     string
	fatal      error
	wide       bool
	includeAll bool
	refreshed  time.Time
	loading    bool
	width      int
}

func newMonitorModel(poller *services.Poller, namespace string, wide bool) monitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return monitorModel{
		poller:     poller,
		namespace:  namespace,
		keymap:     defaultMonitorKeyMap(),
		spinner:    s,
		wide:       wide,
		includeAll: poller.IncludeAll(),
		loading:    true,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.poller))
}

// waitForSnapshot blocks on the poller's latest-value-wins channel. The
// returned command is re-armed after every snapshot so the display always
// shows the newest completed poll.
func waitForSnapshot(poller *services.Poller) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-poller.Snapshots())
	}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.loading = false
		m.refreshed = msg.Taken
		switch {
		case msg.Err == nil:
			m.records = msg.Records
			m.notice = ""
		case errors.Is(msg.Err, services.ErrNoRunningServices):
			// Transient: can change on the next poll.
			m.records = nil
			m.notice = "No running services found"
		default:
			// Nothing deployed or a transport failure will not resolve by
			// waiting; end the loop.
			m.fatal = msg.Err
			return m, tea.Quit
		}
		return m, waitForSnapshot(m.poller)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keymap.ToggleAll):
			m.includeAll = m.poller.ToggleIncludeAll()
			return m, nil
		case key.Matches(msg, m.keymap.Wide):
			m.wide = !m.wide
			return m, nil
		}
	}

	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder

	filter := "running"
	if m.includeAll {
		filter = "all"
	}
	b.WriteString(monitorTitleStyle.Render(fmt.Sprintf("Services in %s", m.namespace)))
	b.WriteString(monitorHelpStyle.Render(fmt.Sprintf("  [%s]", filter)))
	if !m.refreshed.IsZero() {
		b.WriteString(monitorHelpStyle.Render("  refreshed " + m.refreshed.Format("15:04:05")))
	}
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " waiting for first snapshot...\n")
	case m.notice != "":
		b.WriteString(monitorNoticeStyle.Render(m.notice) + "\n")
	default:
		b.WriteString(services.Render(m.records, m.wide))
	}

	b.WriteString("\n")
	b.WriteString(monitorHelpStyle.Render("q quit • a all/running • w image column"))
	b.WriteString("\n")
	return b.String()
}
