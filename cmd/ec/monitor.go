// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/marcelldls/edge-containers-cli/internal/config"
	"github.com/marcelldls/edge-containers-cli/pkg/services"
)

var (
	monitorAll      bool
	monitorWide     bool
	monitorInterval time.Duration
)

func init() {
	monitorCmd.Flags().BoolVarP(&monitorAll, "all", "a", false, "Include services that are not running")
	monitorCmd.Flags().BoolVarP(&monitorWide, "wide", "w", false, "Include the image column")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", config.DefaultMonitorInterval, "Refresh interval")
	rootCmd.AddCommand(monitorCmd)
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live view of the services in the namespace",
	Long: `Continuously refreshing view of service state in the namespace.

Polling runs on its own goroutine so the display stays responsive while a
query is in flight; each refresh fully replaces the table with a new
snapshot.

Keys:
  q      quit
  a      toggle between running-only and all services
  w      toggle the image column

Examples:
  ec monitor
  ec monitor --all --interval 5s
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := newRunner()
		if err := checkNamespace(cmd, runner); err != nil {
			return err
		}
		source, err := newSource(runner)
		if err != nil {
			return err
		}

		poller := services.NewPoller(services.NewAggregator(source), monitorInterval, monitorAll)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go poller.Start(ctx)

		m := newMonitorModel(poller, cfg.Namespace, monitorWide)
		p := tea.NewProgram(m, tea.WithAltScreen())
		finalModel, err := p.Run()
		cancel()
		if err != nil {
			return err
		}

		// "Nothing deployed" and transport failures end the loop; surface
		// them once the terminal is restored.
		if fm, ok := finalModel.(monitorModel); ok && fm.fatal != nil {
			return fm.fatal
		}
		return nil
	},
}
