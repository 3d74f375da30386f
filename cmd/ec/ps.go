// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcelldls/edge-containers-cli/pkg/services"
)

var (
	psAll  bool
	psWide bool
)

func init() {
	psCmd.Flags().BoolVarP(&psAll, "all", "a", false, "Include services that are not running")
	psCmd.Flags().BoolVarP(&psWide, "wide", "w", false, "Include the image column")
	rootCmd.AddCommand(psCmd)
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List the services in the namespace",
	Long: `List IOCs and services in the current namespace.

By default only running services are shown. Each row merges the workload
resource, pod status and helm release for one service.

Examples:
  ec ps
  ec ps --all            # include stopped services
  ec ps --all --wide     # include the container image column
  ec -n bl01t ps
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

		records, err := services.NewAggregator(source).Aggregate(cmd.Context(), psAll)
		if err != nil {
			return err
		}

		fmt.Print(services.Render(records, psWide))
		return nil
	},
}
