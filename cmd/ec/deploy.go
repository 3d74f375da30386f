// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcelldls/edge-containers-cli/pkg/helm"
)

var (
	deployRegistry string
	deployRepo     string
	deployArgs     []string
	deployLocalYes bool
)

func init() {
	deployCmd.Flags().StringVar(&deployRegistry, "registry", "", "Helm registry to pull from (default EC_HELM_REGISTRY)")
	deployCmd.Flags().StringVar(&deployRepo, "repo", "", "Source repository URL; its registry is derived via EC_REGISTRY_MAPPING")
	deployCmd.Flags().StringArrayVar(&deployArgs, "helm-arg", nil, "Extra argument passed to helm (repeatable)")
	deployLocalCmd.Flags().BoolVarP(&deployLocalYes, "yes", "y", false, "Skip the confirmation prompt")
	deployLocalCmd.Flags().StringArrayVar(&deployArgs, "helm-arg", nil, "Extra argument passed to helm (repeatable)")
	templateCmd.Flags().StringArrayVar(&deployArgs, "helm-arg", nil, "Extra argument passed to helm (repeatable)")
	versionsCmd.Flags().StringVar(&deployRegistry, "registry", "", "Helm registry to query (default EC_HELM_REGISTRY)")
	versionsCmd.Flags().StringVar(&deployRepo, "repo", "", "Source repository URL; its registry is derived via EC_REGISTRY_MAPPING")

	rootCmd.AddCommand(deployCmd, deployLocalCmd, templateCmd, versionsCmd)
}

// resolveRegistry picks the chart registry for registry-backed commands:
// an explicit --registry wins, then a --repo source URL mapped through
// EC_REGISTRY_MAPPING, then EC_HELM_REGISTRY.
func resolveRegistry() (string, error) {
	if deployRegistry != "" {
		return deployRegistry, nil
	}
	if deployRepo != "" {
		return helm.RegistryFor(deployRepo, cfg.RegistryMapping)
	}
	if cfg.HelmRegistry != "" {
		return cfg.HelmRegistry, nil
	}
	return "", fmt.Errorf("no helm registry: set EC_HELM_REGISTRY or pass --registry/--repo")
}

// newChartManager builds the chart manager. registry may be empty for
// local-only operations.
func newChartManager(registry string) *helm.Manager {
	return helm.NewManager(newRunner(), cfg.Namespace, registry)
}

var deployCmd = &cobra.Command{
	Use:   "deploy <service> <version>",
	Short: "Deploy a versioned service chart from the registry",
	Long: `Pull a service instance chart from the helm registry and install or
upgrade it in the namespace.

Examples:
  ec deploy bl01t-ea-ioc-01 2024.1.1
  ec deploy bl01t-ea-ioc-01 2024.1.1 --helm-arg --dry-run
  ec deploy bl01t-ea-ioc-01 2024.1.1 --repo https://github.com/org/bl01t
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := newRunner()
		if err := checkNamespace(cmd, runner); err != nil {
			return err
		}
		registry, err := resolveRegistry()
		if err != nil {
			return err
		}
		return newChartManager(registry).Deploy(cmd.Context(), args[0], args[1], deployArgs)
	},
}

var deployLocalCmd = &cobra.Command{
	Use:   "deploy-local <instance-path>",
	Short: "Deploy a local instance chart with a dated beta version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := newRunner()
		if err := checkNamespace(cmd, runner); err != nil {
			return err
		}
		name, path, err := helm.CheckInstancePath(args[0])
		if err != nil {
			return err
		}
		image, err := helm.InstanceImage(path, "")
		if err != nil {
			return err
		}
		version := helm.BetaVersion(time.Now())
		if !deployLocalYes {
			if !confirm(fmt.Sprintf("Deploy %s TEMPORARY version %s (image %s) from %s to namespace %s. Are you sure?",
				name, version, image, path, cfg.Namespace)) {
				return fmt.Errorf("aborted")
			}
		}
		return newChartManager("").DeployLocal(cmd.Context(), args[0], version, false, deployArgs)
	},
}

var templateCmd = &cobra.Command{
	Use:   "template <instance-path>",
	Short: "Render a local instance chart without installing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Namespace == "" {
			return fmt.Errorf("no namespace: set EC_K8S_NAMESPACE or pass --namespace")
		}
		version := helm.BetaVersion(time.Now())
		return newChartManager("").DeployLocal(cmd.Context(), args[0], version, true, deployArgs)
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions <service>",
	Short: "List the chart versions available for a service in the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := resolveRegistry()
		if err != nil {
			return err
		}
		return newChartManager(registry).Versions(cmd.Context(), args[0])
	},
}
