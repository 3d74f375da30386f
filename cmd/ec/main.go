// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

// Command ec manages EPICS IOC service instances deployed to a Kubernetes
// cluster with helm.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcelldls/edge-containers-cli/internal/clierr"
	"github.com/marcelldls/edge-containers-cli/internal/config"
	"github.com/marcelldls/edge-containers-cli/internal/shell"
	"github.com/marcelldls/edge-containers-cli/pkg/kube"
	"github.com/marcelldls/edge-containers-cli/pkg/kubectl"
	"github.com/marcelldls/edge-containers-cli/pkg/services"
)

var (
	// BuildTag is set during build
	BuildTag = "dev"
	// BuildDate is set during build
	BuildDate = "unknown"
)

var (
	flagNamespace string
	flagVerbose   bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ec",
	Short: "Manage IOC and service instances in the cluster",
	Long: `ec - manage EPICS IOC and service instances in a Kubernetes cluster

ec wraps the kubectl and helm operations used to deploy, inspect and monitor
containerised IOCs. It provides commands for:

  - Listing and live-monitoring service state across the namespace
  - Attaching to, inspecting and restarting individual services
  - Deploying versioned or local instance charts

Environment Variables:
  EC_K8S_NAMESPACE   Namespace scoping all queries (or pass --namespace)
  EC_K8S_BACKEND     Cluster query backend: kubectl (default) or kube
  EC_HELM_REGISTRY   OCI registry charts are deployed from
  EC_LOG_URL         Historical log viewer URL template
  EC_VERBOSE         Echo every external command
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if flagNamespace != "" {
			cfg.Namespace = flagNamespace
		}
		if flagVerbose {
			cfg.Verbose = true
		}
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, clierr.Pretty(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagNamespace, "namespace", "n", "", "Kubernetes namespace (default EC_K8S_NAMESPACE)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Echo external commands as they run")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ec version %s (built %s)\n", BuildTag, BuildDate)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion script",
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	})
}

// newRunner creates the command executor for the current invocation.
func newRunner() *shell.Executor {
	return shell.New(cfg.Verbose, cfg.Debug)
}

// newSource creates the raw cluster source for the configured backend.
func newSource(runner shell.Commander) (services.Source, error) {
	switch cfg.Backend {
	case config.BackendKube:
		source, err := kube.NewSource(cfg.Namespace)
		if err != nil {
			return nil, clierr.WrapWithHint(err,
				"check KUBECONFIG, or set EC_K8S_BACKEND=kubectl to go through the kubectl binary")
		}
		return source, nil
	case config.BackendKubectl:
		return kubectl.NewSource(runner, cfg.Namespace), nil
	default:
		return nil, fmt.Errorf("unknown backend %q: use kubectl or kube", cfg.Backend)
	}
}

// checkNamespace validates the configured namespace against the cluster.
// The kube backend validates implicitly on first query.
func checkNamespace(cmd *cobra.Command, runner shell.Commander) error {
	if cfg.Namespace == "" {
		return fmt.Errorf("no namespace: set EC_K8S_NAMESPACE or pass --namespace")
	}
	if cfg.Backend == config.BackendKubectl {
		return kubectl.CheckNamespace(cmd.Context(), runner, cfg.Namespace)
	}
	return nil
}
