// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcelldls/edge-containers-cli/internal/shell"
	"github.com/marcelldls/edge-containers-cli/pkg/helm"
	"github.com/marcelldls/edge-containers-cli/pkg/kubectl"
)

var (
	logsPrevious bool
	logsFollow   bool
	deleteYes    bool
)

func init() {
	logsCmd.Flags().BoolVarP(&logsPrevious, "previous", "p", false, "Show logs from the previous instance")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow the log stream")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(attachCmd, execCmd, logsCmd, restartCmd, startCmd, stopCmd, deleteCmd, logHistoryCmd)
}

// resolveService validates the namespace and resolves a service name to its
// workload resource for the kubectl-based one-shot commands.
func resolveService(cmd *cobra.Command, runner shell.Commander, name string) (string, error) {
	if err := checkNamespace(cmd, runner); err != nil {
		return "", err
	}
	return kubectl.CheckService(cmd.Context(), runner, cfg.Namespace, name)
}

var attachCmd = &cobra.Command{
	Use:   "attach <service>",
	Short: "Attach to the console of a running service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := newRunner()
		fullname, err := resolveService(cmd, runner, args[0])
		if err != nil {
			return err
		}
		_, err = runner.Run(cmd.Context(), shell.Options{Interactive: true},
			"kubectl", "attach", "-it", "-n", cfg.Namespace, fullname)
		return err
	},
}

var execCmd = &cobra.Command{
	Use:   "exec <service>",
	Short: "Open a bash prompt in a running service's container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := newRunner()
		fullname, err := resolveService(cmd, runner, args[0])
		if err != nil {
			return err
		}
		_, err = runner.Run(cmd.Context(), shell.Options{Interactive: true},
			"kubectl", "exec", "-it", "-n", cfg.Namespace, fullname, "--", "bash")
		return err
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs <service>",
	Short: "Show logs for a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := newRunner()
		fullname, err := resolveService(cmd, runner, args[0])
		if err != nil {
			return err
		}
		kargs := []string{"logs", "-n", cfg.Namespace, fullname}
		if logsPrevious {
			kargs = append(kargs, "-p")
		}
		if logsFollow {
			kargs = append(kargs, "-f")
		}
		_, err = runner.Run(cmd.Context(), shell.Options{Interactive: true}, "kubectl", kargs...)
		return err
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart <service>",
	Short: "Restart a service by deleting its pods",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := newRunner()
		if _, err := resolveService(cmd, runner, args[0]); err != nil {
			return err
		}
		pods, err := kubectl.PodNames(cmd.Context(), runner, cfg.Namespace, args[0])
		if err != nil {
			return err
		}
		for _, pod := range pods {
			if _, err := runner.Run(cmd.Context(), shell.Options{Show: true},
				"kubectl", "delete", "-n", cfg.Namespace, pod); err != nil {
				return err
			}
		}
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start <service>",
	Short: "Start a stopped service",
	Args:  cobra.ExactArgs(1),
	RunE:  scaleService("1"),
}

var stopCmd = &cobra.Command{
	Use:   "stop <service>",
	Short: "Stop a running service",
	Args:  cobra.ExactArgs(1),
	RunE:  scaleService("0"),
}

// scaleService builds the RunE for start/stop, which only differ in replica
// count.
func scaleService(replicas string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		runner := newRunner()
		fullname, err := resolveService(cmd, runner, args[0])
		if err != nil {
			return err
		}
		_, err = runner.Run(cmd.Context(), shell.Options{Show: true},
			"kubectl", "scale", "-n", cfg.Namespace, fullname, "--replicas="+replicas)
		return err
	}
}

var deleteCmd = &cobra.Command{
	Use:   "delete <service>",
	Short: "Remove all versions of a service from the cluster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := newRunner()
		if err := checkNamespace(cmd, runner); err != nil {
			return err
		}
		if !deleteYes && !confirm(fmt.Sprintf(
			"This will remove all versions of %s from the cluster. Are you sure?", args[0])) {
			return fmt.Errorf("aborted")
		}
		return helm.NewManager(runner, cfg.Namespace, cfg.HelmRegistry).Delete(cmd.Context(), args[0])
	},
}

var logHistoryCmd = &cobra.Command{
	Use:   "log-history <service>",
	Short: "Open historical logs for a service in the browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.LogURL == "" {
			return fmt.Errorf("EC_LOG_URL environment not set")
		}
		url := strings.ReplaceAll(cfg.LogURL, "{service_name}", args[0])
		return openBrowser(url)
	},
}

// confirm prompts on stdin for a yes/no answer.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// openBrowser opens a URL with the platform opener.
func openBrowser(url string) error {
	for _, opener := range []string{"xdg-open", "open"} {
		if _, err := exec.LookPath(opener); err == nil {
			return exec.Command(opener, url).Start()
		}
	}
	fmt.Println(url)
	return nil
}
