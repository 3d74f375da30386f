// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

// Package helm deploys, templates and removes service instance charts. It is
// plain command templating over the executor; nothing here aggregates state.
package helm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/marcelldls/edge-containers-cli/internal/shell"
)

// Manager performs chart operations against one namespace.
type Manager struct {
	runner    shell.Commander
	namespace string
	registry  string
}

// NewManager creates a chart manager. registry is the OCI registry remote
// charts are pulled from and may be empty for local-only operations.
func NewManager(runner shell.Commander, namespace, registry string) *Manager {
	return &Manager{runner: runner, namespace: namespace, registry: registry}
}

// Deploy pulls a versioned chart from the registry and installs or upgrades
// it in the namespace.
func (m *Manager) Deploy(ctx context.Context, name, version string, extraArgs []string) error {
	if m.registry == "" {
		return fmt.Errorf("no helm registry: set EC_HELM_REGISTRY or pass --registry")
	}
	if version == "" {
		return fmt.Errorf("version is required")
	}
	args := []string{
		"upgrade", "--install", "-n", m.namespace, name,
		fmt.Sprintf("oci://%s/%s", m.registry, name), "--version", version,
	}
	args = append(args, extraArgs...)
	_, err := m.runner.Run(ctx, shell.Options{Show: true}, "helm", args...)
	return err
}

// DeployLocal installs a local instance chart directly under the given
// version, normally a BetaVersion. When template is set, the chart is
// rendered instead of installed.
func (m *Manager) DeployLocal(ctx context.Context, instancePath, version string, template bool, extraArgs []string) error {
	name, path, err := CheckInstancePath(instancePath)
	if err != nil {
		return err
	}

	action := []string{"upgrade", "--install"}
	if template {
		action = []string{"template"}
	}

	args := append(action, name, path,
		"--version", version,
		"--namespace", m.namespace,
		"-f", filepath.Join(path, "values.yaml"),
		"--set", "ioc_name="+name,
		"--set", "ioc_version="+version,
	)
	args = append(args, extraArgs...)
	_, err = m.runner.Run(ctx, shell.Options{Show: true}, "helm", args...)
	return err
}

// Delete removes all versions of a release from the cluster.
func (m *Manager) Delete(ctx context.Context, name string) error {
	_, err := m.runner.Run(ctx, shell.Options{Show: true},
		"helm", "delete", "-n", m.namespace, name)
	return err
}

// Versions lists the chart versions available for a service in the registry.
func (m *Manager) Versions(ctx context.Context, name string) error {
	if m.registry == "" {
		return fmt.Errorf("no helm registry: set EC_HELM_REGISTRY or pass --registry")
	}
	_, err := m.runner.Run(ctx, shell.Options{Show: true},
		"podman", "run", "--rm", "quay.io/skopeo/stable",
		"list-tags", fmt.Sprintf("docker://%s/%s", m.registry, name))
	return err
}

// BetaVersion builds the dated temporary version used for local deploys,
// e.g. 2024.1.9-b14.35.
func BetaVersion(now time.Time) string {
	return fmt.Sprintf("%d.%d.%d-b%d.%d",
		now.Year(), int(now.Month()), now.Day(), now.Hour(), now.Minute())
}

// chartMeta is the subset of Chart.yaml we read.
type chartMeta struct {
	Name string `json:"name"`
}

// CheckInstancePath verifies that path holds a deployable instance chart
// (Chart.yaml, values.yaml and a config directory) and returns the service
// name from Chart.yaml, lower-cased, with the absolute path.
func CheckInstancePath(path string) (string, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", "", fmt.Errorf("instance path %s does not exist", abs)
	}

	data, err := os.ReadFile(filepath.Join(abs, "Chart.yaml"))
	if err != nil {
		return "", "", fmt.Errorf("instance requires a Chart.yaml: %w", err)
	}
	var meta chartMeta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return "", "", fmt.Errorf("parse Chart.yaml: %w", err)
	}
	if meta.Name == "" {
		return "", "", fmt.Errorf("Chart.yaml in %s has no name", abs)
	}

	if _, err := os.Stat(filepath.Join(abs, "values.yaml")); err != nil {
		return "", "", fmt.Errorf("instance requires values.yaml and config: %w", err)
	}
	if info, err := os.Stat(filepath.Join(abs, "config")); err != nil || !info.IsDir() {
		return "", "", fmt.Errorf("instance requires values.yaml and config")
	}

	return strings.ToLower(meta.Name), abs, nil
}
