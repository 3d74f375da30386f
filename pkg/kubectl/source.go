// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

// Package kubectl reads cluster state by shelling out to kubectl and helm.
// Queries return raw structured text: "not found" is an empty result, only
// connectivity and auth failures surface as errors.
package kubectl

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/marcelldls/edge-containers-cli/internal/shell"
	"github.com/marcelldls/edge-containers-cli/pkg/services"
)

// jsonpath specs producing one CSV row per item.
const (
	workloadInfoJSONPath = `jsonpath={range .items[*]}{.metadata.name}{","}{.spec.template.spec.containers[0].image}{"\n"}{end}`
	podInfoJSONPath      = `jsonpath={range .items[*]}{.metadata.labels.app}{","}{.status.phase}{","}{.status.containerStatuses[0].restartCount}{"\n"}{end}`
)

// workloadKinds are the two resource kinds that make up the base service
// population. IOCs run as statefulsets, so those are probed first.
var workloadKinds = []string{"statefulset", "deployment"}

// Source implements services.Source over the kubectl and helm binaries.
type Source struct {
	runner    shell.Commander
	namespace string
}

// NewSource creates a kubectl-backed source scoped to one namespace.
func NewSource(runner shell.Commander, namespace string) *Source {
	return &Source{runner: runner, namespace: namespace}
}

// Workloads returns name and image for every deployment and statefulset in
// the namespace.
func (s *Source) Workloads(ctx context.Context) ([]services.WorkloadRow, error) {
	var rows []services.WorkloadRow
	for _, kind := range workloadKinds {
		out, err := s.runner.Run(ctx, shell.Options{},
			"kubectl", "get", kind, "-n", s.namespace, "-o", workloadInfoJSONPath)
		if err != nil {
			return nil, err
		}
		for _, line := range csvLines(out) {
			name, image, _ := strings.Cut(line, ",")
			rows = append(rows, services.WorkloadRow{Name: name, Image: image})
		}
	}
	return rows, nil
}

// Pods returns the app label, phase and restart count of every pod in the
// namespace.
func (s *Source) Pods(ctx context.Context) ([]services.PodRow, error) {
	out, err := s.runner.Run(ctx, shell.Options{},
		"kubectl", "get", "pods", "-n", s.namespace, "-o", podInfoJSONPath)
	if err != nil {
		return nil, err
	}
	var rows []services.PodRow
	for _, line := range csvLines(out) {
		fields := strings.SplitN(line, ",", 3)
		if len(fields) != 3 {
			continue
		}
		restarts, _ := strconv.Atoi(fields[2])
		rows = append(rows, services.PodRow{
			Name:     fields[0],
			Phase:    fields[1],
			Restarts: restarts,
		})
	}
	return rows, nil
}

// helmListEntry is one release in helm list -o json output.
type helmListEntry struct {
	Name       string `json:"name"`
	AppVersion string `json:"app_version"`
	Updated    string `json:"updated"`
}

// Releases returns name, app version and last-deploy time for every helm
// release in the namespace. Timestamps are truncated to second precision.
func (s *Source) Releases(ctx context.Context) ([]services.ReleaseRow, error) {
	out, err := s.runner.Run(ctx, shell.Options{},
		"helm", "list", "-n", s.namespace, "-o", "json")
	if err != nil {
		return nil, err
	}
	var entries []helmListEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entries); err != nil {
		return nil, fmt.Errorf("parse helm list output: %w", err)
	}
	rows := make([]services.ReleaseRow, 0, len(entries))
	for _, e := range entries {
		updated := e.Updated
		if len(updated) > len(services.DeployedTimeLayout) {
			updated = updated[:len(services.DeployedTimeLayout)]
		}
		rows = append(rows, services.ReleaseRow{
			Name:       e.Name,
			AppVersion: e.AppVersion,
			Updated:    updated,
		})
	}
	return rows, nil
}

// csvLines splits raw query output into non-blank lines.
func csvLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
