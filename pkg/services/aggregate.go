// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Aggregator merges the raw workload, pod and release tables into ordered
// ServiceRecord snapshots. The workload population is authoritative: pod and
// release rows naming a service with no workload resource are ignored, and a
// record is never invented from pod or release data alone.
type Aggregator struct {
	source Source
}

// NewAggregator creates an aggregator over a raw source.
func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// Aggregate builds one complete snapshot from live queries. When includeAll
// is false the result is filtered to running services only, after all joins
// are complete so that version and deploy metadata survive the filter.
//
// It fails with ErrEmptyCluster when the workload query returns no rows and
// with ErrNoRunningServices when includeAll is false and no pod reports
// running state. Transport errors from the source propagate unchanged.
func (a *Aggregator) Aggregate(ctx context.Context, includeAll bool) ([]ServiceRecord, error) {
	workloads, err := a.source.Workloads(ctx)
	if err != nil {
		return nil, fmt.Errorf("query workloads: %w", err)
	}
	if len(workloads) == 0 {
		return nil, ErrEmptyCluster
	}

	// Later-wins union: a name is expected in exactly one workload kind but
	// duplicates are tolerated.
	order := make([]string, 0, len(workloads))
	records := make(map[string]*ServiceRecord, len(workloads))
	for _, w := range workloads {
		if _, ok := records[w.Name]; !ok {
			order = append(order, w.Name)
		}
		records[w.Name] = &ServiceRecord{Name: w.Name, Image: w.Image}
	}

	pods, err := a.source.Pods(ctx)
	if err != nil {
		return nil, fmt.Errorf("query pods: %w", err)
	}
	if len(pods) == 0 && !includeAll {
		// No pod rows at all is a cluster-wide condition, distinct from
		// "pods found, none running".
		return nil, ErrNoRunningServices
	}
	for _, p := range pods {
		rec, ok := records[p.Name]
		if !ok {
			// Pod references a name outside the workload population.
			continue
		}
		// Multi-replica services and pods mid-replacement report several
		// rows per name: running if any pod is, restarts totalled across
		// them.
		rec.Running = rec.Running || p.Phase == "Running"
		rec.Restarts += p.Restarts
	}

	releases, err := a.source.Releases(ctx)
	if err != nil {
		return nil, fmt.Errorf("query releases: %w", err)
	}
	for _, r := range releases {
		rec, ok := records[r.Name]
		if !ok {
			continue
		}
		rec.Version = r.AppVersion
		rec.Deployed = parseDeployed(r.Updated)
	}

	sort.Strings(order)
	out := make([]ServiceRecord, 0, len(order))
	for _, name := range order {
		rec := *records[name]
		if !includeAll && !rec.Running {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// parseDeployed parses a release timestamp truncated to second precision.
// Anything unparsable is treated as absent.
func parseDeployed(updated string) time.Time {
	if len(updated) > len(DeployedTimeLayout) {
		updated = updated[:len(DeployedTimeLayout)]
	}
	t, err := time.Parse(DeployedTimeLayout, updated)
	if err != nil {
		return time.Time{}
	}
	return t
}
