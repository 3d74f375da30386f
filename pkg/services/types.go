// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

// Package services aggregates the live state of deployed service instances
// from the cluster's workload, pod and helm release data into one canonical
// per-service record set.
package services

import (
	"context"
	"errors"
	"time"
)

// DeployedTimeLayout is the second-precision timestamp format used for the
// deployed column, both on the wire (helm's updated field truncated to 19
// characters) and in rendered output.
const DeployedTimeLayout = "2006-01-02 15:04:05"

// ServiceRecord is one row of an aggregation snapshot, keyed by service
// name. Version and Deployed are absent (empty / zero) when no helm release
// matches the service; Running and Restarts default to false / 0 when no
// pod data exists for it.
type ServiceRecord struct {
	Name     string    `json:"name"`
	Version  string    `json:"version,omitempty"`
	Running  bool      `json:"running"`
	Restarts int       `json:"restarts"`
	Deployed time.Time `json:"deployed,omitempty"`
	Image    string    `json:"image,omitempty"`
}

// WorkloadRow is one deployment or statefulset as reported by the cluster.
type WorkloadRow struct {
	Name  string
	Image string
}

// PodRow is the status of one service's pod. Phase is the raw pod phase
// string; only "Running" counts as running.
type PodRow struct {
	Name     string
	Phase    string
	Restarts int
}

// ReleaseRow is one helm release tracked in the namespace. Updated carries
// the last-deploy timestamp already truncated to second precision.
type ReleaseRow struct {
	Name       string
	AppVersion string
	Updated    string
}

// Source reads the three raw tables that feed aggregation. Implementations
// return a nil or empty slice for "no data" and reserve errors for
// connectivity, auth and query-transport failures.
type Source interface {
	Workloads(ctx context.Context) ([]WorkloadRow, error)
	Pods(ctx context.Context) ([]PodRow, error)
	Releases(ctx context.Context) ([]ReleaseRow, error)
}

// ErrEmptyCluster reports that the workload query returned no rows at all:
// nothing is deployed in the namespace. This does not resolve by waiting.
var ErrEmptyCluster = errors.New("no deployed services found")

// ErrNoRunningServices reports that no pod in the namespace is running
// while only running services were requested. Transient: the condition can
// change on the next poll.
var ErrNoRunningServices = errors.New("no running services found")
