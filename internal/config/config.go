// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the CLI configuration from the environment once at
// startup. Commands receive the resulting value explicitly; nothing in the
// repository reads these variables after load.
package config

import (
	"os"
	"strings"
	"time"
)

// Backend selects how cluster state is queried.
type Backend string

const (
	// BackendKubectl shells out to kubectl and helm (the default).
	BackendKubectl Backend = "kubectl"
	// BackendKube talks to the API server directly with client-go and reads
	// helm releases from their storage secrets.
	BackendKube Backend = "kube"
)

// DefaultMonitorInterval is the monitor's refresh cadence.
const DefaultMonitorInterval = 2 * time.Second

// Config carries all environment-derived settings.
type Config struct {
	// Namespace scopes every cluster query. EC_K8S_NAMESPACE, overridable
	// with --namespace.
	Namespace string
	// LogURL is a template for the historical log viewer, with
	// {service_name} substituted. EC_LOG_URL.
	LogURL string
	// HelmRegistry is the OCI registry charts are deployed from.
	// EC_HELM_REGISTRY.
	HelmRegistry string
	// RegistryMapping maps source hosts to container registries as
	// space-separated "source=registry" pairs. EC_REGISTRY_MAPPING.
	RegistryMapping map[string]string
	// Backend selects the cluster query implementation. EC_K8S_BACKEND.
	Backend Backend
	// Verbose echoes every external command. EC_VERBOSE.
	Verbose bool
	// Debug keeps scratch directories for inspection. EC_DEBUG.
	Debug bool
}

// Load reads the configuration from the environment.
func Load() Config {
	cfg := Config{
		Namespace:       os.Getenv("EC_K8S_NAMESPACE"),
		LogURL:          os.Getenv("EC_LOG_URL"),
		HelmRegistry:    os.Getenv("EC_HELM_REGISTRY"),
		RegistryMapping: parseRegistryMapping(os.Getenv("EC_REGISTRY_MAPPING")),
		Backend:         BackendKubectl,
		Verbose:         boolEnv("EC_VERBOSE"),
		Debug:           boolEnv("EC_DEBUG"),
	}
	if b := os.Getenv("EC_K8S_BACKEND"); b != "" {
		cfg.Backend = Backend(b)
	}
	return cfg
}

// parseRegistryMapping parses "source=registry" pairs separated by spaces or
// newlines, e.g. "github.com=ghcr.io".
func parseRegistryMapping(raw string) map[string]string {
	if raw == "" {
		raw = "github.com=ghcr.io"
	}
	mapping := make(map[string]string)
	for _, pair := range strings.Fields(raw) {
		source, registry, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		mapping[source] = registry
	}
	return mapping
}

// boolEnv treats "" and "0" as false, anything else as true.
func boolEnv(name string) bool {
	v := os.Getenv(name)
	return v != "" && v != "0"
}
