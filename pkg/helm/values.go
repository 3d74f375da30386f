// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package helm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"
)

// InstanceImage returns the container image reference from an instance's
// values.yaml, optionally overriding the tag.
func InstanceImage(instancePath, tag string) (string, error) {
	data, err := os.ReadFile(filepath.Join(instancePath, "values.yaml"))
	if err != nil {
		return "", fmt.Errorf("values.yaml not found in %s", instancePath)
	}

	var values map[string]any
	if err := yamlv3.Unmarshal(data, &values); err != nil {
		return "", fmt.Errorf("parse values.yaml: %w", err)
	}

	image, ok := values["image"].(string)
	if !ok || image == "" {
		return "", fmt.Errorf("image definition not found in %s", instancePath)
	}

	if tag != "" {
		// The last colon separates the tag; earlier ones may be a registry
		// port.
		if i := strings.LastIndex(image, ":"); i > strings.LastIndex(image, "/") {
			image = image[:i]
		}
		image = image + ":" + tag
	}
	return image, nil
}

// RegistryFor maps a source repository host to its container registry using
// the configured source=registry mapping, e.g. github.com to ghcr.io.
func RegistryFor(repo string, mapping map[string]string) (string, error) {
	for source, registry := range mapping {
		if strings.Contains(repo, source) {
			return registry, nil
		}
	}
	return "", fmt.Errorf("no registry mapping for %s", repo)
}
