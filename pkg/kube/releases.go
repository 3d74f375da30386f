// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package kube

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/marcelldls/edge-containers-cli/pkg/services"
)

// helm stores each release revision in a secret named
// sh.helm.release.v1.<release>.v<revision>, labelled owner=helm, with the
// payload base64(gzip(json)) under the "release" key.
const helmSecretPrefix = "sh.helm.release.v1."

// helmRelease is the subset of helm's stored release we need.
type helmRelease struct {
	Name    string          `json:"name"`
	Version int             `json:"version"`
	Info    helmReleaseInfo `json:"info"`
	Chart   helmChart       `json:"chart"`
}

type helmReleaseInfo struct {
	LastDeployed time.Time `json:"last_deployed"`
	Status       string    `json:"status"`
}

type helmChart struct {
	Metadata helmChartMetadata `json:"metadata"`
}

type helmChartMetadata struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	AppVersion string `json:"appVersion"`
}

// Releases returns name, app version and last-deploy time for every helm
// release in the namespace, keeping only the newest revision of each.
func (s *Source) Releases(ctx context.Context) ([]services.ReleaseRow, error) {
	secrets, err := s.client.CoreV1().Secrets(s.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: "owner=helm",
	})
	if err != nil {
		return nil, fmt.Errorf("list helm release secrets: %w", err)
	}

	latest := make(map[string]*helmRelease)
	for _, secret := range secrets.Items {
		if !strings.HasPrefix(secret.Name, helmSecretPrefix) {
			continue
		}
		release, err := decodeRelease(secret.Data["release"])
		if err != nil {
			// Skip undecodable revisions.
			continue
		}
		existing, ok := latest[release.Name]
		if !ok || release.Version > existing.Version {
			latest[release.Name] = release
		}
	}

	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]services.ReleaseRow, 0, len(names))
	for _, name := range names {
		release := latest[name]
		updated := ""
		if !release.Info.LastDeployed.IsZero() {
			updated = release.Info.LastDeployed.Format(services.DeployedTimeLayout)
		}
		rows = append(rows, services.ReleaseRow{
			Name:       release.Name,
			AppVersion: release.Chart.Metadata.AppVersion,
			Updated:    updated,
		})
	}
	return rows, nil
}

// decodeRelease decodes a stored helm release payload.
func decodeRelease(data []byte) (*helmRelease, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty release data")
	}

	decoded, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}

	reader, err := gzip.NewReader(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}

	var release helmRelease
	if err := json.Unmarshal(decompressed, &release); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return &release, nil
}
