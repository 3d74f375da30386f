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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/marcelldls/edge-containers-cli/pkg/services"
)

// encodeRelease encodes a helmRelease to the format helm stores in secrets.
func encodeRelease(t *testing.T, release *helmRelease) []byte {
	t.Helper()

	jsonData, err := json.Marshal(release)
	require.NoError(t, err)

	var buf bytes.Buffer
	gzWriter := gzip.NewWriter(&buf)
	_, err = gzWriter.Write(jsonData)
	require.NoError(t, err)
	require.NoError(t, gzWriter.Close())

	return []byte(base64.StdEncoding.EncodeToString(buf.Bytes()))
}

func releaseSecret(t *testing.T, namespace string, release *helmRelease) *corev1.Secret {
	t.Helper()
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("%s%s.v%d", helmSecretPrefix, release.Name, release.Version),
			Namespace: namespace,
			Labels:    map[string]string{"owner": "helm"},
		},
		Data: map[string][]byte{"release": encodeRelease(t, release)},
	}
}

func TestReleasesKeepsNewestRevision(t *testing.T) {
	deployed := time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)
	client := fake.NewSimpleClientset(
		releaseSecret(t, "bl01t", &helmRelease{
			Name:    "svca",
			Version: 1,
			Info:    helmReleaseInfo{LastDeployed: deployed.Add(-24 * time.Hour), Status: "superseded"},
			Chart:   helmChart{Metadata: helmChartMetadata{Name: "svca", AppVersion: "1.0"}},
		}),
		releaseSecret(t, "bl01t", &helmRelease{
			Name:    "svca",
			Version: 2,
			Info:    helmReleaseInfo{LastDeployed: deployed, Status: "deployed"},
			Chart:   helmChart{Metadata: helmChartMetadata{Name: "svca", AppVersion: "1.1"}},
		}),
	)
	source := NewSourceWithClient(client, "bl01t")

	rows, err := source.Releases(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, services.ReleaseRow{
		Name:       "svca",
		AppVersion: "1.1",
		Updated:    "2024-01-02 10:30:00",
	}, rows[0])
}

func TestReleasesSortedByName(t *testing.T) {
	deployed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	client := fake.NewSimpleClientset(
		releaseSecret(t, "bl01t", &helmRelease{
			Name: "zeta", Version: 1,
			Info:  helmReleaseInfo{LastDeployed: deployed, Status: "deployed"},
			Chart: helmChart{Metadata: helmChartMetadata{AppVersion: "2.0"}},
		}),
		releaseSecret(t, "bl01t", &helmRelease{
			Name: "alpha", Version: 1,
			Info:  helmReleaseInfo{LastDeployed: deployed, Status: "deployed"},
			Chart: helmChart{Metadata: helmChartMetadata{AppVersion: "1.0"}},
		}),
	)
	source := NewSourceWithClient(client, "bl01t")

	rows, err := source.Releases(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alpha", rows[0].Name)
	assert.Equal(t, "zeta", rows[1].Name)
}

func TestReleasesSkipsUndecodableSecrets(t *testing.T) {
	client := fake.NewSimpleClientset(&corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      helmSecretPrefix + "broken.v1",
			Namespace: "bl01t",
			Labels:    map[string]string{"owner": "helm"},
		},
		Data: map[string][]byte{"release": []byte("not base64 gzip json")},
	})
	source := NewSourceWithClient(client, "bl01t")

	rows, err := source.Releases(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeReleaseEmptyData(t *testing.T) {
	_, err := decodeRelease(nil)
	assert.Error(t, err)
}
