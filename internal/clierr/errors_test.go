// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/marcelldls/edge-containers-cli/pkg/services"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"empty cluster", services.ErrEmptyCluster, TypeEmpty},
		{"wrapped empty cluster", fmt.Errorf("ps: %w", services.ErrEmptyCluster), TypeEmpty},
		{"no running", services.ErrNoRunningServices, TypeNoRunning},
		{"api forbidden", apierrors.NewForbidden(
			schema.GroupResource{Group: "apps", Resource: "deployments"},
			"svca", errors.New("denied")), TypeForbidden},
		{"text forbidden", errors.New(`pods is forbidden: User "x" cannot list`), TypeForbidden},
		{"connection refused", errors.New("dial tcp 10.0.0.1:6443: connection refused"), TypeConnectivity},
		{"kubectl unreachable", errors.New("The connection to the server was refused - unable to connect to the server"), TypeConnectivity},
		{"unknown", errors.New("something else"), TypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestPrettyDomainOutcomes(t *testing.T) {
	assert.Equal(t, "No deployed services found", Pretty(services.ErrEmptyCluster))
	assert.Equal(t, "No running services found", Pretty(services.ErrNoRunningServices))
	assert.Empty(t, Pretty(nil))
}

func TestPrettyIncludesHints(t *testing.T) {
	forbidden := Pretty(errors.New("pods is forbidden"))
	assert.Contains(t, forbidden, "Access denied")
	assert.Contains(t, forbidden, "kubectl auth can-i")

	connectivity := Pretty(errors.New("no such host"))
	assert.Contains(t, connectivity, "Connection error")
	assert.Contains(t, connectivity, "kubectl cluster-info")
}

func TestWrapWithHint(t *testing.T) {
	base := errors.New("boom")
	wrapped := WrapWithHint(base, "try again")
	assert.ErrorIs(t, wrapped, base)
	assert.Contains(t, wrapped.Error(), "Hint: try again")

	assert.NoError(t, WrapWithHint(nil, "ignored"))
}
