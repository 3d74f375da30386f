// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

// Package clierr classifies errors for CLI output and formats them with
// actionable hints. Connectivity failures are kept distinguishable from
// domain outcomes like "nothing deployed" so callers can choose different
// UX for "cluster unreachable" versus "cluster reachable, nothing to show".
package clierr

import (
	"errors"
	"fmt"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/marcelldls/edge-containers-cli/pkg/services"
)

// Error types for CLI output.
const (
	TypeConnectivity = "connectivity" // Transport, auth or namespace failure
	TypeForbidden    = "forbidden"    // RBAC access denied
	TypeEmpty        = "empty"        // Nothing deployed in the namespace
	TypeNoRunning    = "no_running"   // Nothing currently running
	TypeInternal     = "internal"     // Unexpected errors
)

// IsForbidden checks if the error is an access denied (RBAC) error.
func IsForbidden(err error) bool {
	if err == nil {
		return false
	}
	if apierrors.IsForbidden(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "unauthorized")
}

// IsConnectivity checks if the error is a connection/transport error.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "unable to connect to the server") ||
		strings.Contains(msg, "context deadline exceeded")
}

// ClassifyError determines the type of error for appropriate handling.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, services.ErrEmptyCluster):
		return TypeEmpty
	case errors.Is(err, services.ErrNoRunningServices):
		return TypeNoRunning
	case IsForbidden(err):
		return TypeForbidden
	case IsConnectivity(err):
		return TypeConnectivity
	default:
		return TypeInternal
	}
}

// Pretty formats an error with a user-friendly message and actionable hints.
func Pretty(err error) string {
	if err == nil {
		return ""
	}

	switch ClassifyError(err) {
	case TypeEmpty:
		return "No deployed services found"

	case TypeNoRunning:
		return "No running services found"

	case TypeForbidden:
		return fmt.Sprintf("Access denied: %s\n\nHint: Check your RBAC permissions:\n"+
			"  - kubectl auth can-i list deployments -n <namespace>\n"+
			"  - kubectl auth can-i list pods -n <namespace>", err)

	case TypeConnectivity:
		return fmt.Sprintf("Connection error: %s\n\nHint: Check your cluster connectivity:\n"+
			"  - kubectl cluster-info to verify connection\n"+
			"  - Ensure your kubeconfig is correct", err)

	default:
		return fmt.Sprintf("Error: %s", err)
	}
}

// WrapWithHint wraps an error with an additional hint message.
func WrapWithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w\n\nHint: %s", err, hint)
}
