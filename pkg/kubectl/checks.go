// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

package kubectl

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcelldls/edge-containers-cli/internal/shell"
)

// CheckNamespace verifies the namespace is set and exists in the cluster.
func CheckNamespace(ctx context.Context, runner shell.Commander, namespace string) error {
	if namespace == "" {
		return fmt.Errorf("no namespace: set EC_K8S_NAMESPACE or pass --namespace")
	}
	out, err := runner.Run(ctx, shell.Options{ErrorOK: true},
		"kubectl", "get", "namespace", namespace, "-o", "name")
	if err != nil {
		return err
	}
	if strings.Contains(out, "NotFound") || !strings.Contains(out, namespace) {
		return fmt.Errorf("namespace %q not found: check ~/.kube/config or EC_K8S_NAMESPACE", namespace)
	}
	return nil
}

// CheckService resolves a service name to its workload resource, i.e.
// "statefulset/name" or "deployment/name", whichever exists.
func CheckService(ctx context.Context, runner shell.Commander, namespace, name string) (string, error) {
	for _, kind := range workloadKinds {
		out, err := runner.Run(ctx, shell.Options{ErrorOK: true},
			"kubectl", "get", kind, "-o", "name", "-n", namespace, name, "--ignore-not-found")
		if err != nil {
			return "", err
		}
		if fullname := strings.TrimSpace(out); fullname != "" {
			return fullname, nil
		}
	}
	return "", fmt.Errorf("%s does not exist in namespace %s", name, namespace)
}

// PodNames returns the pod resource names carrying the service's app label.
func PodNames(ctx context.Context, runner shell.Commander, namespace, name string) ([]string, error) {
	out, err := runner.Run(ctx, shell.Options{},
		"kubectl", "get", "-n", namespace, "pod", "-l", "app="+name, "-o", "name")
	if err != nil {
		return nil, err
	}
	return csvLines(out), nil
}
