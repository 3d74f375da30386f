// Copyright (c) Diamond Light Source Ltd.
// SPDX-License-Identifier: Apache-2.0

// Package kube reads cluster state directly from the API server with
// client-go, producing the same raw tables as the kubectl backend without
// needing the kubectl or helm binaries on PATH.
package kube

import (
	"context"
	"fmt"
	"os"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/marcelldls/edge-containers-cli/pkg/services"
)

// Source implements services.Source against a Kubernetes clientset.
type Source struct {
	client    kubernetes.Interface
	namespace string
}

// NewSource creates a direct API source scoped to one namespace. It tries
// in-cluster config first and falls back to the kubeconfig file.
func NewSource(namespace string) (*Source, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, fmt.Errorf("build kubernetes config: %w", err)
	}
	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("create kubernetes client: %w", err)
	}
	return &Source{client: client, namespace: namespace}, nil
}

// NewSourceWithClient creates a source with an existing client.
func NewSourceWithClient(client kubernetes.Interface, namespace string) *Source {
	return &Source{client: client, namespace: namespace}
}

// Workloads returns name and image for every deployment and statefulset in
// the namespace.
func (s *Source) Workloads(ctx context.Context) ([]services.WorkloadRow, error) {
	var rows []services.WorkloadRow

	deployments, err := s.client.AppsV1().Deployments(s.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	for _, d := range deployments.Items {
		image := ""
		if containers := d.Spec.Template.Spec.Containers; len(containers) > 0 {
			image = containers[0].Image
		}
		rows = append(rows, services.WorkloadRow{Name: d.Name, Image: image})
	}

	statefulsets, err := s.client.AppsV1().StatefulSets(s.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list statefulsets: %w", err)
	}
	for _, ss := range statefulsets.Items {
		image := ""
		if containers := ss.Spec.Template.Spec.Containers; len(containers) > 0 {
			image = containers[0].Image
		}
		rows = append(rows, services.WorkloadRow{Name: ss.Name, Image: image})
	}

	return rows, nil
}

// Pods returns the app label, phase and restart count of every pod in the
// namespace. Pods without an app label fall back to the pod name.
func (s *Source) Pods(ctx context.Context) ([]services.PodRow, error) {
	pods, err := s.client.CoreV1().Pods(s.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list pods: %w", err)
	}
	var rows []services.PodRow
	for _, pod := range pods.Items {
		name := pod.Labels["app"]
		if name == "" {
			name = pod.Name
		}
		restarts := 0
		if statuses := pod.Status.ContainerStatuses; len(statuses) > 0 {
			restarts = int(statuses[0].RestartCount)
		}
		rows = append(rows, services.PodRow{
			Name:     name,
			Phase:    string(pod.Status.Phase),
			Restarts: restarts,
		})
	}
	return rows, nil
}

// buildConfig builds a Kubernetes client config, in-cluster first.
func buildConfig() (*rest.Config, error) {
	cfg, err := rest.InClusterConfig()
	if err == nil {
		return cfg, nil
	}

	kubeconfig := os.Getenv("KUBECONFIG")
	if kubeconfig == "" {
		home, _ := os.UserHomeDir()
		kubeconfig = home + "/.kube/config"
	}
	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}
