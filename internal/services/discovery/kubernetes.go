// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/autobrr/animebrr/internal/models"
)

// KubernetesDiscovery finds backends from Kubernetes service labels
type KubernetesDiscovery struct {
	client kubernetes.Interface
}

// NewKubernetesDiscovery creates a discovery instance from the local kubeconfig
func NewKubernetesDiscovery() (*KubernetesDiscovery, error) {
	var kubeconfig string
	if home := homedir.HomeDir(); home != "" {
		kubeconfig = filepath.Join(home, ".kube", "config")
	}
	if envKubeconfig := os.Getenv("KUBECONFIG"); envKubeconfig != "" {
		kubeconfig = envKubeconfig
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	return &KubernetesDiscovery{
		client: clientset,
	}, nil
}

func (k *KubernetesDiscovery) Name() string {
	return "kubernetes"
}

// DiscoverBackends lists services in all namespaces labelled with the
// enabled key. URLs are not valid label values, so the remaining keys are
// read from annotations as well.
func (k *KubernetesDiscovery) DiscoverBackends(ctx context.Context) ([]models.BackendInstance, error) {
	services, err := k.client.CoreV1().Services("").List(ctx, metav1.ListOptions{
		LabelSelector: GetLabelKey(labelEnabledKey),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	var backends []models.BackendInstance
	for _, service := range services.Items {
		defaultID := fmt.Sprintf("%s-k8s-%s", service.Name, service.Namespace)
		labels := make(map[string]string, len(service.Labels)+len(service.Annotations))
		for key, value := range service.Labels {
			labels[key] = value
		}
		for key, value := range service.Annotations {
			labels[key] = value
		}

		backend, err := parseLabels(labels, defaultID)
		if err != nil {
			log.Warn().
				Err(err).
				Str("service", service.Namespace+"/"+service.Name).
				Msg("Failed to parse backend labels")
			continue
		}
		if backend != nil {
			backends = append(backends, *backend)
		}
	}

	return backends, nil
}

// Close is a no-op for Kubernetes client
func (k *KubernetesDiscovery) Close() error {
	return nil
}
