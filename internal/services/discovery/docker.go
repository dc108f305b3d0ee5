// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/models"
)

type containerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	Close() error
}

// DockerDiscovery finds backends from Docker container labels
type DockerDiscovery struct {
	client containerLister
}

// NewDockerDiscovery creates a new Docker discovery instance
func NewDockerDiscovery() (*DockerDiscovery, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &DockerDiscovery{
		client: cli,
	}, nil
}

func (d *DockerDiscovery) Name() string {
	return "docker"
}

// DiscoverBackends lists running containers carrying a backend URL label
func (d *DockerDiscovery) DiscoverBackends(ctx context.Context) ([]models.BackendInstance, error) {
	f := filters.NewArgs()
	f.Add("label", GetLabelKey(labelURLKey))

	containers, err := d.client.ContainerList(ctx, container.ListOptions{
		All:     false,
		Filters: f,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var backends []models.BackendInstance
	for _, c := range containers {
		backend, err := parseLabels(c.Labels, containerName(c)+"-docker")
		if err != nil {
			log.Warn().Err(err).Str("container", shortID(c.ID)).Msg("Failed to parse backend labels")
			continue
		}
		if backend != nil {
			backends = append(backends, *backend)
		}
	}

	return backends, nil
}

func containerName(c types.Container) string {
	for _, name := range c.Names {
		if name = strings.TrimPrefix(name, "/"); name != "" {
			return name
		}
	}
	return shortID(c.ID)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// Close closes the Docker client connection
func (d *DockerDiscovery) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
