// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autobrr/animebrr/internal/models"
)

// ConfigFile is the layout of backend import and export files
type ConfigFile struct {
	Backends []BackendConfig `json:"backends" yaml:"backends"`
}

// BackendConfig is one backend entry of a ConfigFile
type BackendConfig struct {
	ID          string `json:"id" yaml:"id"`
	URL         string `json:"url" yaml:"url"`
	DisplayName string `json:"name,omitempty" yaml:"name,omitempty"`
	TaskAPI     string `json:"task_api,omitempty" yaml:"task_api,omitempty"`
}

func fileFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported file format: %s", ext)
	}
}

// ImportConfig reads backends from a YAML or JSON file. URLs written as
// ${VAR} are resolved from the environment.
func ImportConfig(path string) ([]models.BackendInstance, error) {
	format, err := fileFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file ConfigFile
	if format == "yaml" {
		err = yaml.Unmarshal(data, &file)
	} else {
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s config: %w", strings.ToUpper(format), err)
	}

	backends := make([]models.BackendInstance, 0, len(file.Backends))
	for i, cfg := range file.Backends {
		url, err := expandEnv(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("backend %d: %w", i+1, err)
		}

		instanceID := cfg.ID
		if instanceID == "" {
			instanceID = fmt.Sprintf("config-%d", i+1)
		}
		displayName := cfg.DisplayName
		if displayName == "" {
			displayName = instanceID
		}

		backend := models.BackendInstance{
			InstanceID:  instanceID,
			DisplayName: displayName,
			URL:         url,
			TaskAPI:     cfg.TaskAPI,
		}
		if err := ValidateBackend(backend); err != nil {
			return nil, fmt.Errorf("backend %d: %w", i+1, err)
		}
		backends = append(backends, backend)
	}

	return backends, nil
}

// ExportConfig writes backends to a YAML or JSON file. With maskURLs every
// URL is replaced by a ${ANIMEBRR_<ID>_URL} reference.
func ExportConfig(backends []models.BackendInstance, path string, maskURLs bool) error {
	format, err := fileFormat(path)
	if err != nil {
		return err
	}

	file := ConfigFile{Backends: make([]BackendConfig, 0, len(backends))}
	for _, backend := range backends {
		url := backend.URL
		if maskURLs {
			url = "${" + envName(backend.InstanceID) + "}"
		}
		file.Backends = append(file.Backends, BackendConfig{
			ID:          backend.InstanceID,
			URL:         url,
			DisplayName: backend.DisplayName,
			TaskAPI:     backend.TaskAPI,
		})
	}

	var data []byte
	if format == "yaml" {
		data, err = yaml.Marshal(file)
	} else {
		data, err = json.MarshalIndent(file, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to generate %s: %w", strings.ToUpper(format), err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func envName(instanceID string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, instanceID)
	return "ANIMEBRR_" + name + "_URL"
}
