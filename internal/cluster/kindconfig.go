package cluster

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// PortMapping exposes a container port of the kind node on the host. The
// yaml tags cover the snake_case project config file; the json tags drive
// the camelCase kind config rendering.
type PortMapping struct {
	ContainerPort int32  `json:"containerPort" yaml:"container_port"`
	HostPort      int32  `json:"hostPort" yaml:"host_port"`
	Protocol      string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
}

type kindNode struct {
	Role              string        `json:"role"`
	ExtraPortMappings []PortMapping `json:"extraPortMappings,omitempty"`
}

type kindConfig struct {
	Kind       string     `json:"kind"`
	APIVersion string     `json:"apiVersion"`
	Nodes      []kindNode `json:"nodes"`
}

// renderKindConfig produces a kind cluster config with a single
// control-plane node carrying the given port mappings.
func renderKindConfig(mappings []PortMapping) ([]byte, error) {
	cfg := kindConfig{
		Kind:       "Cluster",
		APIVersion: "kind.x-k8s.io/v1alpha4",
		Nodes: []kindNode{
			{
				Role:              "control-plane",
				ExtraPortMappings: mappings,
			},
		},
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal kind config: %w", err)
	}
	return data, nil
}

// writeKindConfig renders the config to a temp file passed to
// `kind create cluster --config`. The caller removes the file via cleanup.
func writeKindConfig(mappings []PortMapping) (path string, cleanup func(), err error) {
	data, err := renderKindConfig(mappings)
	if err != nil {
		return "", nil, err
	}
	file, err := os.CreateTemp("", "kindenv-config-*.yaml")
	if err != nil {
		return "", nil, fmt.Errorf("create temp kind config: %w", err)
	}
	cleanup = func() { _ = os.Remove(file.Name()) }
	if _, err := file.Write(data); err != nil {
		file.Close()
		cleanup()
		return "", nil, fmt.Errorf("write kind config: %w", err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close kind config: %w", err)
	}
	return file.Name(), cleanup, nil
}
