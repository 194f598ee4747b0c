package cli

// This file defines configuration for the CLI. Settings come from an
// optional .kindenv.yaml project file, overridden by KINDENV_ environment
// variables. Invalid values fall back to defaults.

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"kindenv/internal/cluster"
)

const (
	defaultVariant           = "default"
	defaultConditionTimeout  = 2 * time.Minute
	defaultNodesReadyTimeout = 5 * time.Minute
)

// CLIConfig holds environment-driven settings for the CLI.
type CLIConfig struct {
	// Variant is the middle segment of the derived cluster name,
	// distinguishing parallel environments of the same project.
	Variant string

	// ClusterName overrides name derivation entirely.
	ClusterName string

	// NodeImage pins the kind node image.
	NodeImage string

	// ConditionTimeout bounds each post-up readiness condition.
	ConditionTimeout time.Duration

	// NodesReadyTimeout bounds the node readiness wait.
	NodesReadyTimeout time.Duration

	// KeepOnFailure leaves a failed environment running for debugging.
	KeepOnFailure bool

	// ClickHouseDSN, when set, enables run reporting.
	ClickHouseDSN string

	// PortMappings exposes container ports on the host. Only settable via
	// the project file.
	PortMappings []cluster.PortMapping
}

// fileConfig is the schema of the optional .kindenv.yaml project file.
type fileConfig struct {
	Variant           string                `yaml:"variant"`
	ClusterName       string                `yaml:"cluster_name"`
	NodeImage         string                `yaml:"node_image"`
	ConditionTimeout  string                `yaml:"condition_timeout"`
	NodesReadyTimeout string                `yaml:"nodes_ready_timeout"`
	KeepOnFailure     bool                  `yaml:"keep_on_failure"`
	ClickHouseDSN     string                `yaml:"clickhouse_dsn"`
	PortMappings      []cluster.PortMapping `yaml:"port_mappings"`
}

// configFileName is looked up in the working directory.
const configFileName = ".kindenv.yaml"

// LoadCLIConfig reads configuration from the optional .kindenv.yaml file in
// the working directory, then applies KINDENV_* environment variables on
// top.
func LoadCLIConfig() CLIConfig {
	cfg := CLIConfig{
		Variant:           defaultVariant,
		ConditionTimeout:  defaultConditionTimeout,
		NodesReadyTimeout: defaultNodesReadyTimeout,
	}

	applyFileConfig(&cfg, configFileName)

	if v := os.Getenv("KINDENV_VARIANT"); v != "" {
		cfg.Variant = v
	}
	if v := os.Getenv("KINDENV_CLUSTER_NAME"); v != "" {
		cfg.ClusterName = v
	}
	if v := os.Getenv("KINDENV_NODE_IMAGE"); v != "" {
		cfg.NodeImage = v
	}
	if v := os.Getenv("KINDENV_CONDITION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ConditionTimeout = d
		}
	}
	if v := os.Getenv("KINDENV_NODES_READY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.NodesReadyTimeout = d
		}
	}
	if v := os.Getenv("KINDENV_KEEP_ON_FAILURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.KeepOnFailure = b
		}
	}
	if v := os.Getenv("KINDENV_CLICKHOUSE_DSN"); v != "" {
		cfg.ClickHouseDSN = v
	}

	return cfg
}

// applyFileConfig merges values from a .kindenv.yaml file into cfg. A
// missing or malformed file is ignored; env vars and defaults still apply.
func applyFileConfig(cfg *CLIConfig, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return
	}

	if fc.Variant != "" {
		cfg.Variant = fc.Variant
	}
	if fc.ClusterName != "" {
		cfg.ClusterName = fc.ClusterName
	}
	if fc.NodeImage != "" {
		cfg.NodeImage = fc.NodeImage
	}
	if fc.ConditionTimeout != "" {
		if d, err := time.ParseDuration(fc.ConditionTimeout); err == nil && d > 0 {
			cfg.ConditionTimeout = d
		}
	}
	if fc.NodesReadyTimeout != "" {
		if d, err := time.ParseDuration(fc.NodesReadyTimeout); err == nil && d > 0 {
			cfg.NodesReadyTimeout = d
		}
	}
	if fc.KeepOnFailure {
		cfg.KeepOnFailure = true
	}
	if fc.ClickHouseDSN != "" {
		cfg.ClickHouseDSN = fc.ClickHouseDSN
	}
	cfg.PortMappings = append(cfg.PortMappings, fc.PortMappings...)
}

// DefaultCLIConfig is the process-wide configuration used by command
// constructors. Tests may swap it out.
var DefaultCLIConfig = LoadCLIConfig()
