package app

import (
	"errors"
	"fmt"
)

// LayerKind names the concrete layer implementations the CLI can assemble.
type LayerKind string

const (
	KindHCL  LayerKind = "hcl"
	KindYAML LayerKind = "yaml"
	KindTOML LayerKind = "toml"
	KindEnv  LayerKind = "env"
)

// LayerRef is one caller-requested layer: a kind plus its argument (a file
// path, or an environment prefix for KindEnv). Slice order is priority
// order.
type LayerRef struct {
	Kind  LayerKind
	Value string
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ManifestPath string // variable declaration .hcl files

	Layers    []LayerRef        // priority order, highest first
	Overrides map[string]string // -var name=value pairs
	Required  []string          // empty means every declared variable

	LogFormat string
	LogLevel  string
	Watch     bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is a required configuration field and cannot be empty")
	}

	for _, ref := range cfg.Layers {
		switch ref.Kind {
		case KindHCL, KindYAML, KindTOML, KindEnv:
		default:
			return nil, fmt.Errorf("unknown layer kind %q", ref.Kind)
		}
		if ref.Value == "" {
			return nil, fmt.Errorf("layer of kind %q has an empty argument", ref.Kind)
		}
	}

	return &cfg, nil
}
