// Package config provides configuration types, defaults, and persistence for
// protopack. The configuration names the external tools the pipeline drives
// per target and stage; the core never hardcodes a toolchain.
package config

import (
	"fmt"
	"time"

	"github.com/epochlab/protopack/internal/manifest"
	"github.com/epochlab/protopack/internal/stage"
	"github.com/epochlab/protopack/internal/tools"
)

// Registry names accepted by the publish command.
const (
	RegistryTest       = "test"
	RegistryProduction = "production"
)

// StageConfig describes one external tool invocation and the artifacts it is
// expected to leave behind. Artifacts participate in cache checks: a marker
// whose artifacts vanished is not trusted.
type StageConfig struct {
	Command   []string `mapstructure:"command"`
	Artifacts []string `mapstructure:"artifacts"`
}

// TargetConfig holds one target's per-stage tool configuration.
type TargetConfig struct {
	Stages map[string]StageConfig `mapstructure:"stages"`

	// Credentials lists environment variables the publish stage requires.
	// Contents are opaque; only presence is checked.
	Credentials []string `mapstructure:"credentials"`

	// PublishArgs are extra arguments appended to the publish command per
	// registry name (test, production).
	PublishArgs map[string][]string `mapstructure:"publish_args"`
}

// ManifestConfig registers one per-ecosystem manifest file.
type ManifestConfig struct {
	Path string `mapstructure:"path"`
	Kind string `mapstructure:"kind"`
}

// Config holds all configuration options for protopack.
type Config struct {
	SchemaDir     string                  `mapstructure:"schema_dir"`
	MarkerDir     string                  `mapstructure:"marker_dir"`
	Targets       map[string]TargetConfig `mapstructure:"targets"`
	Manifests     []ManifestConfig        `mapstructure:"manifests"`
	WatchDebounce time.Duration           `mapstructure:"watch_debounce"`
}

// Stage returns the configuration for one (target, stage), or an error when
// the stage has no tool configured.
func (c Config) Stage(s stage.Stage) (StageConfig, error) {
	tc, ok := c.Targets[string(s.Target)]
	if !ok {
		return StageConfig{}, fmt.Errorf("target %s not configured", s.Target)
	}
	sc, ok := tc.Stages[string(s.Name)]
	if !ok || len(sc.Command) == 0 {
		return StageConfig{}, fmt.Errorf("stage %s has no command configured", s)
	}
	return sc, nil
}

// Invocation builds the external command for a stage. For publish stages the
// registry's extra arguments are appended.
func (c Config) Invocation(s stage.Stage, registry string) (tools.Invocation, error) {
	sc, err := c.Stage(s)
	if err != nil {
		return tools.Invocation{}, err
	}

	args := append([]string{}, sc.Command[1:]...)
	if s.Name == stage.Publish && registry != "" {
		args = append(args, c.Targets[string(s.Target)].PublishArgs[registry]...)
	}
	return tools.Invocation{Name: sc.Command[0], Args: args}, nil
}

// ToolNames returns the distinct programs a target's configured stages invoke,
// used by prerequisite checks.
func (c Config) ToolNames(t stage.Target) []string {
	tc, ok := c.Targets[string(t)]
	if !ok {
		return nil
	}

	var names []string
	for _, n := range stage.Names() {
		if sc, ok := tc.Stages[string(n)]; ok && len(sc.Command) > 0 {
			names = append(names, sc.Command[0])
		}
	}
	return names
}

// ManifestList converts the configured manifests into synchronizer inputs.
func (c Config) ManifestList() ([]manifest.Manifest, error) {
	out := make([]manifest.Manifest, 0, len(c.Manifests))
	for _, m := range c.Manifests {
		kind, err := manifest.ParseKind(m.Kind)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", m.Path, err)
		}
		out = append(out, manifest.Manifest{Path: m.Path, Kind: kind})
	}
	return out, nil
}

// Validate checks the configuration for unknown targets, stages, manifest
// kinds, and registry names.
func (c Config) Validate() error {
	if c.SchemaDir == "" {
		return fmt.Errorf("schema_dir must be set")
	}
	if c.MarkerDir == "" {
		return fmt.Errorf("marker_dir must be set")
	}

	for name, tc := range c.Targets {
		if _, err := stage.ParseTarget(name); err != nil {
			return err
		}
		for sn := range tc.Stages {
			if _, err := stage.ParseName(sn); err != nil {
				return fmt.Errorf("target %s: %w", name, err)
			}
		}
		for registry := range tc.PublishArgs {
			if registry != RegistryTest && registry != RegistryProduction {
				return fmt.Errorf("target %s: unknown registry %q in publish_args", name, registry)
			}
		}
	}

	if _, err := c.ManifestList(); err != nil {
		return err
	}
	return nil
}
