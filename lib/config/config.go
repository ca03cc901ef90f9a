// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path from.
const EnvironmentVariable = "TERMPANEL_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the master configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Paths     PathsConfig     `yaml:"paths"`
	Panel     PanelConfig     `yaml:"panel"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Storage   StorageConfig   `yaml:"storage"`
	Backend   BackendConfig   `yaml:"backend"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides holds the per-environment override sections.
type ConfigOverrides struct {
	Paths     *PathsConfig     `yaml:"paths,omitempty"`
	Reconcile *ReconcileConfig `yaml:"reconcile,omitempty"`
	Storage   *StorageConfig   `yaml:"storage,omitempty"`
	Backend   *BackendConfig   `yaml:"backend,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for termpanel data.
	Root string `yaml:"root"`

	// State holds the persisted panel snapshot.
	State string `yaml:"state"`
}

// PanelConfig configures panel defaults.
type PanelConfig struct {
	// DefaultHeightPercent is the panel height for a fresh state.
	// Clamped by the engine to [10, 90].
	DefaultHeightPercent float64 `yaml:"default_height_percent"`

	// DefaultCwd is the working directory for terminals created without
	// one. Empty means the process's working directory.
	DefaultCwd string `yaml:"default_cwd"`
}

// ReconcileConfig configures the stale-session reconciler.
type ReconcileConfig struct {
	// FreshnessThreshold must match the backend's idle-eviction horizon.
	// Sessions younger than this are never pruned.
	FreshnessThreshold string `yaml:"freshness_threshold"`

	// Interval between periodic reconciliation passes.
	Interval string `yaml:"interval"`
}

// StorageConfig selects the snapshot store.
type StorageConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `yaml:"backend"`

	// Compression applies to the file backend: "none", "zstd", or "lz4".
	Compression string `yaml:"compression"`
}

// BackendConfig selects the terminal process backend.
type BackendConfig struct {
	// Kind is "none" (no liveness oracle) or "tmux".
	Kind string `yaml:"kind"`

	// TmuxSocket is the dedicated tmux server socket.
	TmuxSocket string `yaml:"tmux_socket"`

	// TmuxConfig is passed as -f when the server starts.
	TmuxConfig string `yaml:"tmux_config"`
}

// Default returns a Config with development defaults.
func Default() *Config {
	homeDirectory, _ := os.UserHomeDir()
	root := filepath.Join(homeDirectory, ".cache", "termpanel")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:  root,
			State: filepath.Join(root, "state"),
		},
		Panel: PanelConfig{
			DefaultHeightPercent: 40,
		},
		Reconcile: ReconcileConfig{
			FreshnessThreshold: "10m",
			Interval:           "1m",
		},
		Storage: StorageConfig{
			Backend:     "file",
			Compression: "none",
		},
		Backend: BackendConfig{
			Kind:       "none",
			TmuxSocket: filepath.Join(root, "tmux.sock"),
			TmuxConfig: "/dev/null",
		},
	}
}

// Load reads the file named by TERMPANEL_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your termpanel.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile reads the config at path over the defaults, applies the
// matching environment section, and expands path variables.
func LoadFile(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	config.applyEnvironmentOverrides()
	config.ExpandVariables()
	return config, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			// Production keeps snapshots compressed and asks tmux
			// which sessions are live.
			overrides = &ConfigOverrides{
				Storage: &StorageConfig{Compression: "zstd"},
				Backend: &BackendConfig{Kind: "tmux"},
			}
		}
	}
	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		override(&c.Paths.Root, overrides.Paths.Root)
		override(&c.Paths.State, overrides.Paths.State)
	}
	if overrides.Reconcile != nil {
		override(&c.Reconcile.FreshnessThreshold, overrides.Reconcile.FreshnessThreshold)
		override(&c.Reconcile.Interval, overrides.Reconcile.Interval)
	}
	if overrides.Storage != nil {
		override(&c.Storage.Backend, overrides.Storage.Backend)
		override(&c.Storage.Compression, overrides.Storage.Compression)
	}
	if overrides.Backend != nil {
		override(&c.Backend.Kind, overrides.Backend.Kind)
		override(&c.Backend.TmuxSocket, overrides.Backend.TmuxSocket)
		override(&c.Backend.TmuxConfig, overrides.Backend.TmuxConfig)
	}
}

func override(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// ExpandVariables expands ${VAR} and ${VAR:-default} in path fields.
// LoadFile calls it; callers using Default directly call it themselves.
func (c *Config) ExpandVariables() {
	vars := map[string]string{
		"TERMPANEL_ROOT": c.Paths.Root,
		"HOME":           os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["TERMPANEL_ROOT"] = c.Paths.Root

	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Panel.DefaultCwd = expandVars(c.Panel.DefaultCwd, vars)
	c.Backend.TmuxSocket = expandVars(c.Backend.TmuxSocket, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// FreshnessThreshold parses Reconcile.FreshnessThreshold.
func (c *Config) FreshnessThreshold() (time.Duration, error) {
	return parsePositiveDuration("reconcile.freshness_threshold", c.Reconcile.FreshnessThreshold)
}

// ReconcileInterval parses Reconcile.Interval.
func (c *Config) ReconcileInterval() (time.Duration, error) {
	return parsePositiveDuration("reconcile.interval", c.Reconcile.Interval)
}

func parsePositiveDuration(field, value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return duration, nil
}

// SnapshotPath returns the snapshot location for the configured
// storage backend.
func (c *Config) SnapshotPath() string {
	if c.Storage.Backend == "sqlite" {
		return filepath.Join(c.Paths.State, "panel.db")
	}
	return filepath.Join(c.Paths.State, "panel.cbor")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required"))
	}
	if c.Panel.DefaultHeightPercent < 10 || c.Panel.DefaultHeightPercent > 90 {
		errs = append(errs, fmt.Errorf("panel.default_height_percent must be within [10, 90], got %v",
			c.Panel.DefaultHeightPercent))
	}
	if _, err := c.FreshnessThreshold(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ReconcileInterval(); err != nil {
		errs = append(errs, err)
	}
	if !contains([]string{"file", "sqlite"}, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage.backend must be file or sqlite, got %q", c.Storage.Backend))
	}
	if !contains([]string{"", "none", "zstd", "lz4"}, c.Storage.Compression) {
		errs = append(errs, fmt.Errorf("storage.compression must be none, zstd, or lz4, got %q", c.Storage.Compression))
	}
	switch c.Backend.Kind {
	case "none":
	case "tmux":
		if c.Backend.TmuxSocket == "" {
			errs = append(errs, fmt.Errorf("backend.tmux_socket is required when backend.kind is tmux"))
		}
	default:
		errs = append(errs, fmt.Errorf("backend.kind must be none or tmux, got %q", c.Backend.Kind))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the state directory.
func (c *Config) EnsurePaths() error {
	if err := os.MkdirAll(c.Paths.State, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Paths.State, err)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
