// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/termpanel/lib/clock"
	"github.com/bureau-foundation/termpanel/lib/config"
	"github.com/bureau-foundation/termpanel/lib/statefile"
	"github.com/bureau-foundation/termpanel/lib/tmux"
	"github.com/bureau-foundation/termpanel/panel"
)

// stateFlags are the flags shared by every command that opens the
// panel state.
type stateFlags struct {
	configPath string
}

func (f *stateFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "",
		"path to termpanel.yaml (default: $"+config.EnvironmentVariable+", else built-in defaults)")
}

// loadConfig resolves the configuration: --config, then the
// environment variable, then defaults.
func (f *stateFlags) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case f.configPath != "":
		cfg, err = config.LoadFile(f.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
		cfg.ExpandVariables()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// panelState is one invocation's view of the panel: the engine loaded
// from the configured store, plus the tmux backend when configured.
type panelState struct {
	config *config.Config
	engine *panel.Engine
	tmux   *panel.TmuxBackend
	logger *slog.Logger

	closeStore func() error
}

// openPanel loads the configured state. A corrupt snapshot is logged
// and replaced by an empty state on the next save.
func (f *stateFlags) openPanel(clk clock.Clock, logger *slog.Logger) (*panelState, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	freshness, err := cfg.FreshnessThreshold()
	if err != nil {
		return nil, err
	}

	state := &panelState{config: cfg, logger: logger}

	var store panel.Store
	switch cfg.Storage.Backend {
	case "sqlite":
		sqliteStore, err := panel.OpenSQLiteStore(cfg.SnapshotPath(), logger)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
		state.closeStore = sqliteStore.Close
	default:
		compression, err := statefile.ParseCompression(cfg.Storage.Compression)
		if err != nil {
			return nil, err
		}
		store = panel.NewFileStore(cfg.SnapshotPath(), compression)
	}

	var backend panel.Backend
	if cfg.Backend.Kind == "tmux" {
		state.tmux = panel.NewTmuxBackend(tmux.NewServer(cfg.Backend.TmuxSocket, cfg.Backend.TmuxConfig))
		backend = state.tmux
	}

	state.engine = panel.New(panel.Options{
		Backend:              backend,
		Store:                store,
		Clock:                clk,
		Logger:               logger,
		FreshnessThreshold:   freshness,
		DefaultCwd:           cfg.Panel.DefaultCwd,
		DefaultHeightPercent: cfg.Panel.DefaultHeightPercent,
	})

	report, err := state.engine.Load()
	switch {
	case errors.Is(err, panel.ErrCorruptSnapshot):
		logger.Warn("ignoring corrupt panel state", "path", cfg.SnapshotPath(), "error", err)
	case err != nil:
		state.Close()
		return nil, err
	case report.Repairs() > 0:
		logger.Info("panel state repaired on load", "repairs", report.Repairs())
	}
	return state, nil
}

// Close waits for pending backend releases and closes the store.
func (s *panelState) Close() error {
	s.engine.WaitReleases()
	if s.closeStore != nil {
		return s.closeStore()
	}
	return nil
}

// spawn starts the backend process for a newly created terminal. A
// no-op without a process backend.
func (s *panelState) spawn(ctx context.Context, terminalID string) error {
	if s.tmux == nil {
		return nil
	}
	session, ok := s.engine.Terminal(terminalID)
	if !ok {
		return fmt.Errorf("terminal %s vanished before spawn", terminalID)
	}
	if err := s.tmux.Spawn(ctx, session); err != nil {
		return fmt.Errorf("spawning tmux session for %s: %w", terminalID, err)
	}
	s.logger.Debug("tmux session spawned", "terminal_id", terminalID, "session", panel.TmuxSessionName(terminalID))
	return nil
}

// withPanel opens the state, runs action, and closes the state,
// joining any close error with the action's.
func (f *stateFlags) withPanel(clk clock.Clock, logger *slog.Logger, action func(*panelState) error) (err error) {
	state, err := f.openPanel(clk, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, state.Close())
	}()
	return action(state)
}
