// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/termpanel/cmd/termpanel/cli"
	"github.com/bureau-foundation/termpanel/panel"
)

func (a *app) cleanupCommand() *cli.Command {
	var flags stateFlags
	var watch bool
	var interval time.Duration

	return &cli.Command{
		Name:    "cleanup",
		Summary: "Prune terminals the backend has reclaimed",
		Description: `Ask the backend which terminals are still live and prune the ones that
are neither live nor younger than reconcile.freshness_threshold. A
failed liveness check never counts as dead.

With --watch, repeat every reconcile.interval (or --interval) until
interrupted. Each pass reloads the saved state, so other termpanel
invocations in the meantime are not overwritten.`,
		Usage: "termpanel cleanup [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cleanup", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&watch, "watch", false, "keep running, one pass per interval")
			flagSet.DurationVar(&interval, "interval", 0, "pass interval for --watch (default: reconcile.interval)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: termpanel cleanup [flags]")
			}
			if !watch {
				report, err := a.cleanupPass(ctx, &flags, logger)
				if err != nil {
					return err
				}
				a.printCleanupReport(report)
				return nil
			}

			if interval <= 0 {
				cfg, err := flags.loadConfig()
				if err != nil {
					return err
				}
				if interval, err = cfg.ReconcileInterval(); err != nil {
					return err
				}
			}
			err := a.watchCleanup(ctx, &flags, interval, logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// cleanupPass loads the state, reconciles it once, and saves.
func (a *app) cleanupPass(ctx context.Context, flags *stateFlags, logger *slog.Logger) (panel.CleanupReport, error) {
	var report panel.CleanupReport
	err := flags.withPanel(a.clock, logger, func(state *panelState) error {
		report = state.engine.CleanupStaleTerminals(ctx)
		return nil
	})
	return report, err
}

// watchCleanup runs a pass per tick until ctx ends. A failed pass is
// logged and retried on the next tick.
func (a *app) watchCleanup(ctx context.Context, flags *stateFlags, interval time.Duration, logger *slog.Logger) error {
	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("reconciler started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("reconciler stopped")
			return ctx.Err()
		case <-ticker.C:
			report, err := a.cleanupPass(ctx, flags, logger)
			if err != nil {
				logger.Error("cleanup pass failed", "error", err)
				continue
			}
			if len(report.Pruned) > 0 || report.OracleErrors > 0 {
				a.printCleanupReport(report)
			}
		}
	}
}

func (a *app) printCleanupReport(report panel.CleanupReport) {
	fmt.Fprintf(a.stdout, "checked %d, pruned %d", report.Checked, len(report.Pruned))
	if report.OracleErrors > 0 {
		fmt.Fprintf(a.stdout, ", %d liveness checks failed", report.OracleErrors)
	}
	fmt.Fprintln(a.stdout)
	for _, id := range report.Pruned {
		fmt.Fprintf(a.stdout, "  %s\n", id)
	}
}
