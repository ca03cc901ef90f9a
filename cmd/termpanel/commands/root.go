// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the termpanel command tree. Every command
// that touches state loads the saved snapshot, applies one engine
// operation, and saves before exiting.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/termpanel/cmd/termpanel/cli"
	"github.com/bureau-foundation/termpanel/lib/clock"
	"github.com/bureau-foundation/termpanel/lib/version"
)

// app carries what commands write to and read time from.
type app struct {
	stdout io.Writer
	stderr io.Writer
	clock  clock.Clock
}

// Root builds the complete termpanel command tree writing to the
// process's stdout and stderr.
func Root() *cli.Command {
	return newRoot(&app{stdout: os.Stdout, stderr: os.Stderr, clock: clock.Real()})
}

func newRoot(a *app) *cli.Command {
	subcommands := []*cli.Command{
		a.newCommand(),
		a.splitCommand(),
		a.closeCommand(),
		a.focusCommand(),
		a.resizeCommand(),
		a.titleCommand(),
	}
	subcommands = append(subcommands, a.visibilityCommands()...)
	subcommands = append(subcommands,
		a.agentCommand(),
		a.agentStatusCommand(),
		a.cleanupCommand(),
		a.showCommand(),
		a.listCommand(),
		&cli.Command{
			Name:    "version",
			Summary: "Print version information",
			Run: func(context.Context, []string, *slog.Logger) error {
				fmt.Fprintf(a.stdout, "termpanel %s\n", version.Info())
				return nil
			},
		},
	)

	return &cli.Command{
		Name: "termpanel",
		Description: `termpanel: multi-terminal panel state.

Tracks shell and agent terminals, arranges them in a tiling split
layout, and manages the panel's visibility. State is saved after
every command to the location in the config file.`,
		Output:      a.stderr,
		Subcommands: subcommands,
	}
}
