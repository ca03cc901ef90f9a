// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/termpanel/cmd/termpanel/cli"
	"github.com/bureau-foundation/termpanel/panel"
)

// modeCommand builds a command that applies one visibility transition
// and prints the resulting mode. A terminal the transition creates
// (toggle on an empty state) is spawned like one from "new".
func (a *app) modeCommand(name, summary, description string, apply func(*panel.Engine)) *cli.Command {
	var flags stateFlags

	return &cli.Command{
		Name:        name,
		Summary:     summary,
		Description: description,
		Usage:       "termpanel " + name + " [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: termpanel %s [flags]", name)
			}
			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				before := len(state.engine.Terminals())
				apply(state.engine)
				if sessions := state.engine.Terminals(); len(sessions) > before {
					if err := state.spawn(ctx, sessions[len(sessions)-1].ID); err != nil {
						return err
					}
				}
				fmt.Fprintln(a.stdout, state.engine.Panel().Mode)
				return nil
			})
		},
	}
}

func (a *app) visibilityCommands() []*cli.Command {
	return []*cli.Command{
		a.modeCommand("toggle", "Open or minimize the panel",
			`Open a closed or minimized panel; minimize an open one. Opening a
closed panel with no terminals creates one first.`,
			(*panel.Engine).TogglePanel),
		a.modeCommand("minimize", "Minimize the panel",
			"Collapse the panel to its minimized bar.",
			(*panel.Engine).MinimizePanel),
		a.modeCommand("maximize", "Toggle between full and docked",
			"Switch a full panel back to docked, and anything else to full.",
			(*panel.Engine).MaximizePanel),
		a.modeCommand("hide", "Close the panel, keeping terminals",
			"Close the panel. Terminals and the layout are kept.",
			(*panel.Engine).ClosePanel),
		a.heightCommand(),
	}
}

func (a *app) heightCommand() *cli.Command {
	var flags stateFlags

	return &cli.Command{
		Name:    "height",
		Summary: "Set the docked panel height",
		Description: fmt.Sprintf(`Set the docked panel height as a percentage of the window, clamped to
[%d, %d]. A trailing %% is accepted. Prints the resulting height.`, panel.MinHeightPercent, panel.MaxHeightPercent),
		Usage: "termpanel height [flags] <percent>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("height", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: termpanel height [flags] <percent>")
			}
			height, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64)
			if err != nil {
				return fmt.Errorf("invalid height %q: %w", args[0], err)
			}
			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				state.engine.SetPanelHeight(height)
				fmt.Fprintf(a.stdout, "%g\n", state.engine.Panel().HeightPercent)
				return nil
			})
		},
	}
}
