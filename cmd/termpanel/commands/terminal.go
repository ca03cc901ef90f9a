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

func (a *app) newCommand() *cli.Command {
	var flags stateFlags
	var cwd string

	return &cli.Command{
		Name:    "new",
		Summary: "Create a terminal and make it the whole layout",
		Description: `Create a shell terminal, replace the layout with a single pane for it,
focus it, and open the panel. Prints the new terminal's ID.`,
		Usage: "termpanel new [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("new", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.StringVar(&cwd, "cwd", "", "working directory (default: panel.default_cwd, else the current directory)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: termpanel new [flags]")
			}
			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				id := state.engine.CreateTerminal(cwd)
				if err := state.spawn(ctx, id); err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, id)
				return nil
			})
		},
	}
}

func (a *app) splitCommand() *cli.Command {
	var flags stateFlags
	var direction string

	return &cli.Command{
		Name:    "split",
		Summary: "Split a terminal's pane",
		Description: `Split the pane showing a terminal and start a new shell beside it, in
the same working directory. Splitting along the parent's direction adds
a sibling; splitting across it nests a new split. The terminal defaults
to the active one.`,
		Usage: "termpanel split [flags] [terminal]",
		Examples: []cli.Example{
			{Description: "Split the active terminal side by side", Command: "termpanel split -d vertical"},
			{Description: "Split a terminal by title", Command: "termpanel split -d horizontal 'Terminal 2'"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("split", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.StringVarP(&direction, "direction", "d", string(panel.Vertical), "split direction: horizontal or vertical")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return fmt.Errorf("usage: termpanel split [flags] [terminal]")
			}
			splitDirection := panel.Direction(direction)
			if !splitDirection.Valid() {
				return fmt.Errorf("invalid direction %q (want horizontal or vertical)", direction)
			}
			reference := "."
			if len(args) == 1 {
				reference = args[0]
			}

			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				target, err := resolveTerminal(state.engine, reference, false)
				if err != nil {
					return err
				}
				id, ok := state.engine.SplitTerminal(target.ID, splitDirection)
				if !ok {
					return fmt.Errorf("terminal %q is not in the current layout (focus it first)", target.Title)
				}
				if err := state.spawn(ctx, id); err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, id)
				return nil
			})
		},
	}
}

func (a *app) closeCommand() *cli.Command {
	var flags stateFlags

	return &cli.Command{
		Name:    "close",
		Summary: "Close a terminal",
		Description: `Remove a terminal and its pane. The surrounding split collapses when
one pane is left. Closing the last terminal closes the panel. The
backend session is released.`,
		Usage: "termpanel close [flags] <terminal>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("close", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: termpanel close [flags] <terminal>")
			}
			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				target, err := resolveTerminal(state.engine, args[0], false)
				if err != nil {
					return err
				}
				state.engine.CloseTerminal(target.ID)
				return nil
			})
		},
	}
}

func (a *app) focusCommand() *cli.Command {
	var flags stateFlags
	var clearFocus bool

	return &cli.Command{
		Name:    "focus",
		Summary: "Focus a terminal by ID or fuzzy title",
		Description: `Make a terminal active. A terminal already in the layout keeps the
layout; any other terminal replaces the layout with a single pane.
Anything that is not an ID or exact title is fuzzy-matched against
titles. Exits 1 when nothing matches.`,
		Usage: "termpanel focus [flags] <terminal|query>",
		Examples: []cli.Example{
			{Description: "Focus the terminal whose title best matches 'bld'", Command: "termpanel focus bld"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("focus", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&clearFocus, "clear", false, "clear the focus instead")
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if clearFocus {
				if len(args) != 0 {
					return fmt.Errorf("--clear takes no terminal")
				}
				return flags.withPanel(a.clock, logger, func(state *panelState) error {
					state.engine.SetActiveTerminal("")
					return nil
				})
			}
			if len(args) == 0 {
				return fmt.Errorf("usage: termpanel focus [flags] <terminal|query>")
			}

			query := strings.Join(args, " ")
			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				target, err := resolveTerminal(state.engine, query, true)
				if err != nil {
					fmt.Fprintln(a.stderr, err)
					return &cli.ExitError{Code: 1}
				}
				state.engine.SetActiveTerminal(target.ID)
				fmt.Fprintln(a.stdout, target.ID)
				return nil
			})
		},
	}
}

func (a *app) resizeCommand() *cli.Command {
	var flags stateFlags

	return &cli.Command{
		Name:    "resize",
		Summary: "Set the sizes of a split",
		Description: `Replace the sizes of a split, one per child. Sizes are relative and
are rescaled to sum to 100. Split IDs are shown by "termpanel show".`,
		Usage: "termpanel resize [flags] <split-id> <size>...",
		Examples: []cli.Example{
			{Description: "Give the first of two panes 70%", Command: "termpanel resize 3f2a 70 30"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("resize", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 3 {
				return fmt.Errorf("usage: termpanel resize [flags] <split-id> <size>...")
			}
			sizes := make([]float64, 0, len(args)-1)
			for _, arg := range args[1:] {
				size, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid size %q: %w", arg, err)
				}
				sizes = append(sizes, size)
			}

			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				splitID, err := resolveSplit(state.engine.Root(), args[0])
				if err != nil {
					return err
				}
				if !state.engine.UpdatePaneSizes(splitID, sizes) {
					split := panel.FindSplit(state.engine.Root(), splitID)
					return fmt.Errorf("split %s has %d panes; sizes must be one non-negative number per pane, not all zero",
						splitID, len(split.Children))
				}
				return nil
			})
		},
	}
}

// resolveSplit accepts a full split ID or a unique prefix of one.
func resolveSplit(root *panel.Node, reference string) (string, error) {
	var matches []string
	panel.Walk(root, func(node *panel.Node, _ int) bool {
		if node.IsLeaf() {
			return true
		}
		if node.ID == reference {
			matches = []string{node.ID}
			return false
		}
		if len(reference) >= minIDPrefix && strings.HasPrefix(node.ID, reference) {
			matches = append(matches, node.ID)
		}
		return true
	})
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no split matches %q", reference)
	default:
		return "", fmt.Errorf("split prefix %q is ambiguous (%d matches)", reference, len(matches))
	}
}

func (a *app) titleCommand() *cli.Command {
	var flags stateFlags

	return &cli.Command{
		Name:    "title",
		Summary: "Rename a terminal",
		Usage:   "termpanel title [flags] <terminal> <title>...",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("title", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: termpanel title [flags] <terminal> <title>...")
			}
			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				target, err := resolveTerminal(state.engine, args[0], false)
				if err != nil {
					return err
				}
				state.engine.UpdateTerminalTitle(target.ID, strings.Join(args[1:], " "))
				return nil
			})
		},
	}
}
