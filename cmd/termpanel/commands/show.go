// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/termpanel/cmd/termpanel/cli"
	"github.com/bureau-foundation/termpanel/panel"
)

// showOutput is the --json form of "show".
type showOutput struct {
	Mode             panel.Mode      `json:"mode"`
	HeightPercent    float64         `json:"height_percent"`
	ActiveTerminalID string          `json:"active_terminal_id,omitempty"`
	Root             *panel.Node     `json:"root_pane,omitempty"`
	Terminals        []panel.Session `json:"terminals"`
}

func (a *app) showCommand() *cli.Command {
	var flags stateFlags
	var outputJSON, noColor bool

	return &cli.Command{
		Name:    "show",
		Summary: "Show the panel state and layout tree",
		Description: `Print the panel mode and height, the layout tree with split IDs and
sizes, and the terminals not in the layout. The active terminal is
marked with *.`,
		Usage: "termpanel show [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			flagSet.BoolVar(&noColor, "no-color", false, "disable colors")
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: termpanel show [flags]")
			}
			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				if outputJSON {
					visibility := state.engine.Panel()
					return cli.WriteJSON(a.stdout, showOutput{
						Mode:             visibility.Mode,
						HeightPercent:    visibility.HeightPercent,
						ActiveTerminalID: state.engine.ActiveTerminalID(),
						Root:             state.engine.Root(),
						Terminals:        state.engine.Terminals(),
					})
				}
				newLayoutRenderer(a.stdout, a.useColor(noColor)).render(a.stdout, state.engine)
				return nil
			})
		},
	}
}

// useColor reports whether styled output should be colored: stdout is
// a terminal and neither --no-color nor NO_COLOR is set.
func (a *app) useColor(noColor bool) bool {
	if noColor || termenv.EnvNoColor() {
		return false
	}
	file, ok := a.stdout.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func (a *app) listCommand() *cli.Command {
	var flags stateFlags
	var outputJSON bool

	return &cli.Command{
		Name:    "list",
		Summary: "List terminals",
		Description: `List every terminal in creation order with its kind, agent status, age,
and working directory. The active terminal is marked with *.`,
		Usage: "termpanel list [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: termpanel list [flags]")
			}
			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				sessions := state.engine.Terminals()
				if outputJSON {
					return cli.WriteJSON(a.stdout, sessions)
				}

				active := state.engine.ActiveTerminalID()
				now := a.clock.Now()
				tw := tabwriter.NewWriter(a.stdout, 2, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "\tID\tTITLE\tKIND\tSTATUS\tCREATED\tCWD")
				for _, session := range sessions {
					marker := ""
					if session.ID == active {
						marker = "*"
					}
					status := "-"
					if session.Kind == panel.KindAgent {
						status = session.AgentStatus
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						marker, shortID(session.ID), session.Title, session.Kind, status,
						humanize.RelTime(session.CreatedAt, now, "ago", "from now"), session.Cwd)
				}
				return tw.Flush()
			})
		},
	}
}
