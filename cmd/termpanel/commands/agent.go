// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/termpanel/cmd/termpanel/cli"
)

func (a *app) agentCommand() *cli.Command {
	var flags stateFlags
	var title, cwd string

	return &cli.Command{
		Name:    "agent",
		Summary: "Create or focus the terminal bound to an agent",
		Description: `Return the terminal bound to an agent, creating it on first use with
status "running". An existing binding is focused and becomes the whole
layout; --title and --cwd only apply on creation. Prints the terminal ID.`,
		Usage: "termpanel agent [flags] <agent-id>",
		Examples: []cli.Example{
			{Description: "Open the terminal for agent-7", Command: "termpanel agent --title 'Agent 7' agent-7"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("agent", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.StringVar(&title, "title", "", "title for a new terminal (default: Terminal N)")
			flagSet.StringVar(&cwd, "cwd", "", "working directory for a new terminal")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 || args[0] == "" {
				return fmt.Errorf("usage: termpanel agent [flags] <agent-id>")
			}
			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				before := len(state.engine.Terminals())
				id := state.engine.CreateOrFocusAgentTerminal(args[0], title, cwd)
				if len(state.engine.Terminals()) > before {
					if err := state.spawn(ctx, id); err != nil {
						return err
					}
				}
				fmt.Fprintln(a.stdout, id)
				return nil
			})
		},
	}
}

func (a *app) agentStatusCommand() *cli.Command {
	var flags stateFlags

	return &cli.Command{
		Name:    "agent-status",
		Summary: "Record an agent's status on its terminal",
		Description: `Set the status shown for an agent's terminal. The vocabulary is open;
running, idle, done, and error are conventional. Fails when no terminal
is bound to the agent.`,
		Usage: "termpanel agent-status [flags] <agent-id> <status>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("agent-status", pflag.ContinueOnError)
			flags.register(flagSet)
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: termpanel agent-status [flags] <agent-id> <status>")
			}
			return flags.withPanel(a.clock, logger, func(state *panelState) error {
				if !state.engine.UpdateAgentTerminalStatus(args[0], args[1]) {
					return fmt.Errorf("no terminal is bound to agent %q", args[0])
				}
				return nil
			})
		},
	}
}
