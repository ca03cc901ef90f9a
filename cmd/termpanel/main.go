// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// termpanel is the command-line front end to the panel engine. Each
// invocation loads the saved panel state, applies one operation, and
// saves it again.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/termpanel/cmd/termpanel/cli"
	"github.com/bureau-foundation/termpanel/cmd/termpanel/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output return an ExitError
		// with the desired exit code. Don't print a redundant
		// "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelWarn
	if os.Getenv("TERMPANEL_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return commands.Root().Execute(ctx, os.Args[1:], cli.NewCommandLogger(level))
}
