// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the termpanel
// binary: a tree of [Command] values with pflag flag sets, structured
// help output, typo suggestions for unknown commands and flags, and
// the exit-code convention shared with main.
//
// Commands receive a context cancelled on SIGINT/SIGTERM and a logger
// from [NewCommandLogger]. Handlers that have already printed their
// own diagnostics return an [ExitError] to set the exit code without
// a second error line.
package cli
