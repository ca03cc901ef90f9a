// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"context"

	"github.com/bureau-foundation/termpanel/lib/tmux"
)

// Backend is the process side of a terminal session: the component that
// owns the pseudo-terminal and evicts idle sessions on its own timer.
// The engine only asks whether a session is still tracked and tells the
// backend when it can drop one.
type Backend interface {
	// IsSessionLive reports whether the backend still tracks the
	// session's process. An error means the answer is unknown.
	IsSessionLive(ctx context.Context, terminalID string) (bool, error)

	// ReleaseSession tells the backend to drop any handle for the
	// session. The engine calls it fire-and-forget after the session
	// is already gone locally.
	ReleaseSession(ctx context.Context, terminalID string) error
}

// NopBackend reports every session live and ignores releases. Used
// when no process backend is configured, so reconciliation never
// prunes anything.
type NopBackend struct{}

func (NopBackend) IsSessionLive(context.Context, string) (bool, error) { return true, nil }

func (NopBackend) ReleaseSession(context.Context, string) error { return nil }

// TmuxBackend maps each terminal to a session on a dedicated tmux
// server named by TmuxSessionName.
type TmuxBackend struct {
	server *tmux.Server
}

// NewTmuxBackend returns a backend driving server.
func NewTmuxBackend(server *tmux.Server) *TmuxBackend {
	return &TmuxBackend{server: server}
}

// TmuxSessionName returns the tmux session hosting terminalID.
func TmuxSessionName(terminalID string) string {
	return "termpanel-" + terminalID
}

// Spawn starts the tmux session for session in its working directory.
// The engine never calls this; the front end spawns after creating a
// terminal.
func (b *TmuxBackend) Spawn(ctx context.Context, session Session) error {
	return b.server.NewSession(ctx, TmuxSessionName(session.ID), session.Cwd)
}

func (b *TmuxBackend) IsSessionLive(ctx context.Context, terminalID string) (bool, error) {
	return b.server.HasSession(ctx, TmuxSessionName(terminalID))
}

func (b *TmuxBackend) ReleaseSession(ctx context.Context, terminalID string) error {
	return b.server.KillSession(ctx, TmuxSessionName(terminalID))
}
