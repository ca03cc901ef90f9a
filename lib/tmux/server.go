// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tmux drives a dedicated tmux server that hosts termpanel's
// terminal sessions. Every command carries the server's -S socket flag,
// so the user's personal tmux server is never touched.
package tmux

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Server is a tmux server identified by its Unix socket path.
type Server struct {
	socketPath string
	configFile string // "-f <path>" on new-session; empty = tmux default
}

// NewServer returns a Server for socketPath. Pass "/dev/null" as
// configFile to keep ~/.tmux.conf out of the panel's sessions.
func NewServer(socketPath, configFile string) *Server {
	return &Server{socketPath: socketPath, configFile: configFile}
}

// SocketPath returns the server's socket path.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// NewSession creates a detached session named sessionName whose first
// pane starts in directory (tmux's default when empty) and runs command
// (the default shell when empty). Starts the server if needed.
func (s *Server) NewSession(ctx context.Context, sessionName, directory string, command ...string) error {
	var args []string
	if s.configFile != "" {
		args = append(args, "-f", s.configFile)
	}
	args = append(args, "-S", s.socketPath, "new-session", "-d", "-s", sessionName)
	if directory != "" {
		args = append(args, "-c", directory)
	}
	args = append(args, command...)

	output, err := exec.CommandContext(ctx, "tmux", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("tmux new-session %q: %w (%s)",
			sessionName, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// HasSession reports whether sessionName exists. A missing session or a
// server that is not running yields (false, nil). An error means the
// question could not be answered (tmux missing, context cancelled), and
// callers must not read it as "session gone".
func (s *Server) HasSession(ctx context.Context, sessionName string) (bool, error) {
	output, err := exec.CommandContext(ctx, "tmux", "-S", s.socketPath,
		"has-session", "-t", sessionName).CombinedOutput()
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	var exitError *exec.ExitError
	if !errors.As(err, &exitError) {
		return false, fmt.Errorf("tmux has-session %q: %w", sessionName, err)
	}
	text := strings.TrimSpace(string(output))
	if isGone(text) {
		return false, nil
	}
	return false, fmt.Errorf("tmux has-session %q: %w (%s)",
		sessionName, err, text)
}

// KillSession terminates sessionName. A session or server that is
// already gone is not an error.
func (s *Server) KillSession(ctx context.Context, sessionName string) error {
	output, err := exec.CommandContext(ctx, "tmux", "-S", s.socketPath,
		"kill-session", "-t", sessionName).CombinedOutput()
	if err != nil {
		text := strings.TrimSpace(string(output))
		if isGone(text) {
			return nil
		}
		return fmt.Errorf("tmux kill-session %q: %w (%s)", sessionName, err, text)
	}
	return nil
}

// KillServer stops the server and every session on it.
func (s *Server) KillServer() error {
	output, err := exec.Command("tmux", "-S", s.socketPath, "kill-server").CombinedOutput()
	if err != nil {
		text := strings.TrimSpace(string(output))
		if isGone(text) {
			return nil
		}
		return fmt.Errorf("tmux kill-server: %w (%s)", err, text)
	}
	return nil
}

// isGone reports whether tmux output means the session or its server
// no longer exists. "server exited unexpectedly" comes from a socket
// that outlives its server for a moment.
func isGone(output string) bool {
	return strings.Contains(output, "can't find session") ||
		strings.Contains(output, "no server running") ||
		strings.Contains(output, "error connecting to") ||
		strings.Contains(output, "server exited unexpectedly")
}
