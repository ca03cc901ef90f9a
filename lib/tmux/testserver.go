// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tmux

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/termpanel/lib/testutil"
)

// NewTestServer starts an isolated tmux server for a test and kills it
// on cleanup. The test is skipped when tmux is not installed. A _guard
// session keeps the server alive between the test's own sessions.
func NewTestServer(t *testing.T) *Server {
	t.Helper()

	if _, err := exec.LookPath("tmux"); err != nil {
		t.Skip("tmux not installed")
	}

	server := NewServer(filepath.Join(testutil.SocketDir(t), "tmux.sock"), "/dev/null")
	if err := server.NewSession(context.Background(), "_guard", "", "sleep", "infinity"); err != nil {
		t.Fatalf("start tmux test server: %v", err)
	}
	t.Cleanup(func() {
		server.KillServer()
	})
	return server
}
