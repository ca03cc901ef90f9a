// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"context"
	"testing"
	"time"

	"github.com/bureau-foundation/termpanel/lib/tmux"
)

func TestNopBackend(t *testing.T) {
	var backend NopBackend
	live, err := backend.IsSessionLive(context.Background(), "anything")
	if err != nil || !live {
		t.Fatalf("IsSessionLive = %v, %v, want true, nil", live, err)
	}
	if err := backend.ReleaseSession(context.Background(), "anything"); err != nil {
		t.Fatalf("ReleaseSession = %v", err)
	}
}

func TestTmuxBackendLifecycle(t *testing.T) {
	server := tmux.NewTestServer(t)
	backend := NewTmuxBackend(server)
	ctx := context.Background()

	engine, fake := newTestEngine(t, Options{Backend: backend, DefaultCwd: t.TempDir()})
	kept := engine.CreateTerminal("")
	gone := engine.CreateTerminal("")

	for _, id := range []string{kept, gone} {
		session, _ := engine.Terminal(id)
		if err := backend.Spawn(ctx, session); err != nil {
			t.Fatalf("Spawn(%s): %v", id, err)
		}
	}
	if live, err := backend.IsSessionLive(ctx, kept); err != nil || !live {
		t.Fatalf("IsSessionLive(kept) = %v, %v, want true", live, err)
	}

	// The backend evicts one session on its own.
	if err := server.KillSession(ctx, TmuxSessionName(gone)); err != nil {
		t.Fatalf("KillSession: %v", err)
	}

	fake.Advance(time.Hour)
	report := engine.CleanupStaleTerminals(ctx)
	if len(report.Pruned) != 1 || report.Pruned[0] != gone {
		t.Fatalf("Pruned = %v, want [%s]", report.Pruned, gone)
	}
	if report.OracleErrors != 0 {
		t.Errorf("OracleErrors = %d, want 0", report.OracleErrors)
	}

	// Closing releases the tmux session.
	engine.CloseTerminal(kept)
	engine.WaitReleases()
	if live, err := backend.IsSessionLive(ctx, kept); err != nil || live {
		t.Fatalf("IsSessionLive after close = %v, %v, want false", live, err)
	}
}
