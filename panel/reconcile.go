// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"context"
	"time"
)

// CleanupReport summarizes one reconciliation pass.
type CleanupReport struct {
	// Checked is the number of sessions examined.
	Checked int

	// Pruned lists the removed terminal IDs in registry order.
	Pruned []string

	// OracleErrors counts liveness queries that failed. Those sessions
	// were judged by age alone.
	OracleErrors int
}

// CleanupStaleTerminals prunes sessions the backend has probably
// reclaimed. A session survives if the backend reports it live or if
// it is younger than the freshness threshold. A failed liveness query
// is never read as "dead": that session survives unless it is also
// past the threshold.
//
// Liveness queries run without the engine lock, so UI operations are
// not blocked on the backend. The verdicts are then applied in one
// transaction to the sessions that still exist. Pruned sessions leave
// the tree through the same removal as CloseTerminal, and the backend
// is told to release them fire-and-forget. If ctx ends mid-pass, the
// unexamined sessions are kept.
func (e *Engine) CleanupStaleTerminals(ctx context.Context) CleanupReport {
	e.mu.Lock()
	candidates := e.registry.Sessions()
	now := e.clock.Now()
	e.mu.Unlock()

	var report CleanupReport
	var stale []string
	for _, session := range candidates {
		if ctx.Err() != nil {
			break
		}
		report.Checked++

		live, err := e.backend.IsSessionLive(ctx, session.ID)
		if err != nil {
			report.OracleErrors++
			e.logger.Warn("liveness check failed, judging by age",
				"terminal_id", session.ID,
				"error", err,
			)
			live = false
		}
		if live || now.Sub(session.CreatedAt) < e.freshness {
			continue
		}
		stale = append(stale, session.ID)
	}

	if len(stale) == 0 {
		return report
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range stale {
		if e.removeSessionLocked(id) {
			report.Pruned = append(report.Pruned, id)
		}
	}
	if len(report.Pruned) == 0 {
		return report
	}
	e.repairAfterRemovalLocked()

	e.logger.Info("stale terminals pruned",
		"pruned", len(report.Pruned),
		"checked", report.Checked,
		"remaining", e.registry.Len(),
	)
	e.persistLocked()
	return report
}

// RunReconciler runs CleanupStaleTerminals every interval until ctx is
// cancelled, then returns ctx.Err().
func (e *Engine) RunReconciler(ctx context.Context, interval time.Duration) error {
	ticker := e.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.CleanupStaleTerminals(ctx)
		}
	}
}
