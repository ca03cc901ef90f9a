// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"fmt"
	"math"
	"slices"
)

// maxRestoreDepth bounds the depth of a restored layout tree. Real
// layouts are a handful of levels deep.
const maxRestoreDepth = 32

// Snapshot is the persisted subset of engine state. The panel mode is
// not persisted; a restored engine starts closed.
type Snapshot struct {
	HeightPercent    float64   `json:"height_percent"`
	Terminals        []Session `json:"terminals"`
	ActiveTerminalID string    `json:"active_terminal_id,omitempty"`
	Root             *Node     `json:"root_pane,omitempty"`
}

// RestoreReport counts the repairs Restore made to a snapshot.
type RestoreReport struct {
	// DroppedSessions are sessions with an empty or duplicate ID, or
	// a duplicate agent binding.
	DroppedSessions int

	// DroppedPanes are leaves naming unknown or repeated terminals, and
	// nodes that were nil, of unknown kind, or nested too deep.
	DroppedPanes int

	// RepairedNodes are splits whose sizes, direction, or collapse had
	// to be fixed, and nodes given a fresh ID.
	RepairedNodes int
}

// Repairs returns the total number of repairs.
func (r RestoreReport) Repairs() int {
	return r.DroppedSessions + r.DroppedPanes + r.RepairedNodes
}

// Snapshot captures the persisted subset of the current state. The
// returned tree is shared with the engine; nodes are immutable.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() *Snapshot {
	return &Snapshot{
		HeightPercent:    e.panel.HeightPercent,
		Terminals:        e.registry.Sessions(),
		ActiveTerminalID: e.activeTerminalID,
		Root:             e.root,
	}
}

// Restore replaces the engine state with snapshot after checking it
// against every invariant. Nothing stored is trusted: repairs are
// counted in the report and logged, and the result always satisfies
// the engine invariants. A nil snapshot resets to an empty state. The
// panel is closed afterwards.
func (e *Engine) Restore(snapshot *Snapshot) RestoreReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.restoreLocked(snapshot)
}

func (e *Engine) restoreLocked(snapshot *Snapshot) RestoreReport {
	var report RestoreReport
	if snapshot == nil {
		snapshot = &Snapshot{}
	}

	e.registry = Registry{}
	seenIDs := make(map[string]bool)
	seenAgents := make(map[string]bool)
	for _, session := range snapshot.Terminals {
		if session.ID == "" || seenIDs[session.ID] {
			report.DroppedSessions++
			continue
		}
		switch session.Kind {
		case KindAgent:
			if session.AgentID == "" {
				session.Kind, session.AgentStatus = KindShell, ""
				break
			}
			if seenAgents[session.AgentID] {
				report.DroppedSessions++
				continue
			}
			seenAgents[session.AgentID] = true
		default:
			session.Kind, session.AgentID, session.AgentStatus = KindShell, "", ""
		}
		seenIDs[session.ID] = true
		e.registry.Add(session)
	}

	shown := make(map[string]bool)
	e.root = sanitizeNode(snapshot.Root, 0, seenIDs, shown, &report)

	if e.registry.Len() == 0 {
		e.root = nil
	} else if e.root == nil {
		last, _ := e.registry.Last()
		e.root = InsertAsRoot(last.ID)
	}

	e.activeTerminalID = snapshot.ActiveTerminalID
	if e.activeTerminalID != "" && FindLeafForTerminal(e.root, e.activeTerminalID) == nil {
		e.activeTerminalID = FindAnyTerminalID(e.root)
	}

	height := snapshot.HeightPercent
	if height == 0 || math.IsNaN(height) {
		height = e.defaultHeight
	}
	e.panel = PanelState{Mode: ModeClosed, HeightPercent: ClampHeight(height)}

	if report.Repairs() > 0 {
		e.logger.Warn("restored snapshot needed repairs",
			"dropped_sessions", report.DroppedSessions,
			"dropped_panes", report.DroppedPanes,
			"repaired_nodes", report.RepairedNodes,
		)
	}
	e.logger.Debug("snapshot restored",
		"terminals", e.registry.Len(),
		"panes", len(TerminalIDs(e.root)),
	)
	return report
}

// sanitizeNode rebuilds a stored subtree into a valid one. Leaves must
// name a known terminal not already shown elsewhere. Splits keep their
// valid children, get a direction and sizes summing to 100, and collapse when
// fewer than two children remain. The input is never mutated.
func sanitizeNode(node *Node, depth int, known, shown map[string]bool, report *RestoreReport) *Node {
	if node == nil {
		return nil
	}
	if depth > maxRestoreDepth {
		report.DroppedPanes++
		return nil
	}

	id := node.ID
	if id == "" {
		id = newNodeID()
		report.RepairedNodes++
	}

	switch node.Kind {
	case LeafNode:
		if !known[node.TerminalID] || shown[node.TerminalID] {
			report.DroppedPanes++
			return nil
		}
		shown[node.TerminalID] = true
		return &Node{Kind: LeafNode, ID: id, TerminalID: node.TerminalID}

	case SplitNode:
		direction := node.Direction
		if !direction.Valid() {
			direction = Vertical
			report.RepairedNodes++
		}
		sizesUsable := len(node.Sizes) == len(node.Children)

		var children []*Node
		var sizes []float64
		for i, child := range node.Children {
			if child == nil {
				report.DroppedPanes++
				continue
			}
			survivor := sanitizeNode(child, depth+1, known, shown, report)
			if survivor == nil {
				continue
			}
			children = append(children, survivor)
			if sizesUsable {
				sizes = append(sizes, node.Sizes[i])
			} else {
				sizes = append(sizes, 1)
			}
		}
		if !sizesUsable {
			report.RepairedNodes++
		}

		// Intact splits keep their stored sizes bit for bit.
		if sizesUsable && len(children) >= 2 && len(children) == len(node.Children) && storedSizesValid(node.Sizes) {
			return &Node{Kind: SplitNode, ID: id, Direction: direction, Children: children, Sizes: slices.Clone(node.Sizes)}
		}

		if len(children) == 1 {
			report.RepairedNodes++
		}
		rebuilt := collapse(&Node{Kind: SplitNode, ID: id, Direction: direction}, children, sizes)
		if rebuilt != nil && !rebuilt.IsLeaf() && rebuilt.ID == id && !sizesMatch(rebuilt.Sizes, node.Sizes) {
			report.RepairedNodes++
		}
		return rebuilt

	default:
		report.DroppedPanes++
		return nil
	}
}

// storedSizesValid reports whether sizes are finite, non-negative and
// sum to 100 within sizeTolerance.
func storedSizesValid(sizes []float64) bool {
	total := 0.0
	for _, size := range sizes {
		if size < 0 || math.IsNaN(size) || math.IsInf(size, 0) {
			return false
		}
		total += size
	}
	return math.Abs(total-100) <= sizeTolerance
}

func sizesMatch(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !(math.Abs(a[i]-b[i]) <= sizeTolerance) {
			return false
		}
	}
	return true
}

// Save writes the current snapshot to the configured store. It is a
// no-op without a store.
func (e *Engine) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(e.snapshotLocked()); err != nil {
		return fmt.Errorf("saving panel snapshot: %w", err)
	}
	return nil
}

// Load restores state from the configured store. An empty store leaves
// the engine empty. A repaired snapshot is written back so the store
// holds the valid state.
func (e *Engine) Load() (RestoreReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return RestoreReport{}, nil
	}

	snapshot, err := e.store.Load()
	if err != nil {
		return RestoreReport{}, fmt.Errorf("loading panel snapshot: %w", err)
	}
	report := e.restoreLocked(snapshot)
	if report.Repairs() > 0 {
		e.persistLocked()
	}
	return report, nil
}

// persistLocked saves after a state change. Failures are logged: the
// in-memory transaction has already happened.
func (e *Engine) persistLocked() {
	if e.store == nil {
		return
	}
	if err := e.store.Save(e.snapshotLocked()); err != nil {
		e.logger.Warn("persisting panel snapshot failed", "error", err)
	}
}
