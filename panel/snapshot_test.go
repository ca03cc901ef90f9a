// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/termpanel/lib/statefile"
)

func shell(id string) Session {
	return Session{ID: id, Title: id, Cwd: "/tmp", CreatedAt: epoch, Kind: KindShell}
}

func agent(id, agentID string) Session {
	return Session{ID: id, Title: id, Cwd: "/tmp", CreatedAt: epoch, Kind: KindAgent, AgentID: agentID, AgentStatus: AgentRunning}
}

func leafNode(id string) *Node {
	return &Node{Kind: LeafNode, ID: "leaf-" + id, TerminalID: id}
}

func testSplitNode(direction Direction, sizes []float64, children ...*Node) *Node {
	return &Node{Kind: SplitNode, ID: newNodeID(), Direction: direction, Children: children, Sizes: sizes}
}

func buildLayout(t *testing.T, engine *Engine) map[string]string {
	t.Helper()
	t1 := engine.CreateTerminal("/srv/a")
	t2, _ := engine.SplitTerminal(t1, Vertical)
	t3, _ := engine.SplitTerminal(t1, Horizontal)
	engine.CreateOrFocusAgentTerminal("agent-1", "Agent 1", "/srv/b")
	engine.SetActiveTerminal(t1)
	t4, _ := engine.SplitTerminal(t1, Vertical)
	t5, _ := engine.SplitTerminal(t4, Horizontal)
	if !engine.UpdatePaneSizes(engine.Root().ID, []float64{30, 70}) {
		t.Fatal("UpdatePaneSizes rejected")
	}
	engine.SetPanelHeight(65)
	return map[string]string{t1: "T1", t2: "T2", t3: "T3", t4: "T4", t5: "T5"}
}

func TestRestoreValidSnapshotIsExact(t *testing.T) {
	source, _ := newTestEngine(t, Options{})
	names := buildLayout(t, source)
	snapshot := source.Snapshot()

	target, _ := newTestEngine(t, Options{})
	report := target.Restore(snapshot)
	if report.Repairs() != 0 {
		t.Fatalf("valid snapshot needed %d repairs: %+v", report.Repairs(), report)
	}

	if got, want := describe(target.Root(), names), describe(source.Root(), names); got != want {
		t.Fatalf("tree = %s, want %s", got, want)
	}
	if target.Root().ID != source.Root().ID {
		t.Error("root ID changed on restore")
	}
	if target.ActiveTerminalID() != source.ActiveTerminalID() {
		t.Errorf("active = %s, want %s", target.ActiveTerminalID(), source.ActiveTerminalID())
	}
	if got := target.Panel(); got.HeightPercent != 65 || got.Mode != ModeClosed {
		t.Errorf("panel = %+v, want closed at 65", got)
	}
	if got, want := len(target.Terminals()), len(source.Terminals()); got != want {
		t.Errorf("restored %d terminals, want %d", got, want)
	}
	checkInvariants(t, target)
}

// resizedThreeWay builds a three-pane split and applies count random
// resizes to it, calling check after each.
func resizedThreeWay(t *testing.T, engine *Engine, count int, check func(sizes []float64)) {
	t.Helper()
	first := engine.CreateTerminal("")
	second, _ := engine.SplitTerminal(first, Vertical)
	engine.SplitTerminal(second, Vertical)

	random := rand.New(rand.NewPCG(11, 13))
	for range count {
		sizes := []float64{random.Float64() * 100, random.Float64() * 100, random.Float64() * 100}
		if !engine.UpdatePaneSizes(engine.Root().ID, sizes) {
			t.Fatalf("UpdatePaneSizes(%v) rejected", sizes)
		}
		check(engine.Root().Sizes)
	}
}

func TestRestoreKeepsResizedSizesExactly(t *testing.T) {
	source, _ := newTestEngine(t, Options{})
	resizedThreeWay(t, source, 200, func(want []float64) {
		target, _ := newTestEngine(t, Options{})
		if report := target.Restore(source.Snapshot()); report.Repairs() != 0 {
			t.Fatalf("sizes %v needed repairs: %+v", want, report)
		}
		got := target.Root().Sizes
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("restored sizes = %v, want %v", got, want)
			}
		}
	})
}

func TestFileStoreKeepsResizedSizesExactly(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "panel.cbor"), statefile.CompressionNone)
	source, _ := newTestEngine(t, Options{Store: store})
	resizedThreeWay(t, source, 50, func(want []float64) {
		target, _ := newTestEngine(t, Options{Store: store})
		if _, err := target.Load(); err != nil {
			t.Fatalf("Load: %v", err)
		}
		got := target.Root().Sizes
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("loaded sizes = %v, want %v", got, want)
			}
		}
	})
}

func TestRestorePrunesUnknownLeaves(t *testing.T) {
	engine, _ := newTestEngine(t, Options{})
	report := engine.Restore(&Snapshot{
		HeightPercent:    40,
		Terminals:        []Session{shell("a"), shell("b")},
		ActiveTerminalID: "ghost",
		Root: testSplitNode(Vertical, []float64{50, 50},
			leafNode("a"),
			testSplitNode(Horizontal, []float64{50, 50}, leafNode("ghost"), leafNode("b")),
		),
	})

	if report.DroppedPanes != 1 {
		t.Errorf("DroppedPanes = %d, want 1", report.DroppedPanes)
	}
	if got, want := describe(engine.Root(), nil), "split(vertical,[leaf(a),leaf(b)],[50,50])"; got != want {
		t.Fatalf("tree = %s, want %s", got, want)
	}
	if engine.ActiveTerminalID() != "a" {
		t.Errorf("active = %q, want a", engine.ActiveTerminalID())
	}
	checkInvariants(t, engine)
}

func TestRestoreRepairsSessions(t *testing.T) {
	engine, _ := newTestEngine(t, Options{})
	orphanAgent := agent("c", "")
	strange := shell("d")
	strange.Kind = "tab"
	report := engine.Restore(&Snapshot{
		Terminals: []Session{
			shell("a"),
			shell("a"),
			{Title: "no id"},
			agent("b", "agent-1"),
			agent("b2", "agent-1"),
			orphanAgent,
			strange,
		},
		Root: leafNode("a"),
	})

	if report.DroppedSessions != 3 {
		t.Errorf("DroppedSessions = %d, want 3", report.DroppedSessions)
	}
	sessions := engine.Terminals()
	var ids []string
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}
	if got, want := fmt.Sprint(ids), "[a b c d]"; got != want {
		t.Fatalf("sessions = %s, want %s", got, want)
	}
	if c, _ := engine.Terminal("c"); c.Kind != KindShell || c.AgentStatus != "" {
		t.Errorf("agent without id restored as %+v, want shell", c)
	}
	if d, _ := engine.Terminal("d"); d.Kind != KindShell {
		t.Errorf("unknown kind restored as %q, want shell", d.Kind)
	}
	if b, _ := engine.Terminal("b"); b.Kind != KindAgent || b.AgentID != "agent-1" {
		t.Errorf("agent restored as %+v", b)
	}
	checkInvariants(t, engine)
}

func TestRestoreRepairsSplits(t *testing.T) {
	tests := []struct {
		name string
		root *Node
		want string
	}{
		{
			name: "single child collapses",
			root: testSplitNode(Vertical, []float64{100}, leafNode("a")),
			want: "leaf(a)",
		},
		{
			name: "size count mismatch evens out",
			root: testSplitNode(Vertical, []float64{100}, leafNode("a"), leafNode("b")),
			want: "split(vertical,[leaf(a),leaf(b)],[50,50])",
		},
		{
			name: "bad sizes renormalize",
			root: testSplitNode(Horizontal, []float64{1, 3}, leafNode("a"), leafNode("b")),
			want: "split(horizontal,[leaf(a),leaf(b)],[25,75])",
		},
		{
			name: "NaN sizes even out",
			root: testSplitNode(Horizontal, []float64{math.NaN(), 3}, leafNode("a"), leafNode("b")),
			want: "split(horizontal,[leaf(a),leaf(b)],[50,50])",
		},
		{
			name: "invalid direction",
			root: testSplitNode("diagonal", []float64{50, 50}, leafNode("a"), leafNode("b")),
			want: "split(vertical,[leaf(a),leaf(b)],[50,50])",
		},
		{
			name: "duplicate leaf",
			root: testSplitNode(Vertical, []float64{40, 30, 30}, leafNode("a"), leafNode("b"), leafNode("a")),
			want: "split(vertical,[leaf(a),leaf(b)],[57.143,42.857])",
		},
		{
			name: "nil and unknown children",
			root: testSplitNode(Vertical, []float64{50, 25, 25}, leafNode("a"), nil, &Node{Kind: "tab", ID: "x"}),
			want: "leaf(a)",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			engine, _ := newTestEngine(t, Options{})
			report := engine.Restore(&Snapshot{
				Terminals: []Session{shell("a"), shell("b")},
				Root:      test.root,
			})
			if report.Repairs() == 0 {
				t.Error("no repairs reported")
			}
			if got := describe(engine.Root(), nil); got != test.want {
				t.Fatalf("tree = %s, want %s", got, test.want)
			}
			checkInvariants(t, engine)
		})
	}
}

func TestRestoreAssignsMissingNodeIDs(t *testing.T) {
	engine, _ := newTestEngine(t, Options{})
	root := &Node{
		Kind:      SplitNode,
		Direction: Vertical,
		Children:  []*Node{{Kind: LeafNode, TerminalID: "a"}, {Kind: LeafNode, TerminalID: "b"}},
		Sizes:     []float64{50, 50},
	}
	report := engine.Restore(&Snapshot{Terminals: []Session{shell("a"), shell("b")}, Root: root})

	if report.RepairedNodes != 3 {
		t.Errorf("RepairedNodes = %d, want 3", report.RepairedNodes)
	}
	Walk(engine.Root(), func(node *Node, _ int) bool {
		if node.ID == "" {
			t.Errorf("node %+v has no ID", node)
		}
		return true
	})
	if root.ID != "" {
		t.Error("Restore mutated the snapshot's tree")
	}
}

func TestRestoreMissingTreeShowsNewestSession(t *testing.T) {
	engine, _ := newTestEngine(t, Options{})
	engine.Restore(&Snapshot{
		Terminals:        []Session{shell("a"), shell("b")},
		ActiveTerminalID: "ghost",
		Root:             leafNode("ghost"),
	})

	if got := describe(engine.Root(), nil); got != "leaf(b)" {
		t.Fatalf("tree = %s, want leaf(b)", got)
	}
	if engine.ActiveTerminalID() != "b" {
		t.Errorf("active = %q, want b", engine.ActiveTerminalID())
	}
	checkInvariants(t, engine)
}

func TestRestoreLeavesWithoutSessionsAreDropped(t *testing.T) {
	engine, _ := newTestEngine(t, Options{})
	engine.Restore(&Snapshot{
		Root: testSplitNode(Vertical, []float64{50, 50}, leafNode("a"), leafNode("b")),
	})
	if engine.Root() != nil {
		t.Fatalf("tree = %s, want nil with no sessions", describe(engine.Root(), nil))
	}
	checkInvariants(t, engine)
}

func TestRestoreBoundsDepth(t *testing.T) {
	var sessions []Session
	var root *Node
	for i := 40; i >= 0; i-- {
		id := fmt.Sprintf("s%d", i)
		sessions = append(sessions, shell(id))
		if root == nil {
			root = leafNode(id)
			continue
		}
		root = testSplitNode(Vertical, []float64{50, 50}, leafNode(id), root)
	}

	engine, _ := newTestEngine(t, Options{})
	report := engine.Restore(&Snapshot{Terminals: sessions, Root: root})
	if report.DroppedPanes == 0 {
		t.Error("no panes dropped from an over-deep tree")
	}
	maxDepth := 0
	Walk(engine.Root(), func(_ *Node, depth int) bool {
		maxDepth = max(maxDepth, depth)
		return true
	})
	if maxDepth > maxRestoreDepth {
		t.Errorf("restored depth %d exceeds %d", maxDepth, maxRestoreDepth)
	}
	checkInvariants(t, engine)
}

func TestRestoreHeight(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, DefaultHeightPercent},
		{math.NaN(), DefaultHeightPercent},
		{150, MaxHeightPercent},
		{2, MinHeightPercent},
		{33, 33},
	}
	for _, test := range tests {
		engine, _ := newTestEngine(t, Options{})
		engine.Restore(&Snapshot{HeightPercent: test.in})
		if got := engine.Panel().HeightPercent; got != test.want {
			t.Errorf("restored height %v = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestRestoreNilResets(t *testing.T) {
	engine, _ := newTestEngine(t, Options{})
	engine.CreateTerminal("")

	report := engine.Restore(nil)
	if report.Repairs() != 0 {
		t.Errorf("Restore(nil) reported %d repairs", report.Repairs())
	}
	if len(engine.Terminals()) != 0 || engine.Root() != nil {
		t.Fatal("Restore(nil) kept state")
	}
	checkInvariants(t, engine)
}

func TestRestoreKeepsClearedFocus(t *testing.T) {
	source, _ := newTestEngine(t, Options{})
	buildLayout(t, source)
	source.SetActiveTerminal("")

	target, _ := newTestEngine(t, Options{})
	target.Restore(source.Snapshot())
	if active := target.ActiveTerminalID(); active != "" {
		t.Fatalf("active = %s, want none", active)
	}
	checkInvariants(t, target)
}
