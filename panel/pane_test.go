// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

// describe renders a tree compactly, e.g.
// "split(vertical,[leaf(a),leaf(b)],[50,50])". Terminal IDs are mapped
// through names when present.
func describe(root *Node, names map[string]string) string {
	if root == nil {
		return "nil"
	}
	if root.IsLeaf() {
		name, ok := names[root.TerminalID]
		if !ok {
			name = root.TerminalID
		}
		return "leaf(" + name + ")"
	}
	children := make([]string, len(root.Children))
	for i, child := range root.Children {
		children[i] = describe(child, names)
	}
	sizes := make([]string, len(root.Sizes))
	for i, size := range root.Sizes {
		sizes[i] = fmt.Sprintf("%g", math.Round(size*1000)/1000)
	}
	return fmt.Sprintf("split(%s,[%s],[%s])", root.Direction, strings.Join(children, ","), strings.Join(sizes, ","))
}

func mustSplit(t *testing.T, root *Node, target, newID string, direction Direction) *Node {
	t.Helper()
	tree, leaf, ok := SplitPane(root, target, newID, direction)
	if !ok {
		t.Fatalf("SplitPane(%s, %s, %s) failed", target, newID, direction)
	}
	if leaf == nil || leaf.TerminalID != newID {
		t.Fatalf("SplitPane returned leaf %+v, want leaf for %s", leaf, newID)
	}
	if err := Validate(tree); err != nil {
		t.Fatalf("tree invalid after SplitPane: %v", err)
	}
	return tree
}

func TestSplitPaneRootLeaf(t *testing.T) {
	root := InsertAsRoot("a")
	tree := mustSplit(t, root, "a", "b", Vertical)

	if got, want := describe(tree, nil), "split(vertical,[leaf(a),leaf(b)],[50,50])"; got != want {
		t.Fatalf("tree = %s, want %s", got, want)
	}
	if tree.Children[0] != root {
		t.Error("original leaf was not reused")
	}
}

func TestSplitPaneSameDirectionFlattens(t *testing.T) {
	tree := mustSplit(t, InsertAsRoot("a"), "a", "b", Vertical)
	rootID := tree.ID
	tree = mustSplit(t, tree, "a", "c", Vertical)

	if got, want := describe(tree, nil), "split(vertical,[leaf(a),leaf(c),leaf(b)],[25,25,50])"; got != want {
		t.Fatalf("tree = %s, want %s", got, want)
	}
	if tree.ID != rootID {
		t.Errorf("root split ID = %s, want %s", tree.ID, rootID)
	}
}

func TestSplitPaneCrossDirectionNests(t *testing.T) {
	tree := mustSplit(t, InsertAsRoot("a"), "a", "b", Vertical)
	tree, _ = UpdateSizes(tree, tree.ID, []float64{70, 30})
	tree = mustSplit(t, tree, "b", "c", Horizontal)

	want := "split(vertical,[leaf(a),split(horizontal,[leaf(b),leaf(c)],[50,50])],[70,30])"
	if got := describe(tree, nil); got != want {
		t.Fatalf("tree = %s, want %s", got, want)
	}
}

func TestSplitPaneDoesNotMutateInput(t *testing.T) {
	before := mustSplit(t, InsertAsRoot("a"), "a", "b", Vertical)
	snapshot := describe(before, nil)

	mustSplit(t, before, "a", "c", Vertical)
	mustSplit(t, before, "b", "d", Horizontal)

	if got := describe(before, nil); got != snapshot {
		t.Fatalf("input tree changed to %s, want %s", got, snapshot)
	}
}

func TestSplitPaneMissingTarget(t *testing.T) {
	if tree, leaf, ok := SplitPane(nil, "a", "b", Vertical); ok || tree != nil || leaf != nil {
		t.Errorf("SplitPane on empty tree = (%v, %v, %v), want (nil, nil, false)", tree, leaf, ok)
	}

	root := InsertAsRoot("a")
	tree, leaf, ok := SplitPane(root, "missing", "b", Vertical)
	if ok || tree != root || leaf != nil {
		t.Errorf("SplitPane with missing target = (%v, %v, %v), want unchanged root and false", tree, leaf, ok)
	}

	if _, _, ok := SplitPane(root, "a", "b", Direction("diagonal")); ok {
		t.Error("SplitPane accepted an invalid direction")
	}
}

func TestRemovePaneCollapsesNestedSplit(t *testing.T) {
	two := mustSplit(t, InsertAsRoot("a"), "a", "b", Vertical)
	three := mustSplit(t, two, "a", "c", Horizontal)

	after := RemovePane(three, "c")
	if got, want := describe(after, nil), describe(two, nil); got != want {
		t.Fatalf("tree = %s, want %s", got, want)
	}
	if after.ID != two.ID {
		t.Errorf("root split ID = %s, want %s", after.ID, two.ID)
	}
	if after.Children[0] != two.Children[0] {
		t.Error("collapsed split was not replaced by its surviving leaf")
	}
}

func TestRemovePaneRenormalizesSurvivors(t *testing.T) {
	tree := mustSplit(t, InsertAsRoot("a"), "a", "b", Vertical)
	tree = mustSplit(t, tree, "b", "c", Vertical)
	// sizes are now [50, 25, 25]
	tree = RemovePane(tree, "a")

	if got, want := describe(tree, nil), "split(vertical,[leaf(b),leaf(c)],[50,50])"; got != want {
		t.Fatalf("tree = %s, want %s", got, want)
	}

	tree, _ = UpdateSizes(tree, tree.ID, []float64{1, 3})
	tree = mustSplit(t, tree, "c", "d", Vertical)
	// [25, 37.5, 37.5]
	tree = RemovePane(tree, "d")
	if got, want := describe(tree, nil), "split(vertical,[leaf(b),leaf(c)],[40,60])"; got != want {
		t.Fatalf("tree = %s, want %s", got, want)
	}
}

func TestRemovePaneLastLeaf(t *testing.T) {
	if got := RemovePane(InsertAsRoot("a"), "a"); got != nil {
		t.Fatalf("RemovePane of only leaf = %s, want nil", describe(got, nil))
	}
	if got := RemovePane(nil, "a"); got != nil {
		t.Fatalf("RemovePane(nil) = %s, want nil", describe(got, nil))
	}
}

func TestRemovePaneAbsentTerminalReturnsSameTree(t *testing.T) {
	tree := mustSplit(t, InsertAsRoot("a"), "a", "b", Vertical)
	if got := RemovePane(tree, "missing"); got != tree {
		t.Fatal("RemovePane of absent terminal rebuilt the tree")
	}
}

func TestUpdateSizes(t *testing.T) {
	tree := mustSplit(t, InsertAsRoot("a"), "a", "b", Vertical)
	tree = mustSplit(t, tree, "b", "c", Horizontal)
	inner := tree.Children[1]

	updated, ok := UpdateSizes(tree, inner.ID, []float64{30, 10})
	if !ok {
		t.Fatal("UpdateSizes rejected a valid update")
	}
	want := "split(vertical,[leaf(a),split(horizontal,[leaf(b),leaf(c)],[75,25])],[50,50])"
	if got := describe(updated, nil); got != want {
		t.Fatalf("tree = %s, want %s", got, want)
	}
	if FindSplit(updated, inner.ID) == nil {
		t.Error("split lost its ID after UpdateSizes")
	}
}

func TestUpdateSizesRejectsMalformed(t *testing.T) {
	tree := mustSplit(t, InsertAsRoot("a"), "a", "b", Vertical)

	tests := []struct {
		name    string
		splitID string
		sizes   []float64
	}{
		{"length mismatch", tree.ID, []float64{100}},
		{"too many", tree.ID, []float64{30, 30, 40}},
		{"negative", tree.ID, []float64{-10, 110}},
		{"NaN", tree.ID, []float64{math.NaN(), 50}},
		{"infinite", tree.ID, []float64{math.Inf(1), 50}},
		{"all zero", tree.ID, []float64{0, 0}},
		{"unknown split", "missing", []float64{50, 50}},
		{"leaf id", tree.Children[0].ID, []float64{50, 50}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := UpdateSizes(tree, test.splitID, test.sizes)
			if ok {
				t.Fatalf("UpdateSizes(%v) accepted", test.sizes)
			}
			if got != tree {
				t.Fatal("rejected UpdateSizes changed the tree")
			}
		})
	}
}

func TestLookups(t *testing.T) {
	tree := mustSplit(t, InsertAsRoot("a"), "a", "b", Vertical)
	tree = mustSplit(t, tree, "a", "c", Horizontal)

	if leaf := FindLeafForTerminal(tree, "c"); leaf == nil || leaf.TerminalID != "c" {
		t.Errorf("FindLeafForTerminal(c) = %v", leaf)
	}
	if leaf := FindLeafForTerminal(tree, "missing"); leaf != nil {
		t.Errorf("FindLeafForTerminal(missing) = %v, want nil", leaf)
	}
	if got := FindAnyTerminalID(tree); got != "a" {
		t.Errorf("FindAnyTerminalID = %q, want a", got)
	}
	if got := FindAnyTerminalID(nil); got != "" {
		t.Errorf("FindAnyTerminalID(nil) = %q, want empty", got)
	}
	if got, want := strings.Join(TerminalIDs(tree), ","), "a,c,b"; got != want {
		t.Errorf("TerminalIDs = %s, want %s", got, want)
	}
}

func TestWalkDepthAndStop(t *testing.T) {
	tree := mustSplit(t, InsertAsRoot("a"), "a", "b", Vertical)
	tree = mustSplit(t, tree, "a", "c", Horizontal)

	var depths []int
	Walk(tree, func(node *Node, depth int) bool {
		depths = append(depths, depth)
		return true
	})
	if got, want := fmt.Sprint(depths), "[0 1 2 2 1]"; got != want {
		t.Errorf("depths = %s, want %s", got, want)
	}

	visited := 0
	Walk(tree, func(*Node, int) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Errorf("visited %d nodes after stopping, want 2", visited)
	}
}

func TestValidateRejectsBrokenTrees(t *testing.T) {
	leaf := func(id string) *Node { return &Node{Kind: LeafNode, ID: "n-" + id, TerminalID: id} }

	tests := []struct {
		name string
		root *Node
	}{
		{"single child", &Node{Kind: SplitNode, ID: "s", Direction: Vertical, Children: []*Node{leaf("a")}, Sizes: []float64{100}}},
		{"size count", &Node{Kind: SplitNode, ID: "s", Direction: Vertical, Children: []*Node{leaf("a"), leaf("b")}, Sizes: []float64{100}}},
		{"size sum", &Node{Kind: SplitNode, ID: "s", Direction: Vertical, Children: []*Node{leaf("a"), leaf("b")}, Sizes: []float64{50, 40}}},
		{"direction", &Node{Kind: SplitNode, ID: "s", Direction: "up", Children: []*Node{leaf("a"), leaf("b")}, Sizes: []float64{50, 50}}},
		{"duplicate terminal", &Node{Kind: SplitNode, ID: "s", Direction: Vertical, Children: []*Node{leaf("a"), leaf("a")}, Sizes: []float64{50, 50}}},
		{"empty leaf", &Node{Kind: LeafNode, ID: "l"}},
		{"unknown kind", &Node{Kind: "tab", ID: "x"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := Validate(test.root); err == nil {
				t.Fatal("Validate accepted a broken tree")
			}
		})
	}

	if err := Validate(nil); err != nil {
		t.Errorf("Validate(nil) = %v, want nil", err)
	}
}

func TestNormalizeSizes(t *testing.T) {
	tests := []struct {
		in   []float64
		want string
	}{
		{[]float64{1, 1}, "[50 50]"},
		{[]float64{1, 3}, "[25 75]"},
		{[]float64{0, 0, 0}, "[33.333 33.333 33.333]"},
		{[]float64{-1, 2}, "[50 50]"},
		{[]float64{math.NaN(), 2}, "[50 50]"},
	}
	for _, test := range tests {
		got := normalizeSizes(test.in)
		rounded := make([]float64, len(got))
		for i, size := range got {
			rounded[i] = math.Round(size*1000) / 1000
		}
		if fmt.Sprint(rounded) != test.want {
			t.Errorf("normalizeSizes(%v) = %v, want %s", test.in, rounded, test.want)
		}
	}
}
