// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// NodeKind discriminates the two variants of Node.
type NodeKind string

const (
	LeafNode  NodeKind = "leaf"
	SplitNode NodeKind = "split"
)

// Direction is the axis along which a split arranges its children.
type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// Valid reports whether d is one of the two split directions.
func (d Direction) Valid() bool {
	return d == Horizontal || d == Vertical
}

// sizeTolerance bounds the floating-point drift allowed in a split's
// size total.
const sizeTolerance = 1e-6

// Node is one node of the pane layout tree: a leaf showing a single
// terminal, or a split dividing its extent among two or more children.
//
// Nodes are immutable once built. Every tree operation in this file
// returns a new tree that shares untouched subtrees with its input, so
// a *Node handed out by the engine stays valid and unchanging while
// later operations run.
type Node struct {
	Kind NodeKind `json:"kind"`
	ID   string   `json:"id"`

	// TerminalID is the session shown by a leaf. Empty for splits.
	TerminalID string `json:"terminal_id,omitempty"`

	// Direction, Children, and Sizes describe a split. Sizes are
	// percentages of the split's extent, one per child, summing to 100.
	Direction Direction `json:"direction,omitempty"`
	Children  []*Node   `json:"children,omitempty"`
	Sizes     []float64 `json:"sizes,omitempty"`
}

// IsLeaf reports whether n is a leaf.
func (n *Node) IsLeaf() bool { return n.Kind == LeafNode }

func newNodeID() string { return uuid.NewString() }

func newLeaf(terminalID string) *Node {
	return &Node{Kind: LeafNode, ID: newNodeID(), TerminalID: terminalID}
}

func newSplit(direction Direction, children []*Node, sizes []float64) *Node {
	return &Node{
		Kind:      SplitNode,
		ID:        newNodeID(),
		Direction: direction,
		Children:  children,
		Sizes:     sizes,
	}
}

// withChildren returns a copy of split n carrying the given children
// and sizes. The copy keeps n's ID so callers holding a split ID (for a
// later UpdateSizes) still find it.
func (n *Node) withChildren(children []*Node, sizes []float64) *Node {
	return &Node{
		Kind:      SplitNode,
		ID:        n.ID,
		Direction: n.Direction,
		Children:  children,
		Sizes:     sizes,
	}
}

// InsertAsRoot returns a tree consisting of a single leaf for
// terminalID.
func InsertAsRoot(terminalID string) *Node {
	return newLeaf(terminalID)
}

// SplitPane splits the leaf showing targetTerminalID and places a new
// leaf for newTerminalID beside it. ok is false, and root is returned
// unchanged, when the tree is empty or has no such leaf.
//
// When the target's parent split already runs in direction, the new
// leaf joins that split right after the target and the two share the
// target's former size. Otherwise the target is replaced in place by a
// nested 50/50 split, leaving the parent's other children and sizes
// alone. A root leaf becomes a 50/50 split.
func SplitPane(root *Node, targetTerminalID, newTerminalID string, direction Direction) (tree, leaf *Node, ok bool) {
	if root == nil || !direction.Valid() {
		return root, nil, false
	}
	leaf = newLeaf(newTerminalID)
	tree, ok = splitNode(root, targetTerminalID, leaf, direction)
	if !ok {
		return root, nil, false
	}
	return tree, leaf, true
}

func splitNode(node *Node, target string, leaf *Node, direction Direction) (*Node, bool) {
	if node.IsLeaf() {
		if node.TerminalID != target {
			return node, false
		}
		return newSplit(direction, []*Node{node, leaf}, []float64{50, 50}), true
	}

	for i, child := range node.Children {
		if child.IsLeaf() && child.TerminalID == target && node.Direction == direction {
			children := make([]*Node, 0, len(node.Children)+1)
			children = append(children, node.Children[:i+1]...)
			children = append(children, leaf)
			children = append(children, node.Children[i+1:]...)

			half := node.Sizes[i] / 2
			sizes := make([]float64, 0, len(node.Sizes)+1)
			sizes = append(sizes, node.Sizes[:i]...)
			sizes = append(sizes, half, half)
			sizes = append(sizes, node.Sizes[i+1:]...)

			return node.withChildren(children, sizes), true
		}

		replaced, found := splitNode(child, target, leaf, direction)
		if found {
			children := append([]*Node(nil), node.Children...)
			children[i] = replaced
			return node.withChildren(children, append([]float64(nil), node.Sizes...)), true
		}
	}
	return node, false
}

// RemovePane removes every leaf showing terminalID. Splits left with a
// single child are replaced by that child and splits left with none
// disappear, so the result is nil when the tree held only that
// terminal. Surviving siblings keep their relative sizes, rescaled to
// sum to 100.
func RemovePane(root *Node, terminalID string) *Node {
	return removeWhere(root, func(leaf *Node) bool {
		return leaf.TerminalID == terminalID
	})
}

// removeWhere drops every leaf for which drop returns true.
func removeWhere(node *Node, drop func(leaf *Node) bool) *Node {
	if node == nil {
		return nil
	}
	if node.IsLeaf() {
		if drop(node) {
			return nil
		}
		return node
	}

	changed := false
	children := make([]*Node, 0, len(node.Children))
	sizes := make([]float64, 0, len(node.Sizes))
	for i, child := range node.Children {
		survivor := removeWhere(child, drop)
		if survivor != child {
			changed = true
		}
		if survivor != nil {
			children = append(children, survivor)
			sizes = append(sizes, node.Sizes[i])
		}
	}
	if !changed {
		return node
	}
	return collapse(node, children, sizes)
}

// collapse rebuilds split node from its surviving children, enforcing
// the two-or-more-children rule.
func collapse(node *Node, children []*Node, sizes []float64) *Node {
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		return node.withChildren(children, normalizeSizes(sizes))
	}
}

// normalizeSizes rescales sizes to sum to 100. Negative or non-finite
// entries, or a non-positive total, fall back to an even distribution.
func normalizeSizes(sizes []float64) []float64 {
	result := make([]float64, len(sizes))
	if len(sizes) == 0 {
		return result
	}

	total := 0.0
	valid := true
	for _, size := range sizes {
		if size < 0 || math.IsNaN(size) || math.IsInf(size, 0) {
			valid = false
			break
		}
		total += size
	}
	if !valid || total <= 0 || math.IsInf(total, 0) {
		for i := range result {
			result[i] = 100 / float64(len(sizes))
		}
		return result
	}

	for i, size := range sizes {
		result[i] = size * 100 / total
	}
	return result
}

// UpdateSizes replaces the sizes of the split with ID splitID. The new
// sizes are rescaled to sum to 100. The call is rejected (ok false,
// root returned unchanged) when no such split exists, the length does
// not match the split's child count, or any entry is negative or not
// finite, or all entries are zero.
func UpdateSizes(root *Node, splitID string, sizes []float64) (*Node, bool) {
	total := 0.0
	for _, size := range sizes {
		if size < 0 || math.IsNaN(size) || math.IsInf(size, 0) {
			return root, false
		}
		total += size
	}
	if total <= 0 || math.IsInf(total, 0) {
		return root, false
	}

	tree, ok := updateSizes(root, splitID, sizes)
	if !ok {
		return root, false
	}
	return tree, true
}

func updateSizes(node *Node, splitID string, sizes []float64) (*Node, bool) {
	if node == nil || node.IsLeaf() {
		return node, false
	}
	if node.ID == splitID {
		if len(sizes) != len(node.Children) {
			return node, false
		}
		return node.withChildren(append([]*Node(nil), node.Children...), normalizeSizes(sizes)), true
	}
	for i, child := range node.Children {
		replaced, ok := updateSizes(child, splitID, sizes)
		if ok {
			children := append([]*Node(nil), node.Children...)
			children[i] = replaced
			return node.withChildren(children, append([]float64(nil), node.Sizes...)), true
		}
	}
	return node, false
}

// FindLeafForTerminal returns the leaf showing terminalID, or nil.
func FindLeafForTerminal(root *Node, terminalID string) *Node {
	var found *Node
	Walk(root, func(node *Node, _ int) bool {
		if node.IsLeaf() && node.TerminalID == terminalID {
			found = node
			return false
		}
		return true
	})
	return found
}

// FindAnyTerminalID returns the terminal of the first leaf in
// depth-first order, or "" for an empty tree.
func FindAnyTerminalID(root *Node) string {
	var found string
	Walk(root, func(node *Node, _ int) bool {
		if node.IsLeaf() {
			found = node.TerminalID
			return false
		}
		return true
	})
	return found
}

// FindSplit returns the split with the given ID, or nil.
func FindSplit(root *Node, splitID string) *Node {
	var found *Node
	Walk(root, func(node *Node, _ int) bool {
		if !node.IsLeaf() && node.ID == splitID {
			found = node
			return false
		}
		return true
	})
	return found
}

// TerminalIDs lists the terminals shown in the tree, left to right.
func TerminalIDs(root *Node) []string {
	var ids []string
	Walk(root, func(node *Node, _ int) bool {
		if node.IsLeaf() {
			ids = append(ids, node.TerminalID)
		}
		return true
	})
	return ids
}

// Walk visits the tree depth-first in child order, passing each node
// and its depth (0 for the root). Returning false stops the walk.
func Walk(root *Node, visit func(node *Node, depth int) bool) {
	walk(root, 0, visit)
}

func walk(node *Node, depth int, visit func(*Node, int) bool) bool {
	if node == nil {
		return true
	}
	if !visit(node, depth) {
		return false
	}
	for _, child := range node.Children {
		if !walk(child, depth+1, visit) {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants of a tree: known node
// kinds, leaves with a terminal, splits with a valid direction, at
// least two non-nil children, one size per child, and sizes summing to
// 100. It also rejects a terminal shown by more than one leaf. A nil
// tree is valid.
func Validate(root *Node) error {
	var errs []error
	seen := make(map[string]bool)

	Walk(root, func(node *Node, depth int) bool {
		switch node.Kind {
		case LeafNode:
			if node.TerminalID == "" {
				errs = append(errs, fmt.Errorf("leaf %s: empty terminal id", node.ID))
			} else if seen[node.TerminalID] {
				errs = append(errs, fmt.Errorf("leaf %s: terminal %s shown twice", node.ID, node.TerminalID))
			}
			seen[node.TerminalID] = true
			if len(node.Children) != 0 {
				errs = append(errs, fmt.Errorf("leaf %s: has children", node.ID))
			}

		case SplitNode:
			if !node.Direction.Valid() {
				errs = append(errs, fmt.Errorf("split %s: invalid direction %q", node.ID, node.Direction))
			}
			if len(node.Children) < 2 {
				errs = append(errs, fmt.Errorf("split %s: %d children, want at least 2", node.ID, len(node.Children)))
			}
			if len(node.Sizes) != len(node.Children) {
				errs = append(errs, fmt.Errorf("split %s: %d sizes for %d children", node.ID, len(node.Sizes), len(node.Children)))
			}
			total := 0.0
			for _, size := range node.Sizes {
				total += size
			}
			if math.Abs(total-100) > sizeTolerance {
				errs = append(errs, fmt.Errorf("split %s: sizes sum to %v, want 100", node.ID, total))
			}
			for i, child := range node.Children {
				if child == nil {
					errs = append(errs, fmt.Errorf("split %s: child %d is nil", node.ID, i))
				}
			}

		default:
			errs = append(errs, fmt.Errorf("node %s at depth %d: unknown kind %q", node.ID, depth, node.Kind))
		}
		return true
	})

	return errors.Join(errs...)
}
