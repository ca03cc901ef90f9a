// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package panel is the state engine behind a multi-terminal panel: the
// registry of shell and agent sessions, the tiling pane layout that
// arranges them, and the panel's visibility mode and height.
//
// The layout is an immutable tree of [Node] values. Same-direction
// splits flatten into one split and cross-direction splits nest; a
// split reduced to one child is replaced by that child, so every split
// always has at least two children with sizes summing to 100. The tree
// functions ([SplitPane], [RemovePane], [UpdateSizes]) are pure and
// return new trees that share untouched subtrees.
//
// [Engine] composes the pieces. Each exported method is one atomic
// transaction under the engine lock, and the invariants hold between
// any two calls:
//
//   - every leaf names a registered session;
//   - every split has at least two children and sizes summing to 100;
//   - the active terminal is empty or shown in the layout;
//   - no two agent sessions share an agent ID.
//
// The process side of a session is a [Backend]. The engine calls it in
// two places only: the stale-session reconciler asks whether sessions
// are still live, and closes and prunes tell it to release a session
// without waiting for the answer. A [Store] receives a [Snapshot] after
// every change; [Engine.Restore] re-validates a loaded snapshot rather
// than trusting it.
package panel
