// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite databases for termpanel's durable
// state with a fixed set of pragmas.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers [Pool.Take]
// a connection, run SQL with sqlitex helpers, and [Pool.Put] it back.
// Connections are not safe for concurrent use; the pool is.
//
// Every connection gets:
//
//   - journal_mode=WAL so a reader never blocks the single writer.
//   - synchronous=FULL. The panel snapshot is the only copy of the
//     layout, so commits must survive power loss, and writes are rare
//     (one per user action).
//   - busy_timeout=5000 to wait out a concurrent writer instead of
//     failing with SQLITE_BUSY.
//   - the caller's Schema, executed as a script.
//
// There is no query builder. Stores write SQL directly.
package sqlitepool
