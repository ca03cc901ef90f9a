// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/termpanel/lib/codec"
	"github.com/bureau-foundation/termpanel/lib/sqlitepool"
	"github.com/bureau-foundation/termpanel/lib/statefile"
)

// Store persists engine snapshots. Load returns (nil, nil) when nothing
// has been saved yet.
type Store interface {
	Save(snapshot *Snapshot) error
	Load() (*Snapshot, error)
}

// ErrCorruptSnapshot reports a stored snapshot that could not be
// decoded. Front ends start fresh and warn.
var ErrCorruptSnapshot = errors.New("panel: corrupt snapshot")

// FileStore keeps the snapshot in a single state file, replaced
// atomically on every save.
type FileStore struct {
	path    string
	options statefile.Options
}

// NewFileStore returns a store writing to path. The parent directory
// must exist.
func NewFileStore(path string, compression statefile.Compression) *FileStore {
	return &FileStore{path: path, options: statefile.Options{Compression: compression}}
}

// Path returns the state file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(snapshot *Snapshot) error {
	if err := statefile.Write(s.path, snapshot, s.options); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Load() (*Snapshot, error) {
	var snapshot Snapshot
	err := statefile.Read(s.path, &snapshot)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case errors.Is(err, statefile.ErrCorrupt):
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptSnapshot, s.path, err)
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return &snapshot, nil
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS panel_snapshot (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	saved_at TEXT NOT NULL,
	body     BLOB NOT NULL
);
`

// sqliteTimeout bounds waiting for a pooled connection.
const sqliteTimeout = 5 * time.Second

// SQLiteStore keeps the snapshot as a single CBOR row in a SQLite
// database. Useful when several front ends share one state directory.
type SQLiteStore struct {
	pool *sqlitepool.Pool
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Schema: snapshotSchema,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{pool: pool}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.pool.Close()
}

func (s *SQLiteStore) Save(snapshot *Snapshot) error {
	body, err := codec.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO panel_snapshot (id, saved_at, body) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET saved_at = excluded.saved_at, body = excluded.body`,
		&sqlitex.ExecOptions{
			Args: []any{time.Now().UTC().Format(time.RFC3339Nano), body},
		})
	if err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load() (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var body []byte
	found := false
	err = sqlitex.Execute(conn, `SELECT body FROM panel_snapshot WHERE id = 1`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			body = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, body)
			found = true
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	if !found {
		return nil, nil
	}

	var snapshot Snapshot
	if err := codec.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	return &snapshot, nil
}
