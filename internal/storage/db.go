package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"chainlist/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  sourceDir TEXT NOT NULL,
  revision TEXT,
  entryCount INTEGER NOT NULL,
  durationMs INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  position INTEGER NOT NULL,
  name TEXT NOT NULL,
  chainId TEXT,
  UNIQUE(runId, position),
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_entries_name ON entries(name);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun stores a run and its entries in one transaction and returns the
// new run id.
func (d *DB) InsertRun(run internal.RunRecord, entries []internal.ChainEntry) (int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
INSERT INTO runs (traceId, sourceDir, revision, entryCount, durationMs)
VALUES (?, ?, ?, ?, ?)
`, run.TraceID, run.SourceDir, nullIfEmpty(run.Revision), len(entries), run.DurationMs)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO entries (runId, position, name, chainId) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.Exec(runID, i, e.Name, chainIDColumn(e.ID)); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, sourceDir, revision, entryCount, durationMs, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) LatestRun() (*internal.RunRecord, error) {
	row := d.conn.QueryRow(`
SELECT id, traceId, sourceDir, revision, entryCount, durationMs, createdAt
FROM runs ORDER BY id DESC LIMIT 1
`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (d *DB) GetRunEntries(runID int64) ([]internal.ChainEntry, error) {
	rows, err := d.conn.Query(`SELECT name, chainId FROM entries WHERE runId = ? ORDER BY position ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ChainEntry
	for rows.Next() {
		var name string
		var chainID *string
		if err := rows.Scan(&name, &chainID); err != nil {
			return nil, err
		}
		entry := internal.ChainEntry{Name: name}
		if chainID != nil {
			entry.ID = internal.NewChainID(json.RawMessage(*chainID))
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (d *DB) MustRunEntries(runID int64) ([]internal.ChainEntry, error) {
	entries, err := d.GetRunEntries(runID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries for run id=%d", runID)
	}
	return entries, nil
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (internal.RunRecord, error) {
	var run internal.RunRecord
	var revision *string
	if err := s.Scan(&run.ID, &run.TraceID, &run.SourceDir, &revision, &run.EntryCount, &run.DurationMs, &run.CreatedAt); err != nil {
		return internal.RunRecord{}, err
	}
	if revision != nil {
		run.Revision = *revision
	}
	return run, nil
}

func chainIDColumn(id internal.ChainID) *string {
	if id.IsAbsent() {
		return nil
	}
	s := string(id.Raw())
	return &s
}

func nullIfEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
