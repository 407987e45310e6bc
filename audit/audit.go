// Package audit persists the security-access attempt trail in
// SQLite.
package audit

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const DefaultRecentLimit = 50

// Entry is one security-access audit record.
type Entry struct {
	At     time.Time
	Level  uint8
	Action string // Matches access event actions (seed_issued, ...).
	Seed   uint32
	Detail string
}

// Store is an append-only audit trail. It is safe for concurrent
// use.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) an audit store and applies bundled
// migrations.
func Open(path string) (st *Store, err error) {
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return
	}

	err = sqlDB.Ping()
	if err != nil {
		sqlDB.Close()
		return
	}

	st = &Store{sqlDB: sqlDB}

	err = st.applyMigrations()
	if err != nil {
		sqlDB.Close()
		st = nil
		return
	}

	return
}

// Close releases the underlying database.
func (st *Store) Close() error {
	return st.sqlDB.Close()
}

// toMillis normalizes timestamps to UTC millisecond precision for
// storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Record appends one entry. A zero At is stamped with the current
// time.
func (st *Store) Record(ctx context.Context, entry Entry) (err error) {
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err = st.sqlDB.ExecContext(ctx,
		`INSERT INTO events (at, level, action, seed, detail) VALUES (?, ?, ?, ?, ?)`,
		toMillis(at), entry.Level, entry.Action, int64(entry.Seed), entry.Detail)

	return
}

// Recent returns up to limit entries, newest first. A non-positive
// limit selects DefaultRecentLimit.
func (st *Store) Recent(ctx context.Context, limit int) (entries []Entry, err error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := st.sqlDB.QueryContext(ctx,
		`SELECT at, level, action, seed, detail FROM events ORDER BY at DESC, id DESC LIMIT ?`,
		limit)
	if err != nil {
		return
	}
	defer rows.Close()

	for rows.Next() {
		var at, seed int64
		var entry Entry

		err = rows.Scan(&at, &entry.Level, &entry.Action, &seed, &entry.Detail)
		if err != nil {
			return
		}

		entry.At = fromMillis(at)
		entry.Seed = uint32(seed)
		entries = append(entries, entry)
	}
	err = rows.Err()

	return
}
