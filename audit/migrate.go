package audit

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationTable = "schema_migrations"

// applyMigrations executes each bundled migration at most once, in a
// transaction, recording applied files in schema_migrations.
func (st *Store) applyMigrations() (err error) {
	_, err = st.sqlDB.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`)
	if err != nil {
		return
	}

	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return
	}
	slices.Sort(names)

	for _, name := range names {
		var applied bool
		applied, err = st.migrationApplied(name)
		if err != nil {
			return
		}
		if applied {
			continue
		}

		err = st.applyMigration(name)
		if err != nil {
			return fmt.Errorf("%v: %w", name, err)
		}
	}

	return
}

func (st *Store) migrationApplied(name string) (applied bool, err error) {
	var found int

	row := st.sqlDB.QueryRow(`SELECT 1 FROM `+migrationTable+` WHERE name = ?`, name)
	err = row.Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return
	}

	return true, nil
}

func (st *Store) applyMigration(name string) (err error) {
	content, err := fs.ReadFile(migrationFS, name)
	if err != nil {
		return
	}

	tx, err := st.sqlDB.Begin()
	if err != nil {
		return
	}

	_, err = tx.Exec(string(content))
	if err != nil {
		tx.Rollback()
		return
	}

	_, err = tx.Exec(`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
		name, time.Now().UTC().UnixMilli())
	if err != nil {
		tx.Rollback()
		return
	}

	return tx.Commit()
}
