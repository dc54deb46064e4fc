package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// NewSQLiteStorage opens (or creates) the SQLite database at path.
func NewSQLiteStorage(path string) (*SQLStorage, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent appends
	db.SetMaxOpenConns(1)

	return newSQLStorage(db, sqliteInsert)
}
