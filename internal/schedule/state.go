package schedule

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDB tracks which assignments were already pushed so re-running the same
// schedule file skips them.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS applied_assignments (
		date        TEXT PRIMARY KEY,
		kind        TEXT NOT NULL,
		template    TEXT NOT NULL DEFAULT '',
		applied_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsApplied checks whether the same assignment was already pushed for a date.
func (s *StateDB) IsApplied(date, kind, template string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM applied_assignments WHERE date = ? AND kind = ? AND template = ?`,
		date, kind, template,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkApplied records a pushed assignment. A changed assignment for the same
// date replaces the previous record.
func (s *StateDB) MarkApplied(date, kind, template string) error {
	_, err := s.db.Exec(
		`INSERT INTO applied_assignments (date, kind, template) VALUES (?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET kind = excluded.kind, template = excluded.template,
		 applied_at = CURRENT_TIMESTAMP`,
		date, kind, template,
	)
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}
