// Package migrations provides embedded SQL migration files.
package migrations

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed sql/001_runs.sql
var RunsSQL string

// Apply runs every migration against db. Each statement is idempotent.
func Apply(db *sql.DB) error {
	if _, err := db.Exec(RunsSQL); err != nil {
		return fmt.Errorf("migrate runs: %w", err)
	}
	return nil
}
