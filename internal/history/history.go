// Package history records every download, sequence and merge run in SQLite.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/vmunix/imgkit/internal/migrations"
)

// Operations recorded in history.
const (
	OpDownload = "download"
	OpSequence = "sequence"
	OpMerge    = "merge"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one recorded operation.
type Run struct {
	ID         int64     `json:"id"`
	Operation  string    `json:"operation"`
	Target     string    `json:"target"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Log        []string  `json:"log"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Filter specifies criteria for listing runs.
type Filter struct {
	Operation string
	Limit     int
}

// Store persists runs.
type Store struct {
	db *sql.DB
}

// NewStore creates a history store on an already migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// OpenDB opens the SQLite database at path, creating its directory and
// applying migrations.
func OpenDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Add inserts r and sets its ID.
func (s *Store) Add(r *Run) error {
	logLines := r.Log
	if logLines == nil {
		logLines = []string{}
	}
	logJSON, err := json.Marshal(logLines)
	if err != nil {
		return fmt.Errorf("encode log: %w", err)
	}

	result, err := s.db.Exec(`
		INSERT INTO runs (operation, target, succeeded, failed, log, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Operation, r.Target, r.Succeeded, r.Failed, string(logJSON), r.Error,
		r.StartedAt.UTC(), r.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	r.ID = id
	return nil
}

const selectRuns = `SELECT id, operation, target, succeeded, failed, log, error, started_at, finished_at FROM runs`

// Get returns the run with the given ID.
func (s *Store) Get(id int64) (*Run, error) {
	row := s.db.QueryRow(selectRuns+` WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List returns runs matching the filter, most recent first.
func (s *Store) List(f Filter) ([]*Run, error) {
	query := selectRuns
	var args []any
	if f.Operation != "" {
		query += ` WHERE operation = ?`
		args = append(args, f.Operation)
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	r := &Run{}
	var logJSON string
	err := sc.Scan(&r.ID, &r.Operation, &r.Target, &r.Succeeded, &r.Failed,
		&logJSON, &r.Error, &r.StartedAt, &r.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(logJSON), &r.Log); err != nil {
		return nil, fmt.Errorf("decode log for run %d: %w", r.ID, err)
	}
	return r, nil
}
