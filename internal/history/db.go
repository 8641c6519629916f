// Package history keeps a SQLite ledger of pipeline runs and the events
// observed during each of them.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Run outcomes. A run stays OutcomeRunning until FinishRun is called, so an
// interrupted process leaves it that way.
const (
	OutcomeRunning   = "running"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one row of the runs table.
type Run struct {
	ID          string
	ProjectRoot string
	Description string
	StartedAt   time.Time
	FinishedAt  time.Time // zero while running
	Outcome     string
	FailedAgent string
	Error       string
	Builds      int
	Issues      int
}

// Duration returns how long the run took, or 0 if it has not finished.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// EventRecord is one row of the events table.
type EventRecord struct {
	EventID int64
	RunID   string
	At      time.Time
	Agent   string
	Kind    string
	Detail  string
}

// DB provides the run ledger.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// NewDB opens (creating if needed) the ledger at dbPath.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers well
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &DB{db: db, now: time.Now}
	if err := d.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id       TEXT PRIMARY KEY,
		project_root TEXT NOT NULL,
		description  TEXT NOT NULL,
		started_at   INTEGER NOT NULL,
		finished_at  INTEGER,
		outcome      TEXT NOT NULL,
		failed_agent TEXT,
		error        TEXT
	);

	CREATE TABLE IF NOT EXISTS events (
		event_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id   TEXT NOT NULL,
		at       INTEGER NOT NULL,
		agent    TEXT NOT NULL,
		kind     TEXT NOT NULL,
		detail   TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
	`
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// StartRun inserts a new run in the running state.
func (d *DB) StartRun(ctx context.Context, id, projectRoot, description string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, project_root, description, started_at, outcome)
		VALUES (?, ?, ?, ?, ?)
	`, id, projectRoot, description, d.now().UnixMilli(), OutcomeRunning)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun records the final outcome of a run. failedAgent and runErr are
// empty for a successful run.
func (d *DB) FinishRun(ctx context.Context, id, failedAgent string, runErr error) error {
	outcome, errMsg := OutcomeSucceeded, ""
	if runErr != nil {
		outcome, errMsg = OutcomeFailed, runErr.Error()
	}
	res, err := d.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, outcome = ?, failed_agent = ?, error = ?
		WHERE run_id = ?
	`, d.now().UnixMilli(), outcome, failedAgent, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// AddEvent appends an event to a run.
func (d *DB) AddEvent(ctx context.Context, runID, agent, kind, detail string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO events (run_id, at, agent, kind, detail)
		VALUES (?, ?, ?, ?, ?)
	`, runID, d.now().UnixMilli(), agent, kind, detail)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

const runColumns = `
	r.run_id, r.project_root, r.description, r.started_at, r.finished_at,
	r.outcome, COALESCE(r.failed_agent, ''), COALESCE(r.error, ''),
	(SELECT COUNT(*) FROM events e WHERE e.run_id = r.run_id AND e.kind = 'build'),
	(SELECT COUNT(*) FROM events e WHERE e.run_id = r.run_id AND e.kind = 'issue')
`

// List returns the most recent runs first. limit <= 0 means no limit.
func (d *DB) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r
		ORDER BY r.started_at DESC, r.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns a single run.
func (d *DB) Get(ctx context.Context, id string) (Run, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Events returns the events of a run in insertion order.
func (d *DB) Events(ctx context.Context, runID string) ([]EventRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT event_id, run_id, at, agent, kind, detail
		FROM events WHERE run_id = ? ORDER BY event_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var (
			ev EventRecord
			at int64
		)
		if err := rows.Scan(&ev.EventID, &ev.RunID, &at, &ev.Agent, &ev.Kind, &ev.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.At = time.UnixMilli(at)
		events = append(events, ev)
	}
	return events, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run      Run
		started  int64
		finished sql.NullInt64
	)
	err := s.Scan(&run.ID, &run.ProjectRoot, &run.Description, &started, &finished,
		&run.Outcome, &run.FailedAgent, &run.Error, &run.Builds, &run.Issues)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	run.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		run.FinishedAt = time.UnixMilli(finished.Int64)
	}
	return run, nil
}
