// Package audit persists a record of every purge cycle and every destructive
// action to a local SQLite database, so reclaimed resources can be traced
// after the fact.
package audit

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/psantana5/compute-reaper/internal/reaper"
)

// Store is a SQLite-backed audit trail. The reaper is the only writer.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens (and if needed initializes) the audit database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	// WAL keeps reads (ad-hoc queries by operators) from blocking the writer.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// Single writer to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cycles (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		dry_run BOOLEAN NOT NULL,
		phase TEXT NOT NULL,
		jobs_classified INTEGER NOT NULL,
		jobs_deleted INTEGER NOT NULL,
		job_delete_errors INTEGER NOT NULL,
		dirs_removed INTEGER NOT NULL,
		dirs_retained INTEGER NOT NULL,
		dir_remove_errors INTEGER NOT NULL,
		skipped INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS actions (
		cycle_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		target TEXT NOT NULL,
		reason TEXT,
		performed BOOLEAN NOT NULL,
		error TEXT,
		FOREIGN KEY (cycle_id) REFERENCES cycles(id)
	);

	CREATE INDEX IF NOT EXISTS idx_actions_cycle ON actions(cycle_id);
	CREATE INDEX IF NOT EXISTS idx_actions_target ON actions(target);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordCycle implements reaper.Recorder.
func (s *Store) RecordCycle(report *reaper.CycleReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO cycles
		(id, started_at, finished_at, dry_run, phase, jobs_classified, jobs_deleted,
		 job_delete_errors, dirs_removed, dirs_retained, dir_remove_errors, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, report.StartedAt, report.FinishedAt, report.DryRun, string(report.Phase),
		len(report.Classifications), report.JobsDeleted, report.JobDeleteErrors,
		report.DirsRemoved, report.DirsRetained, report.DirRemoveErrors, len(report.Skipped))
	if err != nil {
		return fmt.Errorf("failed to insert cycle row: %w", err)
	}

	for _, action := range report.Actions {
		_, err = tx.Exec(`
			INSERT INTO actions (cycle_id, kind, target, reason, performed, error)
			VALUES (?, ?, ?, ?, ?, ?)
		`, report.ID, string(action.Kind), action.Target, action.Reason, action.Performed, action.Error)
		if err != nil {
			return fmt.Errorf("failed to insert action row: %w", err)
		}
	}

	return tx.Commit()
}

// CycleSummary is one row of the cycle history.
type CycleSummary struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	DryRun      bool
	Phase       string
	JobsDeleted int
	DirsRemoved int
	Skipped     int
}

// RecentCycles returns the newest cycles first, up to limit.
func (s *Store) RecentCycles(limit int) ([]CycleSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, dry_run, phase, jobs_deleted, dirs_removed, skipped
		FROM cycles ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var cycles []CycleSummary
	for rows.Next() {
		var c CycleSummary
		if err := rows.Scan(&c.ID, &c.StartedAt, &c.FinishedAt, &c.DryRun, &c.Phase, &c.JobsDeleted, &c.DirsRemoved, &c.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan cycle row: %w", err)
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
