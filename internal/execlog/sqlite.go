// Package execlog provides SQLite implementation of the execution log.
package execlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/torikomi/internal/models"
)

// SQLiteLog implements Log using SQLite. An AUTOINCREMENT sequence column
// keeps per-run ordering total even when two appends share a timestamp.
type SQLiteLog struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSQLiteLog opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteLog(dbPath string) (*SQLiteLog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initLogSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteLog{db: db, ttl: DefaultTTL}, nil
}

func initLogSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS execution_log (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		document_id TEXT,
		step TEXT NOT NULL,
		status TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		message TEXT,
		ttl TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_execlog_run ON execution_log(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_execlog_step_status ON execution_log(step, status);
	CREATE INDEX IF NOT EXISTS idx_execlog_ttl ON execution_log(ttl);
	`
	_, err := db.Exec(schema)
	return err
}

// Append writes one entry. A zero Timestamp is set to now (UTC) and a zero
// TTL to now plus the retention window.
func (l *SQLiteLog) Append(ctx context.Context, entry *models.StepLogEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.TTL.IsZero() {
		entry.TTL = entry.Timestamp.Add(l.ttl)
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO execution_log (run_id, document_id, step, status, timestamp, message, ttl)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.DocumentID, string(entry.Step), string(entry.Status),
		entry.Timestamp, entry.Message, entry.TTL,
	)
	return err
}

// QueryRun returns all entries for a run ordered by timestamp ascending,
// sequence as tiebreak.
func (l *SQLiteLog) QueryRun(ctx context.Context, runID string) ([]*models.StepLogEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, document_id, step, status, timestamp, message, ttl
		 FROM execution_log WHERE run_id = ? ORDER BY timestamp, seq`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// QueryStepStatus returns entries matching step and status across all runs.
func (l *SQLiteLog) QueryStepStatus(ctx context.Context, step models.Step, status models.StepStatus) ([]*models.StepLogEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, document_id, step, status, timestamp, message, ttl
		 FROM execution_log WHERE step = ? AND status = ?`,
		string(step), string(status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Stuck returns STARTED entries older than olderThan with no later terminal
// entry for the same run and step.
func (l *SQLiteLog) Stuck(ctx context.Context, olderThan time.Time) ([]*models.StepLogEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT s.run_id, s.document_id, s.step, s.status, s.timestamp, s.message, s.ttl
		 FROM execution_log s
		 WHERE s.status = 'STARTED' AND s.timestamp < ?
		 AND NOT EXISTS (
			SELECT 1 FROM execution_log t
			WHERE t.run_id = s.run_id AND t.step = s.step
			AND t.status IN ('SUCCESS', 'FAILED') AND t.seq > s.seq
		 )`,
		olderThan,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// PurgeExpired deletes entries whose TTL has passed. This is storage
// maintenance, not part of the caller-facing log contract.
func (l *SQLiteLog) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM execution_log WHERE ttl < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

func scanEntries(rows *sql.Rows) ([]*models.StepLogEntry, error) {
	var entries []*models.StepLogEntry
	for rows.Next() {
		var e models.StepLogEntry
		var docID, message sql.NullString
		var step, status string
		if err := rows.Scan(&e.RunID, &docID, &step, &status, &e.Timestamp, &message, &e.TTL); err != nil {
			return nil, err
		}
		e.DocumentID = docID.String
		e.Message = message.String
		e.Step = models.Step(step)
		e.Status = models.StepStatus(status)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
