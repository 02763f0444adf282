// Package journal persists commit attempts in a local SQLite database. A split
// that updated the parent but never created the children stays visible here
// until the processor retries it or gives up.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	StatePending       = "pending"
	StateParentUpdated = "parent_updated"
	StateCompleted     = "completed"
	StateFailed        = "failed"
	StateAbandoned     = "abandoned"
)

// Entry is one journaled commit attempt.
type Entry struct {
	ID            int64
	Kind          string
	TransactionID string
	Payload       []byte
	State         string
	Stage         string
	Attempts      int64
	LastError     string
	Exported      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Journal struct {
	db *sql.DB
}

// Open creates the database file if needed, runs migrations and returns a
// ready journal.
func Open(dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Begin implements commit.Recorder.
func (j *Journal) Begin(ctx context.Context, kind, transactionID string, payload []byte) (int64, error) {
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO commit_journal (kind, transaction_id, payload, state) VALUES (?, ?, ?, ?)`,
		kind, transactionID, payload, StatePending)
	if err != nil {
		return 0, fmt.Errorf("insert journal entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal entry id: %w", err)
	}

	slog.DebugContext(ctx, "Commit journaled",
		"journal_id", id, "kind", kind, "transaction_id", transactionID)
	return id, nil
}

// MarkParentUpdated implements commit.Recorder.
func (j *Journal) MarkParentUpdated(ctx context.Context, id int64) error {
	return j.setState(ctx, id, StateParentUpdated)
}

// MarkCompleted implements commit.Recorder.
func (j *Journal) MarkCompleted(ctx context.Context, id int64) error {
	return j.setState(ctx, id, StateCompleted)
}

// MarkFailed implements commit.Recorder.
func (j *Journal) MarkFailed(ctx context.Context, id int64, stage, cause string) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE commit_journal
		 SET state = ?, stage = ?, last_error = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		StateFailed, stage, cause, id)
	if err != nil {
		return fmt.Errorf("mark journal entry %d failed: %w", id, err)
	}
	return nil
}

func (j *Journal) setState(ctx context.Context, id int64, state string) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE commit_journal SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		state, id)
	if err != nil {
		return fmt.Errorf("set journal entry %d to %s: %w", id, state, err)
	}
	return nil
}

// ListRetryable returns split entries whose parent was updated but whose
// children are missing: failures in the create-children stage, plus entries
// stuck in parent_updated by a crash mid-commit.
func (j *Journal) ListRetryable(ctx context.Context, kind string, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, transaction_id, payload, state, stage, attempts, last_error, exported, created_at, updated_at
		 FROM commit_journal
		 WHERE kind = ? AND (state = ? OR (state = ? AND stage = 'create_children'))
		 ORDER BY id
		 LIMIT ?`,
		kind, StateParentUpdated, StateFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("list retryable entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListUnexported returns completed entries not yet pushed to the audit sink.
func (j *Journal) ListUnexported(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, transaction_id, payload, state, stage, attempts, last_error, exported, created_at, updated_at
		 FROM commit_journal
		 WHERE state = ? AND exported = 0
		 ORDER BY id
		 LIMIT ?`,
		StateCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// IncrementAttempt records one more failed retry.
func (j *Journal) IncrementAttempt(ctx context.Context, id int64, cause string) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE commit_journal
		 SET attempts = attempts + 1, last_error = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		cause, id)
	if err != nil {
		return fmt.Errorf("increment attempt on entry %d: %w", id, err)
	}
	return nil
}

// MarkAbandoned takes an entry out of the retry set for good. The partial
// state stays on record for manual repair.
func (j *Journal) MarkAbandoned(ctx context.Context, id int64) error {
	if err := j.setState(ctx, id, StateAbandoned); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Journal entry abandoned after max retries", "journal_id", id)
	return nil
}

func (j *Journal) MarkExported(ctx context.Context, id int64) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE commit_journal SET exported = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id)
	if err != nil {
		return fmt.Errorf("mark entry %d exported: %w", id, err)
	}
	return nil
}

// Get returns a single entry.
func (j *Journal) Get(ctx context.Context, id int64) (Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, transaction_id, payload, state, stage, attempts, last_error, exported, created_at, updated_at
		 FROM commit_journal WHERE id = ?`, id)
	if err != nil {
		return Entry{}, fmt.Errorf("get journal entry %d: %w", id, err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, sql.ErrNoRows
	}
	return entries[0], nil
}

// CleanupCompleted removes exported completed entries older than the cutoff.
func (j *Journal) CleanupCompleted(ctx context.Context, before time.Time) error {
	res, err := j.db.ExecContext(ctx,
		`DELETE FROM commit_journal WHERE state = ? AND exported = 1 AND updated_at < ?`,
		StateCompleted, before.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("cleanup completed entries: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.DebugContext(ctx, "Cleaned up journal entries", "count", n)
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var exported int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.TransactionID, &e.Payload,
			&e.State, &e.Stage, &e.Attempts, &e.LastError, &exported,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Exported = exported != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return entries, nil
}
