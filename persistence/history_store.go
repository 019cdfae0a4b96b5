package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one recorded interpretation, accepted or rejected.
type Entry struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id,omitempty"`
	Domain       string    `json:"domain"`
	Input        string    `json:"input"`
	RawOutput    string    `json:"raw_output,omitempty"`
	Action       string    `json:"action,omitempty"`
	Command      string    `json:"command,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Accepted reports whether the interpretation produced a command.
func (e Entry) Accepted() bool {
	return e.ErrorMessage == ""
}

// HistoryStore persists interpretations.
type HistoryStore interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, domain string, limit int) ([]Entry, error)
	Close() error
}

// SQLiteHistoryStore keeps history in a SQLite database.
type SQLiteHistoryStore struct {
	db *sql.DB
}

// NewSQLiteHistoryStore opens/creates the database at dbPath.
func NewSQLiteHistoryStore(dbPath string) (*SQLiteHistoryStore, error) {
	if dbPath == "" {
		return nil, errors.New("history path required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// Serialise writers; sqlite allows one at a time.
	db.SetMaxOpenConns(1)
	store := &SQLiteHistoryStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteHistoryStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS interpretations (
		id TEXT PRIMARY KEY,
		request_id TEXT,
		domain TEXT NOT NULL,
		input TEXT NOT NULL,
		raw_output TEXT,
		action TEXT,
		command TEXT,
		error_kind TEXT,
		error_message TEXT,
		duration_ms INTEGER,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS interpretations_domain_created
		ON interpretations(domain, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteHistoryStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts entry, assigning an id and timestamp when missing.
func (s *SQLiteHistoryStore) Record(ctx context.Context, entry Entry) error {
	if entry.Domain == "" {
		return errors.New("entry domain required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO interpretations (
		id, request_id, domain, input, raw_output, action, command,
		error_kind, error_message, duration_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.RequestID,
		entry.Domain,
		entry.Input,
		entry.RawOutput,
		entry.Action,
		entry.Command,
		entry.ErrorKind,
		entry.ErrorMessage,
		entry.DurationMS,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record interpretation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty domain matches
// every domain.
func (s *SQLiteHistoryStore) Recent(ctx context.Context, domain string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	const columns = `id, request_id, domain, input, raw_output, action, command,
		error_kind, error_message, duration_ms, created_at`
	var (
		rows *sql.Rows
		err  error
	)
	if domain == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+columns+` FROM interpretations
			ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+columns+` FROM interpretations
			WHERE domain = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, domain, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var requestID, rawOutput, action, command, errorKind, errorMessage sql.NullString
		var duration sql.NullInt64
		if err := rows.Scan(&e.ID, &requestID, &e.Domain, &e.Input, &rawOutput, &action, &command,
			&errorKind, &errorMessage, &duration, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.RequestID = requestID.String
		e.RawOutput = rawOutput.String
		e.Action = action.String
		e.Command = command.String
		e.ErrorKind = errorKind.String
		e.ErrorMessage = errorMessage.String
		e.DurationMS = duration.Int64
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
