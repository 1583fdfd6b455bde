package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion reports the highest applied migration.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// GetSummary returns the cached summary for a message, or ErrNotFound.
func (s *SQLiteStore) GetSummary(ctx context.Context, messageID string) (*Summary, error) {
	var sum Summary
	err := s.db.GetContext(ctx, &sum,
		"SELECT message_id, summary, model, created_at FROM summaries WHERE message_id = ?",
		messageID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting summary %s: %w", messageID, err)
	}
	return &sum, nil
}

// PutSummary inserts or replaces the cached summary for a message.
func (s *SQLiteStore) PutSummary(ctx context.Context, sum Summary) error {
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = time.Now()
	}
	sum.CreatedAt = sum.CreatedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO summaries (message_id, summary, model, created_at)
		VALUES (:message_id, :summary, :model, :created_at)`,
		sum,
	)
	if err != nil {
		return fmt.Errorf("upserting summary %s: %w", sum.MessageID, err)
	}
	return nil
}

// DeleteSummary drops the cached summary for a message.
func (s *SQLiteStore) DeleteSummary(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM summaries WHERE message_id = ?", messageID)
	if err != nil {
		return fmt.Errorf("deleting summary %s: %w", messageID, err)
	}
	return nil
}

// RecordSent stores a delivered reply and returns its ID. If the reply has
// no ID, a new UUID is generated.
func (s *SQLiteStore) RecordSent(ctx context.Context, r SentReply) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.SentAt.IsZero() {
		r.SentAt = time.Now()
	}
	r.SentAt = r.SentAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sent_replies (id, thread_id, recipient, subject, sent_at)
		VALUES (:id, :thread_id, :recipient, :subject, :sent_at)`,
		r,
	)
	if err != nil {
		return "", fmt.Errorf("recording sent reply: %w", err)
	}
	return r.ID, nil
}

// GetSentReplies returns delivered replies, newest first. A limit of zero
// returns all of them.
func (s *SQLiteStore) GetSentReplies(ctx context.Context, limit int) ([]SentReply, error) {
	query := "SELECT id, thread_id, recipient, subject, sent_at FROM sent_replies ORDER BY sent_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var replies []SentReply
	if err := s.db.SelectContext(ctx, &replies, query); err != nil {
		return nil, fmt.Errorf("querying sent replies: %w", err)
	}
	return replies, nil
}
