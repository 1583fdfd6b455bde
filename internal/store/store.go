package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no cached entry exists for a key.
var ErrNotFound = errors.New("not found")

// Summary is a cached AI summary of one mailbox message.
type Summary struct {
	MessageID string    `db:"message_id"`
	Summary   string    `db:"summary"`
	Model     string    `db:"model"`
	CreatedAt time.Time `db:"created_at"`
}

// SentReply records a reply delivered through the local backend.
type SentReply struct {
	ID        string    `db:"id"`
	ThreadID  string    `db:"thread_id"`
	Recipient string    `db:"recipient"`
	Subject   string    `db:"subject"`
	SentAt    time.Time `db:"sent_at"`
}

// Store defines the persistence interface of the local backend.
type Store interface {
	// === Summaries ===

	GetSummary(ctx context.Context, messageID string) (*Summary, error)
	PutSummary(ctx context.Context, s Summary) error
	DeleteSummary(ctx context.Context, messageID string) error

	// === Sent replies ===

	RecordSent(ctx context.Context, r SentReply) (string, error)
	GetSentReplies(ctx context.Context, limit int) ([]SentReply, error)
}
