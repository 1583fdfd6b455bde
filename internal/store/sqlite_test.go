package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailchat/internal/store"
	"github.com/nhle/mailchat/internal/testutil"
)

func TestMigrationsApplied(t *testing.T) {
	s := testutil.NewTestStore(t)

	v, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.PutSummary(context.Background(), store.Summary{MessageID: "m1", Summary: "kept"}))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetSummary(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Summary)
}

func TestSummaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.GetSummary(ctx, "m1")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	require.NoError(t, s.PutSummary(ctx, store.Summary{MessageID: "m1", Summary: "first", Model: "claude"}))
	require.NoError(t, s.PutSummary(ctx, store.Summary{MessageID: "m1", Summary: "second", Model: "claude"}))

	got, err := s.GetSummary(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Summary)
	assert.Equal(t, "claude", got.Model)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, s.DeleteSummary(ctx, "m1"))
	_, err = s.GetSummary(ctx, "m1")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSentReplies(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	id1, err := s.RecordSent(ctx, store.SentReply{Recipient: "a@x.com", Subject: "Re: A", SentAt: base})
	require.NoError(t, err)
	assert.NotEmpty(t, id1)

	id2, err := s.RecordSent(ctx, store.SentReply{Recipient: "b@x.com", Subject: "Re: B", ThreadID: "t2", SentAt: base.Add(time.Minute)})
	require.NoError(t, err)

	all, err := s.GetSentReplies(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, id2, all[0].ID)
	assert.Equal(t, "t2", all[0].ThreadID)
	assert.Equal(t, id1, all[1].ID)

	latest, err := s.GetSentReplies(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "b@x.com", latest[0].Recipient)
}
