package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageRejectsPayloadMismatch(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		payload any
	}{
		{"text with emails", KindText, []Email{{ID: "1"}}},
		{"status with draft", KindStatus, DraftReply{}},
		{"email-list with draft", KindEmailList, DraftReply{}},
		{"email-list without payload", KindEmailList, nil},
		{"draft with emails", KindDraft, []Email{}},
		{"draft with nil pointer", KindDraft, (*DraftReply)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMessage(RoleAssistant, tt.kind, "x", tt.payload)
			assert.ErrorIs(t, err, ErrPayloadMismatch)
		})
	}
}

func TestNewMessageRejectsUnknownKindAndRole(t *testing.T) {
	_, err := NewMessage(RoleAssistant, Kind("card"), "x", nil)
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = NewMessage(Role("bot"), KindText, "x", nil)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestNewMessageAcceptsMatchingPayloads(t *testing.T) {
	msg, err := NewMessage(RoleAssistant, KindEmailList, "list", []Email{{ID: "a"}})
	require.NoError(t, err)
	assert.Equal(t, KindEmailList, msg.Kind())
	assert.Len(t, msg.Emails(), 1)

	draft := DraftReply{Reply: "ok", To: "bob@example.com"}
	msg, err = NewMessage(RoleAssistant, KindDraft, "draft", &draft)
	require.NoError(t, err)
	got, ok := msg.Draft()
	require.True(t, ok)
	assert.Equal(t, draft, got)

	msg, err = NewMessage(RoleUser, KindText, "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, msg.Role())
	assert.Equal(t, "hi", msg.Content())
}

func TestMessagePayloadCannotBeMutatedThroughAccessors(t *testing.T) {
	emails := []Email{{ID: "1", Subject: "Original"}}
	msg := NewEmailList("list", emails)

	emails[0].Subject = "changed via input"
	out := msg.Emails()
	out[0].Subject = "changed via output"

	assert.Equal(t, "Original", msg.Emails()[0].Subject)
}

func TestNewStatusCarriesInvocation(t *testing.T) {
	msg := NewStatus("Sending email...", "inv-1")
	assert.True(t, msg.IsStatus())
	assert.Equal(t, RoleAssistant, msg.Role())
	assert.Equal(t, "inv-1", msg.Invocation())

	_, ok := msg.Draft()
	assert.False(t, ok)
	assert.Nil(t, msg.Emails())
}

func TestTextMessageAccessors(t *testing.T) {
	msg := NewText(RoleUser, "check my email")
	assert.Equal(t, RoleUser, msg.Role())
	assert.Equal(t, KindText, msg.Kind())
	assert.Equal(t, "check my email", msg.Content())
	assert.False(t, msg.IsStatus())
	assert.Empty(t, msg.Invocation())
}

func TestEmailOriginalContent(t *testing.T) {
	assert.Equal(t, "snippet", Email{Snippet: "snippet"}.OriginalContent())
	assert.Equal(t, "snippet\nsummary", Email{Snippet: "snippet", Summary: "summary"}.OriginalContent())
}

func TestNewDraftReplyCopiesRoutingFields(t *testing.T) {
	email := Email{
		ID:       "m1",
		Sender:   "alice@example.com",
		Subject:  "Project Update",
		ThreadID: "t1",
	}

	draft := NewDraftReply(email, "Thanks!")
	assert.Equal(t, DraftReply{
		Reply:    "Thanks!",
		EmailID:  "m1",
		To:       "alice@example.com",
		Subject:  "Re: Project Update",
		ThreadID: "t1",
	}, draft)
}
