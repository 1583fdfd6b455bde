package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMIMEBodyMultipart(t *testing.T) {
	raw := strings.Join([]string{
		"From: alice@example.com",
		"Subject: Lunch",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Lunch at noon?",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Lunch at <b>noon</b>?</p>",
		"--b1--",
		"",
	}, "\r\n")

	text, html := parseMIMEBody([]byte(raw))
	assert.Equal(t, "Lunch at noon?", strings.TrimSpace(text))
	assert.Contains(t, html, "<b>noon</b>")
}

func TestParseMIMEBodySinglePart(t *testing.T) {
	raw := "From: bob@example.com\r\nContent-Type: text/plain\r\n\r\nJust text\r\n"

	text, html := parseMIMEBody([]byte(raw))
	assert.Equal(t, "Just text", strings.TrimSpace(text))
	assert.Empty(t, html)
}

func TestMessageTextFallsBackToHTML(t *testing.T) {
	m := Message{HTMLBody: "<div>Hi&nbsp;there</div><p>Second &amp; last</p>"}
	assert.Equal(t, "Hi there\nSecond & last", m.Text())

	m.TextBody = "plain wins"
	assert.Equal(t, "plain wins", m.Text())
}

func TestStripHTMLCollapsesBlankLines(t *testing.T) {
	got := stripHTML("<p>a</p><br><br><br><p>b</p>")
	assert.NotContains(t, got, "\n\n\n")
	assert.True(t, strings.HasPrefix(got, "a"))
	assert.True(t, strings.HasSuffix(got, "b"))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "hello world", Snippet("  hello\n\n  world \t"))

	long := strings.Repeat("é", SnippetLength+10)
	got := Snippet(long)
	assert.Equal(t, SnippetLength+3, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestTrashCandidates(t *testing.T) {
	assert.Equal(t, trashFolders, trashCandidates(""))

	got := trashCandidates("[Gmail]/Trash")
	assert.Equal(t, "[Gmail]/Trash", got[0])
	assert.Len(t, got, len(trashFolders))
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "a@x.com", formatAddress("", "a@x.com"))
	assert.Equal(t, `"Alice" <a@x.com>`, formatAddress("Alice", "a@x.com"))
}

func TestComposeReplyThreads(t *testing.T) {
	to := &mail.Address{Name: "Alice", Address: "alice@example.com"}
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	raw, msgID, err := composeReply("me@example.com", to, Outgoing{
		To:        "alice@example.com",
		Subject:   "Re: Lunch",
		Body:      "Noon works.",
		InReplyTo: "orig-123@example.com",
	}, now)
	require.NoError(t, err)
	assert.NotEmpty(t, msgID)

	r, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := r.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Re: Lunch", subject)

	inReplyTo, err := r.Header.MsgIDList("In-Reply-To")
	require.NoError(t, err)
	assert.Equal(t, []string{"orig-123@example.com"}, inReplyTo)

	refs, err := r.Header.MsgIDList("References")
	require.NoError(t, err)
	assert.Equal(t, []string{"orig-123@example.com"}, refs)

	date, err := r.Header.Date()
	require.NoError(t, err)
	assert.True(t, date.Equal(now))

	part, err := r.NextPart()
	require.NoError(t, err)
	body := new(bytes.Buffer)
	_, err = body.ReadFrom(part.Body)
	require.NoError(t, err)
	assert.Equal(t, "Noon works.", body.String())
}

func TestComposeReplyWithoutThread(t *testing.T) {
	to := &mail.Address{Address: "bob@example.com"}

	raw, _, err := composeReply("me@example.com", to, Outgoing{Subject: "Re: x", Body: "ok"}, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "In-Reply-To")
}

func TestIsAuthError(t *testing.T) {
	err := fmt.Errorf("listing: %w", &AuthError{Server: "imap:993", Message: "bad password"})
	assert.True(t, IsAuthError(err))
	assert.False(t, IsAuthError(errors.New("other")))
}
