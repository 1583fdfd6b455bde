package repl

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailchat/internal/chat"
	"github.com/nhle/mailchat/internal/mailservice"
	"github.com/nhle/mailchat/internal/model"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ListRecent(ctx context.Context, credential string) ([]model.Email, error) {
	args := m.Called(ctx, credential)
	emails, _ := args.Get(0).([]model.Email)
	return emails, args.Error(1)
}

func (m *mockService) DraftReply(
	ctx context.Context,
	credential, emailID, originalContent, instructions string,
) (string, error) {
	args := m.Called(ctx, credential, emailID, originalContent, instructions)
	return args.String(0), args.Error(1)
}

func (m *mockService) Send(ctx context.Context, credential string, req mailservice.SendRequest) error {
	args := m.Called(ctx, credential, req)
	return args.Error(0)
}

func (m *mockService) Trash(ctx context.Context, credential, emailID string) error {
	args := m.Called(ctx, credential, emailID)
	return args.Error(0)
}

// script replays fixed lines, then io.EOF.
type script struct {
	lines []string
}

func (s *script) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func newSession(svc mailservice.Service, lines ...string) (*Session, *bytes.Buffer, *chat.Executor) {
	var out bytes.Buffer
	exec := chat.New(svc, "tok", chat.NewTranscript(), chat.Options{})
	return New(exec, &script{lines: lines}, &out), &out, exec
}

var inbox = []model.Email{
	{ID: "11", Sender: "alice@example.com", Subject: "Lunch", Snippet: "Lunch today?", Summary: "Alice asks about lunch.", ThreadID: "<t1@x>"},
	{ID: "12", Sender: "bob@example.com", Subject: "Report", Snippet: "See attached."},
}

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"check my email", Command{Name: CmdSay, Text: "check my email"}},
		{"  ", Command{Name: CmdSay, Text: ""}},
		{"/reply 2", Command{Name: CmdReply, Index: 2}},
		{"/DELETE 1", Command{Name: CmdDelete, Index: 1}},
		{"/send", Command{Name: CmdSend}},
		{"/send 3", Command{Name: CmdSend, Index: 3}},
		{"/ls", Command{Name: CmdList}},
		{"/?", Command{Name: CmdHelp}},
		{"/exit", Command{Name: CmdQuit}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"/reply", ErrBadIndex},
		{"/reply x", ErrBadIndex},
		{"/delete 0", ErrBadIndex},
		{"/send -1", ErrBadIndex},
		{"/archive 1", ErrUnknownCommand},
		{"/", ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := Parse(tt.line)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunListReplySend(t *testing.T) {
	svc := new(mockService)
	svc.On("ListRecent", mock.Anything, "tok").Return(inbox, nil)
	svc.On("DraftReply", mock.Anything, "tok", "11", "Lunch today?\nAlice asks about lunch.", chat.DefaultInstructions).
		Return("Yes, noon works.", nil)
	svc.On("Send", mock.Anything, "tok", mailservice.SendRequest{
		To:       "alice@example.com",
		Subject:  "Re: Lunch",
		Body:     "Yes, noon works.",
		ThreadID: "<t1@x>",
	}).Return(nil)

	s, out, _ := newSession(svc, "check my email", "/reply 1", "/send", "/quit")
	require.NoError(t, s.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, chat.Greeting)
	assert.Contains(t, text, "... "+chat.FetchingStatus)
	assert.Contains(t, text, "Here are your last 2 emails:")
	assert.Contains(t, text, "[1] alice@example.com")
	assert.Contains(t, text, chat.NoSummary)
	assert.Contains(t, text, "Subject: Re: Lunch")
	assert.Contains(t, text, chat.ReplySent)
	svc.AssertExpectations(t)
}

func TestDeleteAsksFirst(t *testing.T) {
	svc := new(mockService)
	svc.On("ListRecent", mock.Anything, "tok").Return(inbox, nil)
	svc.On("Trash", mock.Anything, "tok", "12").Return(nil)

	s, out, _ := newSession(svc, "/list", "/delete 2", "n", "/delete 2", "yes")
	require.NoError(t, s.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, chat.DeleteQuestion+" [y/N]")
	assert.Contains(t, text, "Kept the email.")
	assert.Contains(t, text, chat.EmailDeleted)
	svc.AssertNumberOfCalls(t, "Trash", 1)
}

func TestHandleInputErrors(t *testing.T) {
	s, _, exec := newSession(new(mockService))
	ctx := context.Background()

	_, err := s.Handle(ctx, "/reply 1")
	assert.ErrorContains(t, err, "no emails listed yet")

	_, err = s.Handle(ctx, "/send")
	assert.ErrorContains(t, err, "no draft")

	_, err = s.Handle(ctx, "/frobnicate")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	assert.Equal(t, 1, exec.Transcript().Len())
}

func TestHandleHintPrintsReply(t *testing.T) {
	s, out, exec := newSession(new(mockService))

	quit, err := s.Handle(context.Background(), "delete")
	require.NoError(t, err)
	assert.False(t, quit)

	snap := exec.Transcript().Snapshot()
	assert.Contains(t, out.String(), snap[len(snap)-1].Content())
}

func TestRunFailureIsPrinted(t *testing.T) {
	svc := new(mockService)
	svc.On("ListRecent", mock.Anything, "tok").
		Return(nil, &mailservice.ServiceError{Op: "list recent", StatusCode: 502})

	s, out, _ := newSession(svc, "read inbox")
	require.NoError(t, s.Run(context.Background()))
	assert.Contains(t, out.String(), chat.FetchFailed)
}

type interruptReader struct{}

func (interruptReader) Readline() (string, error) { return "", readline.ErrInterrupt }

func TestRunInterruptOnEmptyLineEnds(t *testing.T) {
	exec := chat.New(new(mockService), "tok", chat.NewTranscript(), chat.Options{})
	s := New(exec, interruptReader{}, io.Discard)
	assert.NoError(t, s.Run(context.Background()))
}
