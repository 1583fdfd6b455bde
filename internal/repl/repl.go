package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/nhle/mailchat/internal/chat"
	"github.com/nhle/mailchat/internal/model"
)

const helpText = `Type what you want, for example "check my email".
Commands:
  /list          fetch recent emails
  /reply N       draft a reply to email N of the latest list
  /delete N      move email N of the latest list to the trash
  /send [N]      send draft N (default: the latest draft)
  /help          show this help
  /quit          leave`

// LineReader reads one line of input. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
}

// NewReadline opens a readline prompt keeping history in historyFile.
// An empty historyFile disables history.
func NewReadline(historyFile string) (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("opening readline: %w", err)
	}
	return rl, nil
}

// Session is a line-mode chat over an executor. Each action is awaited
// before the next line is read.
type Session struct {
	exec *chat.Executor
	in   LineReader
	out  io.Writer
}

// New creates a session reading from in and writing to out.
func New(exec *chat.Executor, in LineReader, out io.Writer) *Session {
	return &Session{exec: exec, in: in, out: out}
}

// Run prints the transcript so far and serves lines until /quit or end of
// input. An interrupt on an empty line also ends the session.
func (s *Session) Run(ctx context.Context) error {
	for _, msg := range s.exec.Transcript().Snapshot() {
		s.print(msg)
	}

	for {
		line, err := s.in.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if strings.TrimSpace(line) == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("reading input: %w", err)
		}

		quit, err := s.Handle(ctx, line)
		if err != nil {
			fmt.Fprintln(s.out, "error:", err)
			continue
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Handle executes one input line. It reports whether the session should
// end. Errors describe bad input; service failures are already in the
// transcript and printed.
func (s *Session) Handle(ctx context.Context, line string) (bool, error) {
	cmd, err := Parse(line)
	if err != nil {
		return false, err
	}

	switch cmd.Name {
	case CmdQuit:
		return true, nil

	case CmdHelp:
		fmt.Fprintln(s.out, helpText)

	case CmdList:
		s.run(ctx, s.exec.StartListEmails())

	case CmdSay:
		inv, _, err := s.exec.StartSubmit(cmd.Text)
		if errors.Is(err, chat.ErrEmptyInput) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if inv == nil {
			s.printLast()
			return false, nil
		}
		s.run(ctx, inv)

	case CmdReply:
		email, err := s.email(cmd.Index)
		if err != nil {
			return false, err
		}
		s.run(ctx, s.exec.StartGenerateReply(email))

	case CmdDelete:
		email, err := s.email(cmd.Index)
		if err != nil {
			return false, err
		}
		inv := s.exec.StartDeleteEmail(ctx, email.ID, s.confirm)
		if inv == nil {
			fmt.Fprintln(s.out, "Kept the email.")
			return false, nil
		}
		s.run(ctx, inv)

	case CmdSend:
		draft, err := s.draft(cmd.Index)
		if err != nil {
			return false, err
		}
		s.run(ctx, s.exec.StartSendReply(draft))
	}

	return false, nil
}

// run prints the placeholder of inv, waits for it and prints the result.
func (s *Session) run(ctx context.Context, inv *chat.Invocation) {
	for _, msg := range s.exec.Transcript().Snapshot() {
		if msg.IsStatus() && msg.Invocation() == inv.ID {
			s.print(msg)
		}
	}
	s.print(inv.Await(ctx).Message)
}

// confirm asks the delete question on the terminal. Anything but y or
// yes declines.
func (s *Session) confirm(_ context.Context, prompt string) bool {
	fmt.Fprintf(s.out, "%s [y/N]\n", prompt)
	line, err := s.in.Readline()
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// email returns email n (1-based) of the latest list in the transcript.
func (s *Session) email(n int) (model.Email, error) {
	msgs := s.exec.Transcript().Snapshot()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Kind() != model.KindEmailList {
			continue
		}
		emails := msgs[i].Emails()
		if n > len(emails) {
			return model.Email{}, fmt.Errorf("the latest list has %d emails", len(emails))
		}
		return emails[n-1], nil
	}
	return model.Email{}, errors.New(`no emails listed yet; try "check my email"`)
}

// draft returns draft n (1-based, in transcript order), or the latest
// draft when n is 0.
func (s *Session) draft(n int) (model.DraftReply, error) {
	var drafts []model.DraftReply
	for _, msg := range s.exec.Transcript().Snapshot() {
		if d, ok := msg.Draft(); ok {
			drafts = append(drafts, d)
		}
	}

	switch {
	case len(drafts) == 0:
		return model.DraftReply{}, errors.New("no draft to send; use /reply N first")
	case n == 0:
		return drafts[len(drafts)-1], nil
	case n > len(drafts):
		return model.DraftReply{}, fmt.Errorf("there are %d drafts", len(drafts))
	}
	return drafts[n-1], nil
}

func (s *Session) printLast() {
	msgs := s.exec.Transcript().Snapshot()
	if len(msgs) > 0 {
		s.print(msgs[len(msgs)-1])
	}
}

func (s *Session) print(msg model.Message) {
	fmt.Fprintln(s.out, Format(msg))
}

// Format renders a message as plain text.
func Format(msg model.Message) string {
	if msg.IsStatus() {
		return "... " + msg.Content()
	}

	var sb strings.Builder
	switch msg.Role() {
	case model.RoleUser:
		sb.WriteString("you: ")
	default:
		sb.WriteString("assistant: ")
	}
	sb.WriteString(msg.Content())

	switch msg.Kind() {
	case model.KindEmailList:
		for i, e := range msg.Emails() {
			summary := e.Summary
			if summary == "" {
				summary = chat.NoSummary
			}
			fmt.Fprintf(&sb, "\n  [%d] %s  %s\n      %s\n      %s", i+1, e.Sender, e.Date, e.Subject, summary)
		}
	case model.KindDraft:
		if d, ok := msg.Draft(); ok {
			fmt.Fprintf(&sb, "\n  To: %s\n  Subject: %s\n\n", d.To, d.Subject)
			for _, line := range strings.Split(d.Reply, "\n") {
				sb.WriteString("  " + line + "\n")
			}
			sb.WriteString("  (/send to send it)")
		}
	}
	return sb.String()
}
