package backend

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/nhle/mailchat/internal/mailbox"
	"github.com/nhle/mailchat/internal/mailservice"
	"github.com/nhle/mailchat/internal/model"
	"github.com/nhle/mailchat/internal/store"
)

// dateLayout formats message dates on email cards.
const dateLayout = "Mon, 02 Jan 2006 15:04"

// Mailbox reads and trashes inbox messages.
type Mailbox interface {
	ListRecent(ctx context.Context, limit int) ([]mailbox.Message, error)
	Trash(ctx context.Context, uid uint32) error
}

// Sender delivers outgoing replies and returns the new Message-ID.
type Sender interface {
	Send(out mailbox.Outgoing) (string, error)
}

// Assistant summarizes emails and drafts replies.
type Assistant interface {
	Summarize(ctx context.Context, content string) (string, error)
	DraftReply(ctx context.Context, content, tone string) (string, error)
	Model() string
}

// Backend is the in-process email service: IMAP for reading, SMTP for
// sending, the AI assistant for summaries and drafts, and the sqlite
// store as summary cache. The credential passed to each call is ignored;
// the REST layer in front of it checks bearer tokens.
type Backend struct {
	mailbox     Mailbox
	sender      Sender
	assistant   Assistant
	store       store.Store
	recentLimit int
	log         *zap.Logger
}

var _ mailservice.Service = (*Backend)(nil)

// Options configures a Backend.
type Options struct {
	RecentLimit int
	Logger      *zap.Logger
}

// New wires a Backend from its collaborators.
func New(mb Mailbox, sender Sender, assistant Assistant, s store.Store, opts Options) *Backend {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 5
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Backend{
		mailbox:     mb,
		sender:      sender,
		assistant:   assistant,
		store:       s,
		recentLimit: opts.RecentLimit,
		log:         opts.Logger,
	}
}

// ListRecent returns the newest inbox messages, each with an AI summary.
// A summary that cannot be produced is left empty rather than failing
// the whole listing.
func (b *Backend) ListRecent(ctx context.Context, _ string) ([]model.Email, error) {
	messages, err := b.mailbox.ListRecent(ctx, b.recentLimit)
	if err != nil {
		b.log.Error("listing recent messages", zap.Error(err))
		return nil, mailservice.AsServiceError(mailservice.OpListRecent, err)
	}

	emails := make([]model.Email, 0, len(messages))
	for _, msg := range messages {
		text := msg.Text()
		email := model.Email{
			ID:       strconv.FormatUint(uint64(msg.Envelope.UID), 10),
			Sender:   msg.Envelope.From,
			Subject:  msg.Envelope.Subject,
			Snippet:  mailbox.Snippet(text),
			ThreadID: msg.Envelope.MessageID,
		}
		if !msg.Envelope.Date.IsZero() {
			email.Date = msg.Envelope.Date.Format(dateLayout)
		}
		email.Summary = b.summary(ctx, cacheKey(msg.Envelope), text, email.Snippet)
		emails = append(emails, email)
	}
	return emails, nil
}

// summary returns the cached summary for key, producing and caching one
// on a miss.
func (b *Backend) summary(ctx context.Context, key, body, snippet string) string {
	cached, err := b.store.GetSummary(ctx, key)
	if err == nil {
		return cached.Summary
	}
	if !errors.Is(err, store.ErrNotFound) {
		b.log.Warn("reading summary cache", zap.String("key", key), zap.Error(err))
	}

	content := body
	if content == "" {
		content = snippet
	}

	text, err := b.assistant.Summarize(ctx, content)
	if err != nil {
		b.log.Warn("summarizing message", zap.String("key", key), zap.Error(err))
		return ""
	}

	if err := b.store.PutSummary(ctx, store.Summary{
		MessageID: key,
		Summary:   text,
		Model:     b.assistant.Model(),
	}); err != nil {
		b.log.Warn("writing summary cache", zap.String("key", key), zap.Error(err))
	}
	return text
}

// DraftReply asks the assistant for a reply in the requested tone.
func (b *Backend) DraftReply(
	ctx context.Context,
	_ string, emailID, originalContent, instructions string,
) (string, error) {
	reply, err := b.assistant.DraftReply(ctx, originalContent, instructions)
	if err != nil {
		b.log.Error("drafting reply", zap.String("email_id", emailID), zap.Error(err))
		return "", mailservice.AsServiceError(mailservice.OpDraftReply, err)
	}
	return reply, nil
}

// Send delivers the reply over SMTP and records it.
func (b *Backend) Send(ctx context.Context, _ string, req mailservice.SendRequest) error {
	_, err := b.SendWithID(ctx, req)
	return err
}

// SendWithID is Send that also returns the ID of the recorded reply.
func (b *Backend) SendWithID(ctx context.Context, req mailservice.SendRequest) (string, error) {
	msgID, err := b.sender.Send(mailbox.Outgoing{
		To:        req.To,
		Subject:   req.Subject,
		Body:      req.Body,
		InReplyTo: req.ThreadID,
	})
	if err != nil {
		b.log.Error("sending reply", zap.String("to", req.To), zap.Error(err))
		return "", mailservice.AsServiceError(mailservice.OpSend, err)
	}

	id, err := b.store.RecordSent(ctx, store.SentReply{
		ID:        msgID,
		ThreadID:  req.ThreadID,
		Recipient: req.To,
		Subject:   req.Subject,
	})
	if err != nil {
		// Delivered already; a missing record is not a send failure.
		b.log.Warn("recording sent reply", zap.Error(err))
		return msgID, nil
	}
	return id, nil
}

// Trash moves the message with the given UID to the trash.
func (b *Backend) Trash(ctx context.Context, _ string, emailID string) error {
	uid, err := strconv.ParseUint(emailID, 10, 32)
	if err != nil {
		return &mailservice.ServiceError{
			Op:  mailservice.OpTrash,
			Err: fmt.Errorf("invalid email id %q: %w", emailID, err),
		}
	}

	if err := b.mailbox.Trash(ctx, uint32(uid)); err != nil {
		b.log.Error("trashing message", zap.String("email_id", emailID), zap.Error(err))
		return mailservice.AsServiceError(mailservice.OpTrash, err)
	}
	return nil
}

func cacheKey(env mailbox.Envelope) string {
	if env.MessageID != "" {
		return env.MessageID
	}
	return fmt.Sprintf("uid:%d", env.UID)
}
