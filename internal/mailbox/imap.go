package mailbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"slices"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

// trashFolders are tried in order when no trash folder is configured.
var trashFolders = []string{
	"Trash", "[Gmail]/Trash", "Deleted Items", "Deleted Messages", "INBOX.Trash",
}

// IMAPClient wraps go-imap v2 for reading and trashing inbox messages.
// Every call opens its own connection, which is closed when the call's
// context is done.
type IMAPClient struct {
	cfg Config
	log *zap.Logger
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(cfg Config, log *zap.Logger) *IMAPClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &IMAPClient{cfg: cfg, log: log}
}

// connect establishes a connection to the IMAP server, authenticates,
// and selects INBOX. The caller must call the returned func to log out.
func (c *IMAPClient) connect(ctx context.Context) (*imapclient.Client, func(), error) {
	addr := net.JoinHostPort(c.cfg.IMAPHost, c.cfg.IMAPPort)

	conn, err := c.dial(ctx, addr)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	var client *imapclient.Client
	if c.cfg.TLS {
		client = imapclient.New(conn, nil)
	} else {
		client, err = imapclient.NewStartTLS(conn, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: c.cfg.IMAPHost},
		})
		if err != nil {
			stop()
			_ = conn.Close()
			return nil, nil, fmt.Errorf("connecting to IMAP %s: %w", addr, ctxErr(ctx, err))
		}
	}

	done := func() {
		_ = client.Logout().Wait()
		stop()
		_ = client.Close()
	}

	if err := client.Login(c.cfg.Username, c.cfg.Password).Wait(); err != nil {
		done()
		if ctx.Err() != nil {
			return nil, nil, fmt.Errorf("logging in to IMAP %s: %w", addr, ctx.Err())
		}
		return nil, nil, &AuthError{
			Server:  addr,
			Message: fmt.Sprintf("authentication failed for %s: %v", c.cfg.Username, err),
		}
	}

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		done()
		return nil, nil, fmt.Errorf("selecting INBOX: %w", ctxErr(ctx, err))
	}

	return client, done, nil
}

// dial opens the TCP connection, with implicit TLS when configured.
func (c *IMAPClient) dial(ctx context.Context, addr string) (net.Conn, error) {
	if !c.cfg.TLS {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}
	d := &tls.Dialer{Config: &tls.Config{
		ServerName: c.cfg.IMAPHost,
		NextProtos: []string{"imap"},
	}}
	return d.DialContext(ctx, "tcp", addr)
}

// ctxErr prefers the context error when ctx ended the operation.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// ListRecent returns the newest limit messages of INBOX with their
// decoded bodies, newest first.
func (c *IMAPClient) ListRecent(ctx context.Context, limit int) ([]Message, error) {
	client, done, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", ctxErr(ctx, err))
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	messages := c.collect(func() (collector, bool) {
		msg := fetchCmd.Next()
		return msg, msg != nil
	}, bodySection)

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", ctxErr(ctx, err))
	}

	slices.SortFunc(messages, func(a, b Message) int {
		return int(b.Envelope.UID) - int(a.Envelope.UID)
	})
	return messages, nil
}

// collector is one fetched message. *imapclient.FetchMessageData
// satisfies it.
type collector interface {
	Collect() (*imapclient.FetchMessageBuffer, error)
}

// collect buffers every message yielded by next. A message that fails to
// buffer is logged and skipped so the rest of the list still loads.
func (c *IMAPClient) collect(next func() (collector, bool), section *imap.FetchItemBodySection) []Message {
	var messages []Message
	for {
		msg, ok := next()
		if !ok {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			c.log.Warn("skipping message that failed to fetch", zap.Error(err))
			continue
		}
		messages = append(messages, messageFromBuffer(buf, section))
	}
	return messages
}

// Trash moves the message to the trash mailbox. It tries the configured
// folder, then common trash folder names, and finally falls back to
// marking the message as deleted.
func (c *IMAPClient) Trash(ctx context.Context, uid uint32) error {
	client, done, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer done()

	uidSet := imap.UIDSetNum(imap.UID(uid))

	for _, folder := range trashCandidates(c.cfg.TrashFolder) {
		if _, err := client.Move(uidSet, folder).Wait(); err == nil {
			return nil
		}
	}

	return client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil).Close()
}

func trashCandidates(configured string) []string {
	if configured == "" {
		return trashFolders
	}
	out := []string{configured}
	for _, f := range trashFolders {
		if f != configured {
			out = append(out, f)
		}
	}
	return out
}

func messageFromBuffer(buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection) Message {
	msg := Message{Envelope: envelopeFromBuffer(buf)}
	if raw := buf.FindBodySection(section); raw != nil {
		msg.TextBody, msg.HTMLBody = parseMIMEBody(raw)
	}
	return msg
}

// envelopeFromBuffer extracts an Envelope from a FetchMessageBuffer.
func envelopeFromBuffer(buf *imapclient.FetchMessageBuffer) Envelope {
	env := Envelope{
		UID: uint32(buf.UID),
	}

	if buf.Envelope != nil {
		env.MessageID = buf.Envelope.MessageID
		env.Subject = buf.Envelope.Subject
		env.Date = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			env.FromAddr = from.Addr()
			env.From = formatAddress(from.Name, env.FromAddr)
		}

		for _, to := range buf.Envelope.To {
			env.To = append(env.To, to.Addr())
		}
	}

	for _, flag := range buf.Flags {
		env.Flags = append(env.Flags, string(flag))
	}

	return env
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return (&mail.Address{Name: name, Address: addr}).String()
}

// parseMIMEBody parses a raw RFC 5322 message using go-message and
// extracts the text/plain and text/html bodies. Attachments are skipped.
func parseMIMEBody(raw []byte) (textBody, htmlBody string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Not MIME: treat the whole thing as plain text.
		return string(raw), ""
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && textBody == "":
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		}
	}

	return textBody, htmlBody
}
