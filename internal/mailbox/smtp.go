package mailbox

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/emersion/go-message/mail"
)

// SMTPSender delivers replies over SMTP.
type SMTPSender struct {
	cfg Config
	now func() time.Time
}

// NewSMTPSender creates a sender for the given mailbox.
func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg, now: time.Now}
}

// Send composes out and delivers it. It returns the generated Message-ID.
func (s *SMTPSender) Send(out Outgoing) (string, error) {
	to, err := mail.ParseAddress(out.To)
	if err != nil {
		return "", fmt.Errorf("parsing recipient %q: %w", out.To, err)
	}

	raw, msgID, err := composeReply(s.cfg.Username, to, out, s.now())
	if err != nil {
		return "", err
	}

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	if s.cfg.TLS {
		err = s.sendWithTLS(addr, to.Address, raw)
	} else {
		err = s.sendWithStartTLS(addr, to.Address, raw)
	}
	if err != nil {
		return "", err
	}
	return msgID, nil
}

// composeReply renders a text/plain reply. A known InReplyTo is carried
// as both In-Reply-To and References so clients thread the reply.
func composeReply(from string, to *mail.Address, out Outgoing, now time.Time) ([]byte, string, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(out.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	if err := h.GenerateMessageID(); err != nil {
		return nil, "", fmt.Errorf("generating Message-ID: %w", err)
	}
	msgID, _ := h.MessageID()

	if out.InReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{out.InReplyTo})
		h.SetMsgIDList("References", []string{out.InReplyTo})
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, "", fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := w.Write([]byte(out.Body)); err != nil {
		return nil, "", fmt.Errorf("writing email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing email body: %w", err)
	}

	return buf.Bytes(), msgID, nil
}

// sendWithTLS sends an email over an implicit TLS connection.
func (s *SMTPSender) sendWithTLS(addr, to string, body []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.SMTPHost})
	if err != nil {
		return fmt.Errorf("TLS dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	return s.deliver(client, to, body)
}

// sendWithStartTLS sends an email using STARTTLS.
func (s *SMTPSender) sendWithStartTLS(addr, to string, body []byte) error {
	conn, err := net.DialTimeout("tcp", addr, 30*time.Second)
	if err != nil {
		return fmt.Errorf("dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
		return fmt.Errorf("SMTP STARTTLS: %w", err)
	}

	return s.deliver(client, to, body)
}

// deliver authenticates and sends one message on an open client.
func (s *SMTPSender) deliver(client *smtp.Client, to string, body []byte) error {
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	if err := client.Auth(auth); err != nil {
		return &AuthError{Server: s.cfg.SMTPHost, Message: err.Error()}
	}

	if err := client.Mail(s.cfg.Username); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := writer.Write(body); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}
