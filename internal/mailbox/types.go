package mailbox

import (
	"errors"
	"fmt"
	"time"
)

// AuthError indicates that the mail server rejected the credentials.
type AuthError struct {
	Server  string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Server, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Config holds the IMAP and SMTP settings of one mailbox.
type Config struct {
	IMAPHost    string
	IMAPPort    string
	SMTPHost    string
	SMTPPort    string
	Username    string
	Password    string
	TLS         bool
	TrashFolder string
}

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	From      string
	FromAddr  string
	To        []string
	Date      time.Time
	Flags     []string // \Seen, \Flagged, \Answered, \Deleted
	UID       uint32
}

// Message is an envelope plus its decoded body.
type Message struct {
	Envelope Envelope
	TextBody string
	HTMLBody string
}

// Text returns the plain-text body, falling back to stripped HTML.
func (m Message) Text() string {
	if m.TextBody != "" {
		return m.TextBody
	}
	return stripHTML(m.HTMLBody)
}

// Outgoing is a reply to be delivered over SMTP.
type Outgoing struct {
	To        string
	Subject   string
	Body      string
	InReplyTo string // Message-ID of the original, without angle brackets
}
