package model

import (
	"errors"
	"fmt"
)

// Role identifies the sender of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Kind determines how a message is rendered and which payload it carries.
type Kind string

const (
	KindText      Kind = "text"
	KindEmailList Kind = "email-list"
	KindDraft     Kind = "draft"
	KindStatus    Kind = "status"
)

var (
	// ErrPayloadMismatch is returned when a payload does not fit the kind.
	ErrPayloadMismatch = errors.New("payload does not match message kind")

	// ErrUnknownKind is returned for a kind outside the fixed set.
	ErrUnknownKind = errors.New("unknown message kind")

	// ErrUnknownRole is returned for a role outside the fixed set.
	ErrUnknownRole = errors.New("unknown message role")
)

// Message is one transcript entry. Fields are unexported so a message
// cannot change after it has been appended; payload accessors return
// copies.
type Message struct {
	role       Role
	kind       Kind
	content    string
	emails     []Email
	draft      *DraftReply
	invocation string
}

// NewMessage builds a message of any kind, rejecting payloads that do not
// match: text and status take no payload, email-list takes []Email and
// draft takes a DraftReply (or a non-nil *DraftReply).
func NewMessage(role Role, kind Kind, content string, payload any) (Message, error) {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	msg := Message{role: role, kind: kind, content: content}

	switch kind {
	case KindText, KindStatus:
		if payload != nil {
			return Message{}, fmt.Errorf("%w: %s takes no payload, got %T", ErrPayloadMismatch, kind, payload)
		}
	case KindEmailList:
		emails, ok := payload.([]Email)
		if !ok {
			return Message{}, fmt.Errorf("%w: %s wants []Email, got %T", ErrPayloadMismatch, kind, payload)
		}
		msg.emails = cloneEmails(emails)
	case KindDraft:
		switch d := payload.(type) {
		case DraftReply:
			msg.draft = &d
		case *DraftReply:
			if d == nil {
				return Message{}, fmt.Errorf("%w: %s wants a draft, got nil", ErrPayloadMismatch, kind)
			}
			cp := *d
			msg.draft = &cp
		default:
			return Message{}, fmt.Errorf("%w: %s wants DraftReply, got %T", ErrPayloadMismatch, kind, payload)
		}
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return msg, nil
}

// NewText builds a plain text message.
func NewText(role Role, content string) Message {
	return Message{role: role, kind: KindText, content: content}
}

// NewStatus builds an assistant status placeholder tagged with the
// invocation that created it.
func NewStatus(content, invocation string) Message {
	return Message{
		role:       RoleAssistant,
		kind:       KindStatus,
		content:    content,
		invocation: invocation,
	}
}

// NewEmailList builds an assistant message carrying a list of emails.
func NewEmailList(content string, emails []Email) Message {
	return Message{
		role:    RoleAssistant,
		kind:    KindEmailList,
		content: content,
		emails:  cloneEmails(emails),
	}
}

// NewDraft builds an assistant message carrying a draft reply.
func NewDraft(content string, draft DraftReply) Message {
	return Message{
		role:    RoleAssistant,
		kind:    KindDraft,
		content: content,
		draft:   &draft,
	}
}

// Role returns who authored the message.
func (m Message) Role() Role { return m.role }

// Kind returns the payload variant of the message.
func (m Message) Kind() Kind { return m.kind }

// Content returns the message text.
func (m Message) Content() string { return m.content }

// IsStatus reports whether the message is an in-flight placeholder.
func (m Message) IsStatus() bool { return m.kind == KindStatus }

// Invocation returns the ID of the invocation that owns a status
// placeholder, or "" for other messages.
func (m Message) Invocation() string { return m.invocation }

// Emails returns a copy of the email-list payload, or nil for other kinds.
func (m Message) Emails() []Email {
	return cloneEmails(m.emails)
}

// Draft returns the draft payload and whether the message carries one.
func (m Message) Draft() (DraftReply, bool) {
	if m.draft == nil {
		return DraftReply{}, false
	}
	return *m.draft, true
}

func cloneEmails(emails []Email) []Email {
	if emails == nil {
		return nil
	}
	out := make([]Email, len(emails))
	copy(out, emails)
	return out
}
