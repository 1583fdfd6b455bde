package model

// Email is the summary of a single inbox message as returned by the
// email service. It is read-only to the chat orchestrator.
type Email struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet"`
	Summary  string `json:"summary,omitempty"`
	ThreadID string `json:"threadId,omitempty"`
}

// OriginalContent returns the text sent to the drafting engine: the
// snippet followed by the summary on its own line. An empty summary
// yields the snippet alone.
func (e Email) OriginalContent() string {
	if e.Summary == "" {
		return e.Snippet
	}
	return e.Snippet + "\n" + e.Summary
}

// DraftReply is an unsent reply body plus the routing fields needed to
// send it. The routing fields are copied from the source email when the
// draft is generated and are never re-derived.
type DraftReply struct {
	Reply    string `json:"reply"`
	EmailID  string `json:"email_id"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	ThreadID string `json:"threadId,omitempty"`
}

// ReplySubject derives the subject line of a reply.
func ReplySubject(subject string) string {
	return "Re: " + subject
}

// NewDraftReply builds a draft for the given email from the generated
// reply body.
func NewDraftReply(email Email, reply string) DraftReply {
	return DraftReply{
		Reply:    reply,
		EmailID:  email.ID,
		To:       email.Sender,
		Subject:  ReplySubject(email.Subject),
		ThreadID: email.ThreadID,
	}
}
