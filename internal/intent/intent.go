package intent

import "strings"

// Action is the classified intent of one user utterance.
type Action int

const (
	Unknown Action = iota
	ListEmails
	ReplyHint
	DeleteHint
)

func (a Action) String() string {
	switch a {
	case ListEmails:
		return "list_emails"
	case ReplyHint:
		return "reply_hint"
	case DeleteHint:
		return "delete_hint"
	default:
		return "unknown"
	}
}

// Canned assistant replies for actions that need no service call.
const (
	ReplyHintText = "To reply, please click the 'Reply' button on a specific email card, " +
		"or tell me which email to reply to."
	DeleteHintText = "To delete, please click the 'Delete' button on a specific email card."
	FallbackText   = "I didn't quite catch that. Try saying 'Show my emails'."
)

// rule maps a keyword set to an action. Rules are checked in order.
type rule struct {
	keywords []string
	action   Action
}

var rules = []rule{
	{keywords: []string{"email", "check", "read"}, action: ListEmails},
	{keywords: []string{"reply", "write"}, action: ReplyHint},
	{keywords: []string{"delete"}, action: DeleteHint},
}

// Classify maps an utterance to an action by case-insensitive substring
// match. The first matching rule wins, so list keywords take priority over
// reply and delete keywords in the same utterance.
func Classify(utterance string) Action {
	text := strings.ToLower(utterance)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.action
			}
		}
	}
	return Unknown
}

// HintText returns the canned reply for actions that need no service
// call, and false for ListEmails.
func HintText(a Action) (string, bool) {
	switch a {
	case ReplyHint:
		return ReplyHintText, true
	case DeleteHint:
		return DeleteHintText, true
	case Unknown:
		return FallbackText, true
	default:
		return "", false
	}
}
