package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mailchat/internal/intent"
	"github.com/nhle/mailchat/internal/mailservice"
	"github.com/nhle/mailchat/internal/model"
	"github.com/nhle/mailchat/internal/transcript"
)

// ErrEmptyInput is returned by Submit for blank utterances. Nothing is
// appended to the transcript in that case.
var ErrEmptyInput = errors.New("empty input")

// StatusPolicy selects which status placeholders a settling action removes.
type StatusPolicy int

const (
	// ClearAll removes every placeholder present at settlement, including
	// those of other invocations still in flight.
	ClearAll StatusPolicy = iota

	// ClearOwn removes only the placeholder of the settling invocation.
	ClearOwn
)

// ParseStatusPolicy maps the config value ("all" or "own") to a policy.
func ParseStatusPolicy(s string) (StatusPolicy, error) {
	switch s {
	case "", model.StatusPolicyAll:
		return ClearAll, nil
	case model.StatusPolicyOwn:
		return ClearOwn, nil
	default:
		return ClearAll, fmt.Errorf("unknown status policy %q", s)
	}
}

// Gate is a blocking yes/no confirmation asked right before a destructive
// call is dispatched.
type Gate func(ctx context.Context, prompt string) bool

// Answer returns a gate with a fixed answer, for callers that collected
// the confirmation before starting the action.
func Answer(yes bool) Gate {
	return func(context.Context, string) bool { return yes }
}

// Options tunes an Executor. The zero value is valid.
type Options struct {
	Policy StatusPolicy

	// Instructions is the tone sent to the drafting engine. Empty means
	// DefaultInstructions.
	Instructions string

	// Timeout bounds each service call. Zero means no timeout, in which
	// case a hung call leaves its placeholder visible.
	Timeout time.Duration

	// NewID generates invocation IDs. Defaults to uuid.NewString.
	NewID func() string
}

// Executor turns user intents into email service calls and records every
// step in the transcript.
type Executor struct {
	svc          mailservice.Service
	credential   string
	store        *transcript.Store
	policy       StatusPolicy
	instructions string
	timeout      time.Duration
	newID        func() string
}

// New creates an executor writing to store. The credential is passed
// unchanged to every service call.
func New(
	svc mailservice.Service,
	credential string,
	store *transcript.Store,
	opts Options,
) *Executor {
	if opts.Instructions == "" {
		opts.Instructions = DefaultInstructions
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Executor{
		svc:          svc,
		credential:   credential,
		store:        store,
		policy:       opts.Policy,
		instructions: opts.Instructions,
		timeout:      opts.Timeout,
		newID:        opts.NewID,
	}
}

// NewTranscript returns a transcript seeded with the greeting.
func NewTranscript() *transcript.Store {
	return transcript.New(model.NewText(model.RoleAssistant, Greeting))
}

// Transcript returns the store the executor writes to.
func (e *Executor) Transcript() *transcript.Store {
	return e.store
}

// Outcome is the settled result of one invocation.
type Outcome struct {
	// Message is the terminal message appended to the transcript.
	Message model.Message

	// Err is the service failure, if any. It has already been converted
	// into Message and needs no further handling.
	Err error
}

// Invocation is one started action. Its status placeholder is already in
// the transcript; Await performs the service call and settles it.
type Invocation struct {
	ID     string
	Action string

	exec    *Executor
	call    func(ctx context.Context) (model.Message, error)
	failure string

	once    sync.Once
	outcome Outcome
}

// Await performs the service call and replaces the placeholder with the
// terminal message. Repeated calls return the first outcome without
// touching the transcript again.
func (inv *Invocation) Await(ctx context.Context) Outcome {
	inv.once.Do(func() {
		callCtx := ctx
		if inv.exec.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, inv.exec.timeout)
			defer cancel()
		}

		msg, err := inv.call(callCtx)
		if err != nil {
			msg = model.NewText(model.RoleAssistant, inv.failure)
		}

		inv.exec.settle(inv.ID, msg)
		inv.outcome = Outcome{Message: msg, Err: err}
	})
	return inv.outcome
}

// start appends the status placeholder and returns the pending invocation.
func (e *Executor) start(
	action, status, failure string,
	call func(ctx context.Context) (model.Message, error),
) *Invocation {
	inv := &Invocation{
		ID:      e.newID(),
		Action:  action,
		exec:    e,
		call:    call,
		failure: failure,
	}
	e.store.Append(model.NewStatus(status, inv.ID))
	return inv
}

func (e *Executor) settle(invocation string, msg model.Message) {
	pred := transcript.IsStatus
	if e.policy == ClearOwn {
		pred = transcript.IsStatusOf(invocation)
	}
	e.store.Replace(pred, msg)
}

// StartSubmit handles a free-text utterance. Blank input is rejected with
// ErrEmptyInput. Otherwise the utterance is appended as a user message and
// classified: hints are answered at once and a nil invocation is returned;
// ListEmails returns the started invocation.
func (e *Executor) StartSubmit(utterance string) (*Invocation, intent.Action, error) {
	if strings.TrimSpace(utterance) == "" {
		return nil, intent.Unknown, ErrEmptyInput
	}

	e.store.Append(model.NewText(model.RoleUser, utterance))

	action := intent.Classify(utterance)
	if text, ok := intent.HintText(action); ok {
		e.store.Append(model.NewText(model.RoleAssistant, text))
		return nil, action, nil
	}

	return e.StartListEmails(), action, nil
}

// Submit is StartSubmit followed by Await.
func (e *Executor) Submit(ctx context.Context, utterance string) (intent.Action, error) {
	inv, action, err := e.StartSubmit(utterance)
	if err != nil {
		return action, err
	}
	if inv != nil {
		inv.Await(ctx)
	}
	return action, nil
}

// StartListEmails begins fetching the recent emails.
func (e *Executor) StartListEmails() *Invocation {
	return e.start("list_emails", FetchingStatus, FetchFailed,
		func(ctx context.Context) (model.Message, error) {
			emails, err := e.svc.ListRecent(ctx, e.credential)
			if err != nil {
				return model.Message{}, err
			}
			return model.NewEmailList(fmt.Sprintf(EmailListFormat, len(emails)), emails), nil
		})
}

// ListEmails fetches the recent emails and waits for the result.
func (e *Executor) ListEmails(ctx context.Context) Outcome {
	return e.StartListEmails().Await(ctx)
}

// StartGenerateReply begins drafting a reply to email.
func (e *Executor) StartGenerateReply(email model.Email) *Invocation {
	instructions := e.instructions
	return e.start("generate_reply", draftingStatus(email.Subject), DraftFailed,
		func(ctx context.Context) (model.Message, error) {
			reply, err := e.svc.DraftReply(
				ctx, e.credential, email.ID, email.OriginalContent(), instructions,
			)
			if err != nil {
				return model.Message{}, err
			}
			return model.NewDraft(DraftReady, model.NewDraftReply(email, reply)), nil
		})
}

// GenerateReply drafts a reply to email and waits for the result.
func (e *Executor) GenerateReply(ctx context.Context, email model.Email) Outcome {
	return e.StartGenerateReply(email).Await(ctx)
}

// StartSendReply begins sending draft exactly as it was generated.
func (e *Executor) StartSendReply(draft model.DraftReply) *Invocation {
	req := mailservice.SendRequest{
		To:       draft.To,
		Subject:  draft.Subject,
		Body:     draft.Reply,
		ThreadID: draft.ThreadID,
	}
	return e.start("send_reply", SendingStatus, SendFailed,
		func(ctx context.Context) (model.Message, error) {
			if err := e.svc.Send(ctx, e.credential, req); err != nil {
				return model.Message{}, err
			}
			return model.NewText(model.RoleAssistant, ReplySent), nil
		})
}

// SendReply sends draft and waits for the result.
func (e *Executor) SendReply(ctx context.Context, draft model.DraftReply) Outcome {
	return e.StartSendReply(draft).Await(ctx)
}

// StartDeleteEmail asks gate for confirmation and, if granted, begins
// moving the email to the trash. A declined (or nil) gate returns nil
// without touching the transcript or the service.
func (e *Executor) StartDeleteEmail(ctx context.Context, emailID string, gate Gate) *Invocation {
	if gate == nil || !gate(ctx, DeleteQuestion) {
		return nil
	}

	return e.start("delete_email", DeletingStatus, DeleteFailed,
		func(ctx context.Context) (model.Message, error) {
			if err := e.svc.Trash(ctx, e.credential, emailID); err != nil {
				return model.Message{}, err
			}
			return model.NewText(model.RoleAssistant, EmailDeleted), nil
		})
}

// DeleteEmail confirms, trashes the email and waits for the result. The
// boolean reports whether the gate allowed the call.
func (e *Executor) DeleteEmail(ctx context.Context, emailID string, gate Gate) (Outcome, bool) {
	inv := e.StartDeleteEmail(ctx, emailID, gate)
	if inv == nil {
		return Outcome{}, false
	}
	return inv.Await(ctx), true
}
