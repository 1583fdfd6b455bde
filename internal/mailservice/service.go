package mailservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/mailchat/internal/model"
)

// SendRequest carries the routing fields and body of an outgoing reply.
type SendRequest struct {
	To       string
	Subject  string
	Body     string
	ThreadID string
}

// Service is the email service contract the chat orchestrator drives.
// The credential is an opaque bearer token attached to every call; the
// service, not the caller, decides whether it is valid.
type Service interface {
	// ListRecent returns the most recent inbox emails, newest first.
	ListRecent(ctx context.Context, credential string) ([]model.Email, error)

	// DraftReply asks the drafting engine for a reply to originalContent
	// in the tone described by instructions.
	DraftReply(
		ctx context.Context,
		credential, emailID, originalContent, instructions string,
	) (string, error)

	// Send delivers a reply.
	Send(ctx context.Context, credential string, req SendRequest) error

	// Trash moves an email to the trash.
	Trash(ctx context.Context, credential, emailID string) error
}

// ServiceError reports that an email service call did not succeed, either
// because of a transport failure or a non-success response.
type ServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": failed"
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err (or any error in its chain) is a
// ServiceError.
func IsServiceError(err error) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr)
}

// AsServiceError returns err unchanged when it already is a ServiceError
// and wraps it otherwise.
func AsServiceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsServiceError(err) {
		return err
	}
	return &ServiceError{Op: op, Err: err}
}

// Operation names used in ServiceError.Op.
const (
	OpListRecent = "list recent"
	OpDraftReply = "draft reply"
	OpSend       = "send"
	OpTrash      = "trash"
)
