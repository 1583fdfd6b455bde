package httpclient

// Wire types of the REST backend. JSON names match the backend contract
// and are shared with internal/api.

// GenerateReplyRequest is the body of POST /api/generate-reply.
type GenerateReplyRequest struct {
	EmailID         string `json:"email_id"`
	OriginalContent string `json:"original_content"`
	Instructions    string `json:"instructions,omitempty"`
}

// GenerateReplyResponse is the reply of POST /api/generate-reply.
type GenerateReplyResponse struct {
	Reply string `json:"reply"`
}

// SendRequest is the body of POST /api/send.
type SendRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	ThreadID string `json:"thread_id,omitempty"`
}

// StatusResponse acknowledges send and delete calls.
type StatusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

// ErrorResponse is returned with any non-2xx status.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
