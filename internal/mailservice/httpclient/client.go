package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/nhle/mailchat/internal/mailservice"
	"github.com/nhle/mailchat/internal/model"
)

// Client talks to the mail assistant REST backend. Every failure, whether
// transport or non-2xx status, is reported as *mailservice.ServiceError.
// Requests are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

var _ mailservice.Service = (*Client)(nil)

// New creates a client for the backend rooted at baseURL
// (e.g. http://localhost:8001).
func New(baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// ListRecent fetches GET /api/recent.
func (c *Client) ListRecent(ctx context.Context, credential string) ([]model.Email, error) {
	var emails []model.Email
	if err := c.do(ctx, mailservice.OpListRecent, credential,
		http.MethodGet, "/api/recent", nil, &emails); err != nil {
		return nil, err
	}
	return emails, nil
}

// DraftReply posts to /api/generate-reply.
func (c *Client) DraftReply(
	ctx context.Context,
	credential, emailID, originalContent, instructions string,
) (string, error) {
	req := GenerateReplyRequest{
		EmailID:         emailID,
		OriginalContent: originalContent,
		Instructions:    instructions,
	}

	var resp GenerateReplyResponse
	if err := c.do(ctx, mailservice.OpDraftReply, credential,
		http.MethodPost, "/api/generate-reply", req, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}

// Send posts to /api/send.
func (c *Client) Send(ctx context.Context, credential string, req mailservice.SendRequest) error {
	body := SendRequest{
		To:       req.To,
		Subject:  req.Subject,
		Body:     req.Body,
		ThreadID: req.ThreadID,
	}

	var resp StatusResponse
	return c.do(ctx, mailservice.OpSend, credential,
		http.MethodPost, "/api/send", body, &resp)
}

// Trash issues DELETE /api/{id}.
func (c *Client) Trash(ctx context.Context, credential, emailID string) error {
	var resp StatusResponse
	return c.do(ctx, mailservice.OpTrash, credential,
		http.MethodDelete, "/api/"+url.PathEscape(emailID), nil, &resp)
}

// do builds the request, attaches the bearer credential, and decodes the
// JSON response into result.
func (c *Client) do(
	ctx context.Context,
	op, credential, method, path string,
	body, result any,
) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &mailservice.ServiceError{Op: op, Err: fmt.Errorf("marshaling request body: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &mailservice.ServiceError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}

	token := &oauth2.Token{AccessToken: credential, TokenType: "Bearer"}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("email service request failed",
			zap.String("op", op), zap.String("method", method),
			zap.String("path", path), zap.Error(err))
		return &mailservice.ServiceError{Op: op, Err: fmt.Errorf("executing request %s %s: %w", method, path, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &mailservice.ServiceError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}

	c.log.Debug("email service request",
		zap.String("op", op), zap.String("method", method),
		zap.String("path", path), zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Detail != "" {
			return &mailservice.ServiceError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", apiErr.Detail)}
		}
		return &mailservice.ServiceError{Op: op, StatusCode: resp.StatusCode}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &mailservice.ServiceError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return nil
}
