package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024
	defaultBaseURL   = "https://api.anthropic.com"
	requestTimeout   = 60 * time.Second

	// maxContentRunes bounds the email text included in a prompt.
	maxContentRunes = 5000
)

// NoContentSummary is returned by Summarize for empty input without
// calling the API.
const NoContentSummary = "No content to summarize."

// Assistant summarizes emails and drafts replies through the Claude
// Messages API. It holds no conversation state; every call is a single
// user turn.
type Assistant struct {
	client    anthropic.Client
	baseURL   string
	model     string
	maxTokens int
}

// Config holds the Claude API settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int

	// Options are appended to the client options, e.g. option.WithMaxRetries.
	Options []option.RequestOption
}

// New creates a new AI assistant with the given configuration.
func New(cfg Config) *Assistant {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(requestTimeout),
	}
	opts = append(opts, cfg.Options...)

	return &Assistant{
		client:    anthropic.NewClient(opts...),
		baseURL:   baseURL,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Model returns the model name sent with every request.
func (a *Assistant) Model() string {
	return a.model
}

// Summarize returns a two-sentence summary of content.
func (a *Assistant) Summarize(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return NoContentSummary, nil
	}

	prompt := "Summarize this email in 2 sentences:\n\n" + truncate(content, maxContentRunes)
	text, err := a.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarizing email: %w", err)
	}
	return text, nil
}

// DraftReply returns a short reply to content written in the given tone.
func (a *Assistant) DraftReply(ctx context.Context, content, tone string) (string, error) {
	if tone == "" {
		tone = "positive"
	}

	prompt := fmt.Sprintf(
		"Draft a short, professional reply to this email. Tone: %s.\n\nEmail:\n%s",
		tone, truncate(content, maxContentRunes),
	)
	text, err := a.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("drafting reply: %w", err)
	}
	return text, nil
}

// complete sends a single user message and returns the joined text blocks
// of the response.
func (a *Assistant) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
