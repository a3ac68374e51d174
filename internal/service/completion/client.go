package completion

import (
	"context"
	"errors"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"

	"github.com/skanda444/VoiceGenie-AI/internal/config"
)

// Replies substituted for model output when no real answer can be produced.
// Both are ordinary displayable strings: the submission flow appends them to
// the conversation exactly like a successful reply.
const (
	// MissingKeyReply is returned verbatim when no API key is configured.
	// No request leaves the process in that case.
	MissingKeyReply = "Sorry, I can't reach the AI service because no API key is configured. Please set OPENAI_API_KEY and try again."

	// FailureReplyFormat wraps the underlying failure reason when the
	// request or response handling goes wrong mid-flight.
	FailureReplyFormat = "Sorry, something went wrong while getting a response (%s). Please try again."
)

// Client turns one user utterance into one reply from the completion
// endpoint. Each call is single-shot and context-free: a fixed model, fixed
// sampling parameters, no history, no streaming, no retry.
type Client struct {
	api *openai.Client
	cfg config.CompletionConfig
}

// NewClient builds a Client from configuration. The client is usable even
// without an API key; Complete degrades to a fixed reply in that case.
func NewClient(cfg config.CompletionConfig) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{api: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

// Complete resolves prompt to displayable reply text. It never returns a
// non-nil error: a missing credential yields MissingKeyReply without any
// network call, and every in-flight failure is folded into a
// FailureReplyFormat string embedding the reason.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		log.Printf("[completion] no API key configured, returning canned reply")
		return MissingKeyReply, nil
	}

	reply, err := c.createCompletion(ctx, prompt)
	if err != nil {
		log.Printf("[completion] request failed: %v", err)
		return fmt.Sprintf(FailureReplyFormat, err), nil
	}

	log.Printf("[completion] generated reply, length=%d", len(reply))
	return reply, nil
}

// createCompletion performs the actual round trip. Unlike Complete it
// reports failures as errors: an upstream rejection becomes a descriptive
// error carrying the HTTP status and the endpoint's own error payload.
func (c *Client) createCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Stream:      false,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("completion endpoint rejected request: status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("completion response carried no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
