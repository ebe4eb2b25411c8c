// Package llm is the boundary to the text-completion service.
//
// The service is any OpenAI-compatible chat completions gateway. Callers
// submit role-tagged turns plus sampling parameters and get one reply
// back, or an error that carries the upstream HTTP status. Nothing here
// retries or adds a client-side timeout: a failed call surfaces as-is.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/HendryAvila/analyser/internal/conversation"
	"github.com/HendryAvila/analyser/internal/prompt"
	openai "github.com/sashabaranov/go-openai"
)

// Sampling presets used by the advisor and the document assembler.
const (
	ChatTemperature     float32 = 0.7
	ChatMaxTokens               = 2000
	DocumentTemperature float32 = 0.3
	DocumentMaxTokens           = 4000
	AnalysisTemperature float32 = 0.7
)

// Request is one completion call.
type Request struct {
	Messages    []prompt.Turn
	Temperature float32
	// MaxTokens bounds the reply length; 0 leaves it to the service.
	MaxTokens int
}

// Usage reports token accounting from the service.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the generated reply.
type Response struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Completer submits turns to the completion service.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Config locates the completion service.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client is a Completer backed by an OpenAI-compatible gateway.
type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a Client. A missing API key yields a client whose
// every call fails with ErrNotConfigured, so the rest of the server can
// still start.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{model: cfg.Model, logger: logger}
	if cfg.APIKey == "" {
		return c
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	c.api = openai.NewClientWithConfig(oc)
	return c
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c.api != nil
}

// Complete sends req and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if c.api == nil {
		c.logger.Error("completion service is not configured")
		return nil, ErrNotConfigured
	}

	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, t := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: t.Role, Content: t.Content}
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		mapped := classify(err)
		var se *StatusError
		if errors.As(mapped, &se) {
			c.logger.Error("completion request failed",
				"status", se.Status,
				"detail", conversation.Truncate(se.Detail, 200))
		} else {
			c.logger.Error("completion request failed", "error", err)
		}
		return nil, mapped
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Error("completion response had no content")
		return nil, ErrEmptyResponse
	}

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// classify converts a go-openai error into a StatusError when the
// service answered with a status code.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return newStatusError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return newStatusError(reqErr.HTTPStatusCode, string(reqErr.Body))
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

// Compile-time check.
var _ Completer = (*Client)(nil)
