// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm wraps the OpenAI-compatible chat completion API.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/morganforge/parley/internal/model"
)

// ErrEmptyResponse is returned when the API answers with no choices.
var ErrEmptyResponse = fmt.Errorf("completion returned no choices")

// =============================================================================
// CLIENT TYPE
// =============================================================================

// Reply is the outcome of one successful completion call.
type Reply struct {
	Content string
	Usage   model.Usage
}

// Client performs blocking chat completions. One call at a time, no retry:
// a failed call surfaces immediately so the user can resend.
type Client struct {
	api *openai.Client
}

// NewClient creates a completion client. An empty baseURL keeps the
// library default endpoint; timeout bounds the whole HTTP exchange.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{api: openai.NewClientWithConfig(cfg)}
}

// =============================================================================
// COMPLETION
// =============================================================================

// BuildMessages assembles the message list sent to the API: the persona as
// the system message, the trailing history (roles and content only), and
// the new prompt as the final user message.
func BuildMessages(persona string, history []model.Message, prompt string) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: persona,
	})
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	return msgs
}

// Complete sends one chat completion request and blocks until the reply
// arrives or ctx expires. All transport and API failures come back as a
// single wrapped error. A response without a usage block yields a zero
// Usage, not an error.
func (c *Client) Complete(ctx context.Context, persona string, history []model.Message, prompt, modelID string) (*Reply, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    modelID,
		Messages: BuildMessages(persona, history, prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return &Reply{
		Content: resp.Choices[0].Message.Content,
		Usage: model.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
