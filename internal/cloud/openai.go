// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/jeranaias/dsamentor/internal/session"
)

const (
	// DefaultOpenAIBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

	// DefaultOpenAIModel is used when no model is configured.
	DefaultOpenAIModel = DefaultGeminiModel
)

// OpenAIBackend talks to any OpenAI-compatible chat completions endpoint.
// The endpoint is stateless, so each chat keeps its history and resends it.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend creates an OpenAI-compatible backend.
func NewOpenAIBackend(cfg BackendConfig) *OpenAIBackend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	options := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		options = append(options, option.WithRequestTimeout(cfg.Timeout))
	}
	client := openai.NewClient(options...)

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIBackend{client: &client, model: model}
}

// Model returns the model requests are sent to.
func (b *OpenAIBackend) Model() string {
	return b.model
}

// NewChat implements session.Backend.
func (b *OpenAIBackend) NewChat(context.Context) (session.Chat, error) {
	return &openAIChat{backend: b}, nil
}

type openAIChat struct {
	backend *OpenAIBackend

	mu      sync.Mutex
	history []openai.ChatCompletionMessageParamUnion
}

// Send appends text to the history and requests a completion. History only
// grows when the request succeeds.
func (c *openAIChat) Send(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(c.history)+1)
	messages = append(messages, c.history...)
	messages = append(messages, openai.UserMessage(text))

	resp, err := c.backend.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       c.backend.model,
		Temperature: openai.Float(temperature),
		TopP:        openai.Float(topP),
		MaxTokens:   openai.Int(maxOutputTokens),
	})
	if err != nil {
		return "", classify(ProviderOpenAI, err)
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Provider: ProviderOpenAI, Err: ErrEmptyResponse}
	}

	content := resp.Choices[0].Message.Content
	c.history = append(messages, openai.AssistantMessage(content))
	return content, nil
}

// Len returns the number of messages in the history.
func (c *openAIChat) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}
