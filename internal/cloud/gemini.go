// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/jeranaias/dsamentor/internal/session"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiBackend creates chats on the Gemini API. The chat history lives in
// the SDK chat object.
type GeminiBackend struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiBackend creates a Gemini backend. cfg.BaseURL overrides the API
// endpoint.
func NewGeminiBackend(ctx context.Context, cfg BackendConfig) (*GeminiBackend, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiBackend{
		client: client,
		model:  model,
		config: generationConfig(),
	}, nil
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](temperature),
		TopP:             genai.Ptr[float32](topP),
		TopK:             genai.Ptr[float32](topK),
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: "text/plain",
	}
}

// Model returns the model chats are created with.
func (b *GeminiBackend) Model() string {
	return b.model
}

// NewChat implements session.Backend.
func (b *GeminiBackend) NewChat(ctx context.Context) (session.Chat, error) {
	chat, err := b.client.Chats.Create(ctx, b.model, b.config, nil)
	if err != nil {
		return nil, classify(ProviderGemini, err)
	}
	return &geminiChat{chat: chat}, nil
}

type geminiChat struct {
	chat *genai.Chat
}

func (c *geminiChat) Send(ctx context.Context, text string) (string, error) {
	resp, err := c.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", classify(ProviderGemini, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &UpstreamError{Provider: ProviderGemini, Err: ErrEmptyResponse}
	}
	return resp.Text(), nil
}
