// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/dsamentor/internal/session"
)

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Providers lists the supported provider names.
var Providers = []string{ProviderGemini, ProviderOpenAI}

// Fixed generation settings. They are not user-configurable.
const (
	temperature     = 0.7
	topP            = 0.95
	topK            = 40
	maxOutputTokens = 4096
)

// BackendConfig selects and configures a backend.
type BackendConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// ValidateProvider reports whether name is a supported provider. An empty
// name selects Gemini.
func ValidateProvider(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderGemini, ProviderOpenAI:
		return nil
	}
	return fmt.Errorf("unknown provider %q (valid: %s)", name, strings.Join(Providers, ", "))
}

// NewBackend builds the backend named by cfg.Provider. Without an API key
// it returns a backend whose chats all fail with ErrMissingCredential, so
// the application can still start.
func NewBackend(ctx context.Context, cfg BackendConfig) (session.Backend, error) {
	if err := ValidateProvider(cfg.Provider); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return unconfigured{}, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI:
		return NewOpenAIBackend(cfg), nil
	default:
		return NewGeminiBackend(ctx, cfg)
	}
}

type unconfigured struct{}

func (unconfigured) NewChat(context.Context) (session.Chat, error) {
	return nil, ErrMissingCredential
}
