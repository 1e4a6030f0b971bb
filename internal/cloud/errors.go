// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

var (
	// ErrMissingCredential indicates no API key is configured.
	ErrMissingCredential = errors.New("API key not configured")

	// ErrMissingConversationContext indicates a send without a live session
	// bound to a conversation.
	ErrMissingConversationContext = errors.New("chat session not initialized")

	// ErrEmptyResponse indicates the provider answered with no text.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrAuthFailed indicates the provider rejected the key.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates the provider refused the request for quota.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the configured model does not exist.
	ErrModelNotFound = errors.New("model not found")
)

// UpstreamError wraps a failure reported by the provider or the transport.
type UpstreamError struct {
	Provider string
	Status   int
	Err      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (HTTP %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err came from the provider side.
func IsUpstream(err error) bool {
	var up *UpstreamError
	return errors.As(err, &up)
}

// classify wraps err as an UpstreamError, extracting the HTTP status from
// the SDK error types and mapping well-known statuses to sentinels.
// Cancellation is passed through untouched.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var up *UpstreamError
	if errors.As(err, &up) {
		return err
	}

	status := statusOf(err)
	wrapped := err
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		wrapped = fmt.Errorf("%w: %v", ErrAuthFailed, err)
	case http.StatusNotFound:
		wrapped = fmt.Errorf("%w: %v", ErrModelNotFound, err)
	case http.StatusTooManyRequests:
		wrapped = fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return &UpstreamError{Provider: provider, Status: status, Err: wrapped}
}

func statusOf(err error) int {
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return oaiErr.StatusCode
	}
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var gErrPtr *genai.APIError
	if errors.As(err, &gErrPtr) && gErrPtr != nil {
		return gErrPtr.Code
	}
	return 0
}
