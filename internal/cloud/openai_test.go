// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type completionServer struct {
	mu       sync.Mutex
	requests []map[string]any
	status   int
	content  string
}

func (s *completionServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.mu.Lock()
	s.requests = append(s.requests, body)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if s.status != 0 && s.status != http.StatusOK {
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`))
		return
	}
	resp := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   body["model"],
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": s.content},
		}},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *completionServer) messageCounts() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	for _, r := range s.requests {
		msgs, _ := r["messages"].([]any)
		out = append(out, len(msgs))
	}
	return out
}

func TestOpenAIBackend_KeepsHistory(t *testing.T) {
	srv := &completionServer{content: "think about complements"}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	b := NewOpenAIBackend(BackendConfig{APIKey: "k", BaseURL: ts.URL, Model: "test-model"})
	chat, err := b.NewChat(context.Background())
	require.NoError(t, err)

	reply, err := chat.Send(context.Background(), "system prompt")
	require.NoError(t, err)
	assert.Equal(t, "think about complements", reply)

	_, err = chat.Send(context.Background(), "and the doubt")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, srv.messageCounts())
	assert.Equal(t, 4, chat.(*openAIChat).Len())
	assert.Equal(t, "test-model", srv.requests[0]["model"])
}

func TestOpenAIBackend_ErrorStatus(t *testing.T) {
	srv := &completionServer{status: http.StatusTooManyRequests}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	b := NewOpenAIBackend(BackendConfig{APIKey: "k", BaseURL: ts.URL})
	chat, err := b.NewChat(context.Background())
	require.NoError(t, err)

	_, err = chat.Send(context.Background(), "hi")
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, http.StatusTooManyRequests, up.Status)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Len(t, srv.requests, 1, "requests are never retried")
	assert.Equal(t, 0, chat.(*openAIChat).Len(), "failed sends leave history unchanged")
}

func TestOpenAIBackend_Defaults(t *testing.T) {
	b := NewOpenAIBackend(BackendConfig{APIKey: "k"})
	assert.Equal(t, DefaultOpenAIModel, b.Model())
}
