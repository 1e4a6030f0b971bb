// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud talks to the hosted chat model.
//
// A Gateway sends one composed message through a live session handle and
// returns the full reply or a classified error. Backends create the
// provider-side chats that handles wrap: Gemini through the genai SDK, or
// any OpenAI-compatible endpoint through openai-go.
//
// # Key Types
//
//   - Gateway: credential check, pacing and error classification around a send
//   - GeminiBackend: chats backed by google.golang.org/genai
//   - OpenAIBackend: chat completions with client-side history
//   - UpstreamError: any failure reported by, or on the way to, the provider
//
// # Usage
//
//	backend, err := cloud.NewBackend(ctx, cloud.BackendConfig{
//	    Provider: cloud.ProviderGemini,
//	    APIKey:   key,
//	})
//	registry := session.NewRegistry(backend, log)
//	gw := cloud.NewGateway(cloud.GatewayOptions{APIKey: key, Log: log})
//
//	h, err := gw.Open(ctx, registry, conversationID, init)
//	reply, err := gw.Send(ctx, h, message)
//
// No request is ever retried. Keys are never logged; a short fingerprint
// identifies them instead.
package cloud
