// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jeranaias/dsamentor/internal/session"
)

const (
	// DefaultTimeout bounds a single send, including session initialization.
	DefaultTimeout = 60 * time.Second

	// DefaultRequestsPerMinute paces every provider call, session
	// initialization messages included, to the free tier.
	DefaultRequestsPerMinute = 15
)

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	// Provider names the backend in errors and logs.
	Provider string

	APIKey string

	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration

	// RequestsPerMinute paces calls. Zero means DefaultRequestsPerMinute,
	// negative disables pacing.
	RequestsPerMinute int

	Log logrus.FieldLogger
}

// Gateway is the single path from the application to the model.
type Gateway struct {
	provider string
	apiKey   string
	timeout  time.Duration
	limiter  *rate.Limiter
	log      logrus.FieldLogger
}

// NewGateway creates a gateway. A missing key is not an error here; every
// call reports ErrMissingCredential instead.
func NewGateway(opts GatewayOptions) *Gateway {
	if opts.Provider == "" {
		opts.Provider = ProviderGemini
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestsPerMinute == 0 {
		opts.RequestsPerMinute = DefaultRequestsPerMinute
	}
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		opts.Log = l
	}
	return &Gateway{
		provider: opts.Provider,
		apiKey:   strings.TrimSpace(opts.APIKey),
		timeout:  opts.Timeout,
		limiter:  rate.NewLimiter(limit, 1),
		log:      opts.Log.WithField("provider", opts.Provider),
	}
}

// Configured reports whether an API key is set.
func (g *Gateway) Configured() bool {
	return g.apiKey != ""
}

// Provider returns the backend name.
func (g *Gateway) Provider() string {
	return g.provider
}

// KeyFingerprint identifies the key in logs without exposing any of it.
func (g *Gateway) KeyFingerprint() string {
	if g.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(g.apiKey))
	return hex.EncodeToString(h[:4])
}

// Open returns the live handle for conversationID, initializing a session
// through the registry when needed.
func (g *Gateway) Open(ctx context.Context, reg *session.Registry, conversationID string, init session.Init) (*session.Handle, error) {
	if !g.Configured() {
		return nil, ErrMissingCredential
	}
	if conversationID == "" || reg == nil {
		return nil, ErrMissingConversationContext
	}
	if reg.Has(conversationID) {
		return reg.GetOrCreate(ctx, conversationID, init)
	}

	init.Pace = g.wait
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	h, err := reg.GetOrCreate(ctx, conversationID, init)
	if err != nil {
		// ErrMissingCredential from the backend passes through unwrapped.
		if errors.Is(err, ErrMissingCredential) {
			return nil, ErrMissingCredential
		}
		g.log.WithFields(logrus.Fields{
			"conversation": conversationID,
			"key":          g.KeyFingerprint(),
		}).WithError(err).Warn("session initialization failed")
		return nil, classify(g.provider, err)
	}
	return h, nil
}

// Send delivers message through h and returns the complete reply.
func (g *Gateway) Send(ctx context.Context, h *session.Handle, message string) (string, error) {
	if !g.Configured() {
		return "", ErrMissingCredential
	}
	if h == nil || h.ConversationID() == "" {
		return "", ErrMissingConversationContext
	}
	if err := g.wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	logger := g.log.WithFields(logrus.Fields{
		"conversation": h.ConversationID(),
		"request_size": len(message),
	})

	reply, err := h.Send(ctx, message)
	if err != nil {
		if errors.Is(err, session.ErrBusy) {
			return "", err
		}
		logger.WithError(err).WithField("key", g.KeyFingerprint()).Warn("model request failed")
		return "", classify(g.provider, err)
	}
	if strings.TrimSpace(reply) == "" {
		logger.Warn("model returned an empty reply")
		return "", &UpstreamError{Provider: g.provider, Err: ErrEmptyResponse}
	}

	logger.WithFields(logrus.Fields{
		"reply_size": len(reply),
		"duration":   time.Since(start).Round(time.Millisecond),
	}).Debug("model reply received")
	return reply, nil
}

func (g *Gateway) wait(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &UpstreamError{Provider: g.provider, Err: err}
	}
	return nil
}
