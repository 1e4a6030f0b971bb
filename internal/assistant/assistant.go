// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/dsamentor/internal/cloud"
	"github.com/jeranaias/dsamentor/internal/conversation"
	"github.com/jeranaias/dsamentor/internal/model"
	"github.com/jeranaias/dsamentor/internal/playback"
	"github.com/jeranaias/dsamentor/internal/prompt"
	"github.com/jeranaias/dsamentor/internal/session"
)

var (
	// ErrInvalidInput is returned for an empty submission or a malformed
	// problem URL.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusy is returned when a submission arrives while a request is
	// still pending.
	ErrBusy = errors.New("a request is already in progress")
)

// User-facing texts.
const (
	InvalidURLMessage = "Please enter a valid LeetCode problem URL (e.g., https://leetcode.com/problems/two-sum/)"
	CredentialHint    = "Please ensure your API key is correctly set in config.toml or as DSAMENTOR_API_KEY"
	CancelledMessage  = "Request cancelled."
)

// ErrorMessage is the inline system message shown for a failed request.
func ErrorMessage(detail string) string {
	return "Sorry, there was an error processing your request: " + detail + ". Please check the log for more details."
}

// Kind tells what a request was prepared from.
type Kind int

const (
	KindProblem Kind = iota
	KindDoubt
	KindCode
)

func (k Kind) String() string {
	switch k {
	case KindProblem:
		return "problem"
	case KindDoubt:
		return "doubt"
	case KindCode:
		return "code"
	}
	return "unknown"
}

// Request is a prepared submission. It is only valid for the Assistant that
// created it.
type Request struct {
	ConversationID string
	Kind           Kind
	Message        string
	Init           session.Init
	Prepared       time.Time
}

// Result is the outcome of Execute.
type Result struct {
	Reply    string
	Err      error
	Duration time.Duration
}

// Config wires an Assistant.
type Config struct {
	Repository *conversation.Repository
	Sessions   *session.Registry
	Gateway    *cloud.Gateway

	// Simulator reveals replies (default playback.New()).
	Simulator *playback.Simulator

	// OnChunk, when set, is called after each revealed chunk and once with
	// done=true when a reveal finishes. It must not call back into the
	// Assistant.
	OnChunk func(conversationID, chunk string, done bool)

	Now func() time.Time
	Log logrus.FieldLogger
}

// =============================================================================
// ASSISTANT
// =============================================================================

// Assistant owns the view state of the chat.
type Assistant struct {
	mu sync.Mutex

	repo     *conversation.Repository
	sessions *session.Registry
	gateway  *cloud.Gateway
	sim      *playback.Simulator
	onChunk  func(conversationID, chunk string, done bool)
	now      func() time.Time
	log      logrus.FieldLogger

	pending *Request

	playback     *playback.Playback
	playbackDone <-chan struct{}
	streamConv   string
	streamMsg    string

	errorDetail       string
	credentialMissing bool
	notice            string
}

// New creates an Assistant. The repository should already be bootstrapped.
func New(cfg Config) *Assistant {
	a := &Assistant{
		repo:     cfg.Repository,
		sessions: cfg.Sessions,
		gateway:  cfg.Gateway,
		sim:      cfg.Simulator,
		onChunk:  cfg.OnChunk,
		now:      cfg.Now,
		log:      cfg.Log,
	}
	if a.sim == nil {
		a.sim = playback.New()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		a.log = l
	}
	if !a.gateway.Configured() {
		a.credentialMissing = true
		a.errorDetail = cloud.ErrMissingCredential.Error()
	}
	return a
}

// Repository returns the backing repository.
func (a *Assistant) Repository() *conversation.Repository {
	return a.repo
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Prepare validates a URL and/or doubt submission, records the user message
// on the active conversation and marks the assistant loading.
//
// A malformed URL appends a guidance message instead and returns
// ErrInvalidInput without contacting the model.
func (a *Assistant) Prepare(problemURL, doubt string) (*Request, error) {
	problemURL = strings.TrimSpace(problemURL)
	doubt = strings.TrimSpace(doubt)
	if problemURL == "" && doubt == "" {
		return nil, fmt.Errorf("%w: a problem URL or a doubt is required", ErrInvalidInput)
	}

	conv, err := a.begin()
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if problemURL != "" && !conversation.IsProblemURL(problemURL) {
		if err := a.repo.AppendMessage(conv.ID, model.NewSystemMessage(InvalidURLMessage, a.now())); err != nil {
			a.log.WithError(err).Warn("failed to record URL guidance")
		}
		return nil, fmt.Errorf("%w: %q is not a LeetCode problem URL", ErrInvalidInput, problemURL)
	}

	anchor := conv.LastProblemURL()
	msg, err := prompt.Compose(prompt.Request{URL: problemURL, Doubt: doubt, AnchorURL: anchor})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	primerURL := problemURL
	if primerURL == "" {
		primerURL = anchor
	}
	kind := KindDoubt
	if problemURL != "" {
		kind = KindProblem
	}

	userText := model.UserText(problemURL, doubt)
	return a.record(conv.ID, userText, conversation.DeriveTitle(userText), &Request{
		ConversationID: conv.ID,
		Kind:           kind,
		Message:        msg,
		Init:           session.Init{SystemPrompt: prompt.SystemPrompt(), Primer: prompt.ProblemPrimer(primerURL)},
	})
}

// PrepareCode is Prepare for a code snippet submitted for review.
func (a *Assistant) PrepareCode(code, language, note string) (*Request, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, prompt.ErrEmptyCode)
	}

	conv, err := a.begin()
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	anchor := conv.LastProblemURL()
	msg, analysis, err := prompt.CodeReview(prompt.CodeRequest{
		Code:      code,
		Language:  language,
		AnchorURL: anchor,
		Note:      note,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	userText := "```" + analysis.Language + "\n" + strings.TrimRight(code, " \t\r\n") + "\n```"
	if n := strings.TrimSpace(note); n != "" {
		userText = n + "\n\n" + userText
	}
	return a.record(conv.ID, userText, "Code Review: "+analysis.Concept, &Request{
		ConversationID: conv.ID,
		Kind:           KindCode,
		Message:        msg,
		Init:           session.Init{SystemPrompt: prompt.SystemPrompt(), Primer: prompt.ProblemPrimer(anchor)},
	})
}

// begin runs the checks shared by every submission and returns the
// conversation the submission goes to. Running playback is stopped first.
func (a *Assistant) begin() (model.Conversation, error) {
	a.mu.Lock()
	switch {
	case a.pending != nil:
		a.mu.Unlock()
		return model.Conversation{}, ErrBusy
	case !a.gateway.Configured():
		a.credentialMissing = true
		a.errorDetail = cloud.ErrMissingCredential.Error()
		a.mu.Unlock()
		return model.Conversation{}, cloud.ErrMissingCredential
	}
	a.errorDetail = ""
	a.notice = ""
	a.mu.Unlock()

	a.stopPlayback()

	if conv, ok := a.repo.Active(); ok {
		return conv, nil
	}
	return a.repo.Create(), nil
}

// record appends the user message, sets the title on the first user message
// and marks req pending. a.mu must be held.
func (a *Assistant) record(convID, userText, title string, req *Request) (*Request, error) {
	if a.pending != nil {
		return nil, ErrBusy
	}
	now := a.now()
	err := a.repo.Update(convID, func(c *model.Conversation) {
		first := c.UserMessageCount() == 0
		c.AddMessage(model.NewUserMessage(userText, now))
		if first && c.Title == model.DefaultTitle {
			c.Title = title
		}
	})
	if err != nil && errors.Is(err, conversation.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		a.log.WithError(err).Warn("failed to persist user message")
	}

	req.Prepared = now
	a.pending = req
	a.log.WithFields(logrus.Fields{
		"conversation": convID,
		"kind":         req.Kind.String(),
		"message_size": len(req.Message),
	}).Debug("submission prepared")
	return req, nil
}

// Execute sends req to the model and blocks until a reply or an error. It
// does not touch view state.
func (a *Assistant) Execute(ctx context.Context, req *Request) Result {
	start := time.Now()
	if req == nil {
		return Result{Err: cloud.ErrMissingConversationContext}
	}
	h, err := a.gateway.Open(ctx, a.sessions, req.ConversationID, req.Init)
	if err != nil {
		return Result{Err: err, Duration: time.Since(start)}
	}
	reply, err := a.gateway.Send(ctx, h, req.Message)
	return Result{Reply: reply, Err: err, Duration: time.Since(start)}
}

// Deliver applies the result of req. Errors become an inline system message
// and the error banner; a reply starts playback into a new assistant
// message. Results for stale requests are dropped.
func (a *Assistant) Deliver(req *Request, res Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if req == nil || a.pending != req {
		a.log.Debug("dropping result of stale request")
		return
	}
	a.pending = nil

	logger := a.log.WithFields(logrus.Fields{
		"conversation": req.ConversationID,
		"duration":     res.Duration.Round(time.Millisecond),
	})
	if _, ok := a.repo.Get(req.ConversationID); !ok {
		logger.Info("conversation removed before reply arrived")
		return
	}

	if res.Err != nil {
		a.deliverError(req.ConversationID, res.Err, logger)
		return
	}

	msg := model.NewStreamingMessage(a.now())
	if err := a.repo.AppendMessage(req.ConversationID, msg); err != nil {
		logger.WithError(err).Warn("failed to persist assistant message")
	}
	a.streamConv, a.streamMsg = req.ConversationID, msg.ID
	a.playback = a.sim.Play(res.Reply, a.sink(req.ConversationID, msg.ID))
	a.playbackDone = a.playback.Done()
	logger.WithField("reply_size", len(res.Reply)).Debug("reply playback started")
}

func (a *Assistant) deliverError(convID string, err error, logger logrus.FieldLogger) {
	if errors.Is(err, context.Canceled) {
		if err := a.repo.AppendMessage(convID, model.NewSystemMessage(CancelledMessage, a.now())); err != nil {
			logger.WithError(err).Warn("failed to persist cancellation notice")
		}
		return
	}

	logger.WithError(err).Warn("request failed")
	if errors.Is(err, cloud.ErrMissingCredential) {
		a.credentialMissing = true
	}
	a.errorDetail = err.Error()
	if err := a.repo.AppendMessage(convID, model.NewSystemMessage(ErrorMessage(a.errorDetail), a.now())); err != nil {
		logger.WithError(err).Warn("failed to persist error message")
	}
}

// Submit runs Prepare, Execute and Deliver in sequence.
func (a *Assistant) Submit(ctx context.Context, problemURL, doubt string) (*Request, error) {
	req, err := a.Prepare(problemURL, doubt)
	if err != nil {
		return nil, err
	}
	res := a.Execute(ctx, req)
	a.Deliver(req, res)
	return req, res.Err
}

// =============================================================================
// PLAYBACK
// =============================================================================

// sink grows the streaming message. It holds a.mu only for the state
// update; OnChunk runs after releasing it.
func (a *Assistant) sink(convID, msgID string) playback.Sink {
	return func(chunk string, done bool) {
		a.mu.Lock()
		if a.streamMsg != msgID {
			a.mu.Unlock()
			return
		}
		if done {
			a.finalizeLocked()
		} else {
			_ = a.repo.UpdateUnsaved(convID, func(c *model.Conversation) {
				if m := c.FindMessage(msgID); m != nil {
					m.AppendChunk(chunk)
				}
			})
		}
		a.mu.Unlock()

		if a.onChunk != nil {
			a.onChunk(convID, chunk, done)
		}
	}
}

// finalizeLocked marks the streaming message final and persists it.
func (a *Assistant) finalizeLocked() {
	if a.streamMsg == "" {
		return
	}
	msgID := a.streamMsg
	err := a.repo.UpdateMessage(a.streamConv, msgID, func(m *model.Message) {
		m.Finalize()
	})
	if err != nil && !errors.Is(err, conversation.ErrNotFound) {
		a.log.WithError(err).Warn("failed to persist finished reply")
	}
	a.streamConv, a.streamMsg = "", ""
	a.playback = nil
}

// stopPlayback cancels any running reveal and finalizes the partial
// message. Cancel is called without a.mu so an in-flight sink call can
// finish.
func (a *Assistant) stopPlayback() bool {
	a.mu.Lock()
	p := a.playback
	a.mu.Unlock()
	if p == nil {
		return false
	}

	p.Cancel()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.playback == p {
		a.finalizeLocked()
	}
	return true
}

// Stop halts the running reveal, keeping the text shown so far. It reports
// whether anything was stopped.
func (a *Assistant) Stop() bool {
	return a.stopPlayback()
}

// PlaybackDone returns a channel closed when the latest reveal has ended,
// after its final OnChunk call. It is already closed when nothing was ever
// played.
func (a *Assistant) PlaybackDone() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.playbackDone == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.playbackDone
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// NewConversation stops playback and starts a fresh conversation.
func (a *Assistant) NewConversation() model.Conversation {
	a.stopPlayback()
	conv := a.repo.Create()
	a.setNotice("")
	return conv
}

// SwitchTo stops playback and activates id.
func (a *Assistant) SwitchTo(id string) error {
	a.stopPlayback()
	if err := a.repo.SwitchTo(id); err != nil {
		return err
	}
	a.setNotice("")
	return nil
}

// Delete stops playback and removes id.
func (a *Assistant) Delete(id string) error {
	a.stopPlayback()
	return a.repo.Delete(id)
}

// ToggleBookmark flips the bookmark on id. Hitting the limit sets a notice.
func (a *Assistant) ToggleBookmark(id string) (bool, error) {
	on, err := a.repo.ToggleBookmark(id)
	if errors.Is(err, conversation.ErrBookmarkLimit) {
		a.setNotice(conversation.BookmarkLimitMessage)
		return false, err
	}
	if err == nil {
		a.setNotice("")
	}
	return on, err
}

// ToggleTheme flips dark mode and returns the new setting.
func (a *Assistant) ToggleTheme() bool {
	dark := !a.repo.DarkMode()
	if err := a.repo.SetDarkMode(dark); err != nil {
		a.log.WithError(err).Warn("failed to persist theme")
	}
	return dark
}

// DismissError clears the error banner. A missing credential stays.
func (a *Assistant) DismissError() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.credentialMissing {
		a.errorDetail = ""
	}
	a.notice = ""
}

func (a *Assistant) setNotice(s string) {
	a.mu.Lock()
	a.notice = s
	a.mu.Unlock()
}
