// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/dsamentor/internal/assistant"
	"github.com/jeranaias/dsamentor/internal/cloud"
	"github.com/jeranaias/dsamentor/internal/conversation"
	"github.com/jeranaias/dsamentor/internal/model"
	"github.com/jeranaias/dsamentor/internal/playback"
	"github.com/jeranaias/dsamentor/internal/session"
	"github.com/jeranaias/dsamentor/internal/storage"
	"github.com/jeranaias/dsamentor/internal/ui/styles"
)

const twoSum = "https://leetcode.com/problems/two-sum/"

// =============================================================================
// TEST HELPERS
// =============================================================================

type stubChat struct {
	reply func(ctx context.Context, text string) (string, error)
}

func (c *stubChat) Send(ctx context.Context, text string) (string, error) {
	return c.reply(ctx, text)
}

type stubBackend struct {
	reply func(ctx context.Context, text string) (string, error)
}

func (b *stubBackend) NewChat(context.Context) (session.Chat, error) {
	return &stubChat{reply: b.reply}, nil
}

// stepClock advances one minute per call so conversations sort predictably.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

type fixture struct {
	m Model
	a *assistant.Assistant
}

func newFixture(t *testing.T, key string, reply func(context.Context, string) (string, error)) *fixture {
	t.Helper()
	store, err := storage.Open(storage.BackendFile, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if reply == nil {
		reply = func(context.Context, string) (string, error) {
			return "Think about which values you have already seen.", nil
		}
	}
	clock := &stepClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}

	reg := session.NewRegistry(&stubBackend{reply: reply}, nil)
	repo := conversation.New(storage.NewRecords(store, nil), conversation.Options{Sessions: reg, Now: clock.Now})
	repo.Bootstrap()

	a := assistant.New(assistant.Config{
		Repository: repo,
		Sessions:   reg,
		Gateway:    cloud.NewGateway(cloud.GatewayOptions{APIKey: key, RequestsPerMinute: -1}),
		Simulator:  playback.New(playback.WithSeed(1), playback.WithDelay(0, 0)),
		Now:        clock.Now,
	})

	m := New(Options{Assistant: a, Theme: styles.NewTheme(true), Now: clock.Now})
	f := &fixture{m: m, a: a}
	f.send(t, tea.WindowSizeMsg{Width: 120, Height: 40})
	return f
}

// send feeds msg through Update and keeps the resulting model.
func (f *fixture) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := f.m.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	f.m = m
	return cmd
}

func (f *fixture) press(t *testing.T, k tea.KeyMsg) tea.Cmd {
	t.Helper()
	return f.send(t, k)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and every nested batch in the background, streaming the
// resulting messages.
func run(cmd tea.Cmd) <-chan tea.Msg {
	out := make(chan tea.Msg, 64)
	var wg sync.WaitGroup
	var exec func(c tea.Cmd)
	exec = func(c tea.Cmd) {
		defer wg.Done()
		if c == nil {
			return
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, sub := range batch {
				wg.Add(1)
				go exec(sub)
			}
			return
		}
		out <- msg
	}
	wg.Add(1)
	go exec(cmd)
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func awaitResponse(t *testing.T, msgs <-chan tea.Msg) responseMsg {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				t.Fatal("commands finished without a response")
			}
			if res, ok := msg.(responseMsg); ok {
				return res
			}
		case <-deadline:
			t.Fatal("no response within 5s")
		}
	}
}

func (f *fixture) waitPlayback(t *testing.T) {
	t.Helper()
	select {
	case <-f.a.PlaybackDone():
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not finish")
	}
	f.send(t, tickMsg{Time: time.Now()})
}

// =============================================================================
// TESTS
// =============================================================================

func TestWelcomeShownForEmptyConversation(t *testing.T) {
	f := newFixture(t, "key", nil)

	view := f.m.View()
	assert.Contains(t, view, WelcomeTitle)
	assert.Contains(t, view, "How to use:")
	assert.Contains(t, view, Brand)
}

func TestViewBeforeResize(t *testing.T) {
	f := newFixture(t, "key", nil)
	m := New(Options{Assistant: f.a})
	assert.Equal(t, "Loading...", m.View())
}

func TestSubmitProblemRoundTrip(t *testing.T) {
	f := newFixture(t, "key", nil)
	f.m.urlInput.SetValue(twoSum)
	f.m.doubtInput.SetValue("why a hash map?")

	cmd := f.press(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	snap := f.m.Snapshot()
	assert.True(t, snap.Loading)
	require.Len(t, snap.Active.Messages, 1)
	assert.Equal(t, model.UserText(twoSum, "why a hash map?"), snap.Active.Messages[0].Text)
	assert.Empty(t, f.m.urlInput.Value())
	assert.Empty(t, f.m.doubtInput.Value())
	assert.True(t, f.m.cancelMgr.active())

	f.send(t, awaitResponse(t, run(cmd)))
	f.waitPlayback(t)

	snap = f.m.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Streaming)
	assert.False(t, f.m.cancelMgr.active())
	last := snap.Active.LastMessage()
	require.NotNil(t, last)
	assert.Equal(t, model.SenderAssistant, last.Sender)
	assert.Equal(t, "Think about which values you have already seen.", last.Text)
	assert.Equal(t, "Two Sum: why a hash map?", snap.Active.Title)

	// Nothing running: the next tick stops the ticker.
	f.send(t, tickMsg{Time: time.Now()})
	assert.False(t, f.m.ticking)
}

func TestEnterWithEmptyInputsShowsHint(t *testing.T) {
	f := newFixture(t, "key", nil)

	cmd := f.press(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, hintEmpty, f.m.status)
	assert.Empty(t, f.m.Snapshot().Active.Messages)
}

func TestMalformedURLAddsGuidance(t *testing.T) {
	f := newFixture(t, "key", nil)
	f.m.urlInput.SetValue("https://example.com/two-sum")

	cmd := f.press(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	msgs := f.m.Snapshot().Active.Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, model.SenderSystem, msgs[0].Sender)
	assert.Equal(t, assistant.InvalidURLMessage, msgs[0].Text)
	assert.Equal(t, "https://example.com/two-sum", f.m.urlInput.Value(), "input kept for correction")
}

func TestMissingCredentialBanner(t *testing.T) {
	f := newFixture(t, "", nil)

	view := f.m.View()
	assert.Contains(t, view, "Error details: ")
	assert.Contains(t, view, assistant.CredentialHint)

	f.m.doubtInput.SetValue("what is a heap?")
	cmd := f.press(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.True(t, f.m.Snapshot().CredentialMissing)

	// Esc does not hide the credential banner.
	f.press(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, f.m.Snapshot().HasError())
}

func TestEscCancelsPendingRequest(t *testing.T) {
	f := newFixture(t, "key", func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	f.m.doubtInput.SetValue("how do I spot a DP problem?")

	cmd := f.press(t, tea.KeyMsg{Type: tea.KeyEnter})
	msgs := run(cmd)

	f.press(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, hintCancelling, f.m.status)

	f.send(t, awaitResponse(t, msgs))
	assert.Empty(t, f.m.status)

	snap := f.m.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.HasError())
	last := snap.Active.LastMessage()
	require.NotNil(t, last)
	assert.Equal(t, model.SenderSystem, last.Sender)
	assert.Equal(t, assistant.CancelledMessage, last.Text)
}

func TestSecondSubmitWhileLoadingIsRejected(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, "key", func(ctx context.Context, _ string) (string, error) {
		select {
		case <-release:
			return "ok", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	f.m.doubtInput.SetValue("first")
	cmd := f.press(t, tea.KeyMsg{Type: tea.KeyEnter})
	msgs := run(cmd)

	f.m.doubtInput.SetValue("second")
	assert.Nil(t, f.press(t, tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Equal(t, hintBusy, f.m.status)
	assert.Equal(t, "second", f.m.doubtInput.Value())

	close(release)
	f.send(t, awaitResponse(t, msgs))
	f.waitPlayback(t)
	assert.Equal(t, 2, len(f.m.Snapshot().Active.Messages))
}

func TestThemeToggle(t *testing.T) {
	f := newFixture(t, "key", nil)
	before := f.m.Snapshot().DarkMode
	require.Equal(t, before, f.m.theme.IsDark)

	f.press(t, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, !before, f.m.Snapshot().DarkMode)
	assert.Equal(t, !before, f.m.theme.IsDark)
}

func TestNewConversationKey(t *testing.T) {
	f := newFixture(t, "key", nil)
	first := f.m.Snapshot().Active.ID
	f.m.doubtInput.SetValue("draft")

	f.press(t, tea.KeyMsg{Type: tea.KeyCtrlN})

	snap := f.m.Snapshot()
	assert.NotEqual(t, first, snap.Active.ID)
	assert.Len(t, snap.Conversations, 2)
	assert.Empty(t, f.m.doubtInput.Value())
}

func TestSidebarBookmarkDeleteAndSwitch(t *testing.T) {
	f := newFixture(t, "key", nil)
	a := f.m.Snapshot().Active.ID
	f.press(t, tea.KeyMsg{Type: tea.KeyCtrlN})
	b := f.m.Snapshot().Active.ID
	f.press(t, tea.KeyMsg{Type: tea.KeyCtrlN})
	c := f.m.Snapshot().Active.ID

	f.press(t, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Equal(t, focusSidebar, f.m.focus)
	require.True(t, f.m.showSidebar)
	assert.Equal(t, 0, f.m.sidebarIndex, "selection starts on the active conversation")

	// rows: [C, B, A] -> bookmark C
	f.press(t, runes("b"))
	assert.True(t, f.m.Snapshot().Bookmarked[c])

	// rows: [*C, C, B, A] -> move to B and bookmark it
	f.press(t, runes("j"))
	f.press(t, runes("j"))
	f.press(t, runes("b"))
	assert.True(t, f.m.Snapshot().Bookmarked[b])

	// rows: [*C, *B, C, B, A] -> A hits the limit
	f.press(t, runes("j"))
	f.press(t, runes("j"))
	f.press(t, runes("b"))
	snap := f.m.Snapshot()
	assert.False(t, snap.Bookmarked[a])
	assert.Equal(t, conversation.BookmarkLimitMessage, snap.Notice)
	assert.Contains(t, f.m.View(), "Bookmarks (2/2)")

	// delete A
	f.press(t, runes("d"))
	snap = f.m.Snapshot()
	assert.Len(t, snap.Conversations, 2)
	assert.Equal(t, 3, f.m.sidebarIndex)

	// open B from its bookmark row
	f.press(t, runes("k"))
	f.press(t, runes("k"))
	f.press(t, runes("k"))
	assert.Equal(t, 0, f.m.sidebarIndex)
	f.press(t, runes("j"))
	f.press(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, f.m.showSidebar)
	assert.Equal(t, focusDoubt, f.m.focus)
	assert.Equal(t, b, f.m.Snapshot().Active.ID)
}

func TestSidebarFocusOnClose(t *testing.T) {
	f := newFixture(t, "key", nil)
	f.press(t, tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, focusURL, f.m.focus)

	// Closing without choosing returns to the field that had focus.
	f.press(t, tea.KeyMsg{Type: tea.KeyCtrlS})
	f.press(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, f.m.showSidebar)
	assert.Equal(t, focusURL, f.m.focus)

	// Opening a conversation lands on the doubt field.
	f.press(t, tea.KeyMsg{Type: tea.KeyCtrlS})
	f.press(t, runes("j"))
	f.press(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, f.m.showSidebar)
	assert.Equal(t, focusDoubt, f.m.focus)
}

func TestCodePanelSubmit(t *testing.T) {
	f := newFixture(t, "key", nil)

	f.press(t, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.True(t, f.m.showCode)
	require.Equal(t, focusCode, f.m.focus)

	f.press(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusLanguage, f.m.focus)

	// Empty code gets a hint.
	assert.Nil(t, f.press(t, tea.KeyMsg{Type: tea.KeyCtrlR}))
	assert.Equal(t, hintEmptyCode, f.m.status)

	f.m.codeInput.SetValue("def two_sum(nums, target):\n    seen = {}\n    return seen")
	f.m.langInput.SetValue("python")
	cmd := f.press(t, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.False(t, f.m.showCode)
	assert.Empty(t, f.m.codeInput.Value())

	f.send(t, awaitResponse(t, run(cmd)))
	f.waitPlayback(t)

	snap := f.m.Snapshot()
	assert.True(t, strings.HasPrefix(snap.Active.Title, "Code Review: "), snap.Active.Title)
	require.Len(t, snap.Active.Messages, 2)
	assert.Contains(t, snap.Active.Messages[0].Text, "```python")
}

func TestUserBody(t *testing.T) {
	assert.Equal(t, "Problem: "+twoSum+"\nwhy?", userBody(model.UserText(twoSum, "why?")))
	assert.Equal(t, "Problem: "+twoSum, userBody(model.UserText(twoSum, "")))
	assert.Equal(t, "plain doubt", userBody("plain doubt"))
}
