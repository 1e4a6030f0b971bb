// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/dsamentor/internal/assistant"
	"github.com/jeranaias/dsamentor/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

type focus int

const (
	focusURL focus = iota
	focusDoubt
	focusCode
	focusLanguage
	focusSidebar
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures a chat Model.
type Options struct {
	Assistant *assistant.Assistant
	Theme     *styles.Theme

	// Context is the parent of every request context. Defaults to Background.
	Context context.Context

	Keys *KeyMap
	Now  func() time.Time
	Log  logrus.FieldLogger
}

// Model is the Bubble Tea model for the tutoring chat.
type Model struct {
	ctx       context.Context
	assistant *assistant.Assistant
	theme     *styles.Theme
	keys      KeyMap
	now       func() time.Time
	log       logrus.FieldLogger

	// Dimensions
	width  int
	height int

	// UI Components
	viewport   viewport.Model
	urlInput   textinput.Model
	doubtInput textarea.Model
	codeInput  textarea.Model
	langInput  textinput.Model
	spinner    spinner.Model

	focus        focus
	returnFocus  focus
	showSidebar  bool
	showCode     bool
	sidebarIndex int

	snap       assistant.Snapshot
	renderer   *markdownRenderer
	cancelMgr  *cancelManager // pointer so model copies share it
	ticking    bool
	status     string
	lastActive string
}

// New creates the chat model. The assistant must be ready to use.
func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		opts.Log = l
	}
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}

	snap := opts.Assistant.Snapshot()
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(snap.DarkMode)
	}
	theme.SetDark(snap.DarkMode)

	url := textinput.New()
	url.Prompt = ""
	url.Placeholder = "https://leetcode.com/problems/... (optional)"
	url.CharLimit = 500

	doubt := textarea.New()
	doubt.Placeholder = "Describe your doubt or question..."
	doubt.ShowLineNumbers = false
	doubt.SetHeight(3)
	doubt.CharLimit = 4000
	doubt.KeyMap.InsertNewline.SetEnabled(false)

	code := textarea.New()
	code.Placeholder = "Paste your solution here"
	code.ShowLineNumbers = true
	code.SetHeight(8)
	code.CharLimit = 20000

	lang := textinput.New()
	lang.Prompt = ""
	lang.Placeholder = "language (auto-detect)"
	lang.CharLimit = 32

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	m := Model{
		ctx:        opts.Context,
		assistant:  opts.Assistant,
		theme:      theme,
		keys:       keys,
		now:        opts.Now,
		log:        opts.Log,
		viewport:   viewport.New(80, 20),
		urlInput:   url,
		doubtInput: doubt,
		codeInput:  code,
		langInput:  lang,
		spinner:    sp,
		snap:       snap,
		renderer:   newMarkdownRenderer(theme.GlamourStyle(), opts.Log),
		cancelMgr:  newCancelManager(),
	}
	m.setFocus(focusDoubt)
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and, if a reveal survived a restart, the
// redraw ticker.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, textarea.Blink}
	if m.snap.Loading || m.snap.Streaming {
		cmds = append(cmds, tickCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case responseMsg:
		return m.handleResponse(msg)

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		if !m.snap.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// refresh pulls a new snapshot and rebuilds the thread and layout.
func (m *Model) refresh() {
	m.snap = m.assistant.Snapshot()
	if m.theme.IsDark != m.snap.DarkMode {
		m.theme.SetDark(m.snap.DarkMode)
		m.spinner.Style = m.theme.Spinner
	}
	m.layout()

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderThread())
	if atBottom || m.snap.Active.ID != m.lastActive || m.snap.Streaming {
		m.viewport.GotoBottom()
	}
	m.lastActive = m.snap.Active.ID
	m.clampSidebar()
}

// startTicking schedules redraws unless they are already running.
func (m *Model) startTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return tickCmd()
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.refresh()
	if m.snap.Loading || m.snap.Streaming {
		return m, tickCmd()
	}
	m.ticking = false
	return m, nil
}

// setFocus moves keyboard focus, blurring every other field.
func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.urlInput.Blur()
	m.doubtInput.Blur()
	m.codeInput.Blur()
	m.langInput.Blur()

	switch f {
	case focusURL:
		return m.urlInput.Focus()
	case focusDoubt:
		return m.doubtInput.Focus()
	case focusCode:
		return m.codeInput.Focus()
	case focusLanguage:
		return m.langInput.Focus()
	}
	return nil
}

// fieldOrder lists the focusable input fields for the current panel.
func (m Model) fieldOrder() []focus {
	if m.showCode {
		return []focus{focusCode, focusLanguage, focusDoubt}
	}
	return []focus{focusURL, focusDoubt}
}

func (m *Model) nextField() tea.Cmd {
	order := m.fieldOrder()
	for i, f := range order {
		if f == m.focus {
			return m.setFocus(order[(i+1)%len(order)])
		}
	}
	return m.setFocus(order[0])
}

func (m *Model) resetInputs() {
	m.urlInput.Reset()
	m.doubtInput.Reset()
	m.codeInput.Reset()
	m.langInput.Reset()
}

// updateFocused forwards msg to the focused input.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusURL:
		m.urlInput, cmd = m.urlInput.Update(msg)
	case focusDoubt:
		m.doubtInput, cmd = m.doubtInput.Update(msg)
	case focusCode:
		m.codeInput, cmd = m.codeInput.Update(msg)
	case focusLanguage:
		m.langInput, cmd = m.langInput.Update(msg)
	}
	return m, cmd
}

// Snapshot returns the view state the model last rendered.
func (m Model) Snapshot() assistant.Snapshot {
	return m.snap
}
