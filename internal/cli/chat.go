// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/dsamentor/internal/assistant"
	"github.com/jeranaias/dsamentor/internal/cloud"
	"github.com/jeranaias/dsamentor/internal/conversation"
	"github.com/jeranaias/dsamentor/internal/export"
	"github.com/jeranaias/dsamentor/internal/model"
	"github.com/jeranaias/dsamentor/internal/util"
)

const (
	chatPrompt     = "dsa> "
	codePrompt     = "...> "
	codeTerminator = "/end"
	historyFile    = "chat_history"
)

const chatHelp = `Type a doubt, or a LeetCode problem URL followed by an optional doubt:

  https://leetcode.com/problems/two-sum/ why does a hash map help?
  how do I know when to use a monotonic stack?

Commands:
  /code [language]  Paste code for review, finish with /end
  /new              Start a new conversation
  /list             List conversations
  /switch <n>       Switch to conversation n from /list
  /bookmark         Bookmark or unbookmark the current conversation
  /show             Print the current conversation
  /help             Show this help
  /quit             Exit

Ctrl+C stops the current answer. At the prompt it exits.`

func newChatCommand(f *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the mentor in line mode",
		Long: `Chat with the mentor in the current terminal instead of the full-screen UI.
Answers are printed as they are revealed. Input history is kept in the
data directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, f)
		},
	}
}

func runChat(cmd *cobra.Command, f *GlobalFlags) error {
	cfg, err := f.LoadConfig()
	if err != nil {
		return err
	}
	app, err := OpenApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	r := newREPL(cmd.OutOrStdout())
	if err := app.StartAssistant(ctx, AssistantOptions{OnChunk: r.onChunk}); err != nil {
		return err
	}
	r.assistant = app.Assistant

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-sigCh:
				r.interrupt()
			case <-ctx.Done():
				return
			}
		}
	}()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	dataDir, _ := cfg.DataDir()
	histPath := filepath.Join(dataDir, historyFile)
	if hf, err := os.Open(histPath); err == nil {
		line.ReadHistory(hf)
		hf.Close()
	}
	defer func() {
		hf, err := os.OpenFile(histPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			app.Log.WithError(err).Warn("could not save chat history")
			return
		}
		line.WriteHistory(hf)
		hf.Close()
	}()

	r.readLine = func(prompt string) (string, error) {
		input, err := line.Prompt(prompt)
		if err == nil && strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		return input, err
	}

	r.printBanner()
	for {
		input, err := r.readLine(chatPrompt)
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed stdin.
			r.println()
			return nil
		}
		if r.handle(ctx, input) {
			return nil
		}
	}
}

// =============================================================================
// REPL
// =============================================================================

// repl runs line-mode commands against an assistant.
type repl struct {
	assistant *assistant.Assistant
	readLine  func(prompt string) (string, error)

	mu       sync.Mutex // guards out, cancel and finished
	out      io.Writer
	cancel   context.CancelFunc
	finished bool
}

func newREPL(out io.Writer) *repl {
	return &repl{out: out}
}

func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func (r *repl) println(args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, args...)
}

// onChunk prints revealed text. It runs on the playback goroutine.
func (r *repl) onChunk(_ string, chunk string, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if done {
		r.finished = true
		fmt.Fprintln(r.out)
		return
	}
	fmt.Fprint(r.out, chunk)
}

// interrupt cancels the pending request, or stops the running reveal.
func (r *repl) interrupt() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
		return
	}
	if r.assistant != nil {
		r.assistant.Stop()
	}
}

func (r *repl) setCancel(cancel context.CancelFunc) {
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
}

func (r *repl) printBanner() {
	r.println(promptStyle.Render("DSA Mentor") + dimStyle.Render(" - type /help for commands"))
	snap := r.assistant.Snapshot()
	if snap.CredentialMissing {
		r.println(errorStyle.Render("Error details: ") + snap.ErrorDetail)
		r.println(assistant.CredentialHint)
	}
}

// handle runs one input line and reports whether the REPL should exit.
func (r *repl) handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	if !strings.HasPrefix(input, "/") {
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return true
		}
		problemURL, doubt := splitProblemInput(input)
		r.submit(ctx, func() (*assistant.Request, error) {
			return r.assistant.Prepare(problemURL, doubt)
		}, problemURL)
		return false
	}

	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "/quit", "/exit", "/q":
		return true
	case "/help", "/?":
		r.println(chatHelp)
	case "/new":
		r.assistant.NewConversation()
		r.println(successStyle.Render("Started a new conversation."))
	case "/list":
		r.listConversations()
	case "/switch":
		r.switchConversation(arg)
	case "/bookmark":
		r.toggleBookmark()
	case "/show":
		r.showActive()
	case "/code":
		r.submitCode(ctx, arg)
	default:
		r.println(errorStyle.Render("Unknown command:"), name, dimStyle.Render("(try /help)"))
	}
	return false
}

// splitProblemInput treats a leading URL as the problem and the rest of the
// line as the doubt.
func splitProblemInput(input string) (problemURL, doubt string) {
	input = strings.TrimSpace(input)
	first, rest, _ := strings.Cut(input, " ")
	if strings.HasPrefix(first, "http://") || strings.HasPrefix(first, "https://") ||
		strings.Contains(first, conversation.ProblemURLMarker) {
		return first, strings.TrimSpace(rest)
	}
	return "", input
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (r *repl) submit(ctx context.Context, prepare func() (*assistant.Request, error), problemURL string) {
	req, err := prepare()
	if err != nil {
		r.reportRejected(err, problemURL)
		return
	}

	reqCtx, cancel := context.WithCancel(ctx)
	r.setCancel(cancel)
	r.println(dimStyle.Render("Mentor is thinking..."))
	res := r.assistant.Execute(reqCtx, req)
	r.setCancel(nil)
	cancel()

	if res.Err != nil {
		r.assistant.Deliver(req, res)
		r.reportFailure(res.Err)
		return
	}

	r.mu.Lock()
	r.finished = false
	fmt.Fprintln(r.out, mentorStyle.Render(model.SenderAssistant.DisplayName()))
	r.mu.Unlock()

	r.assistant.Deliver(req, res)
	<-r.assistant.PlaybackDone()

	r.mu.Lock()
	if !r.finished {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, dimStyle.Render("[stopped]"))
	}
	r.mu.Unlock()
}

func (r *repl) submitCode(ctx context.Context, language string) {
	r.println(dimStyle.Render("Paste your code, then " + codeTerminator + " on its own line."))
	var lines []string
	for {
		line, err := r.readLine(codePrompt)
		if err != nil {
			r.println()
			return
		}
		if strings.TrimSpace(line) == codeTerminator {
			break
		}
		lines = append(lines, line)
	}
	code := strings.Join(lines, "\n")
	r.submit(ctx, func() (*assistant.Request, error) {
		return r.assistant.PrepareCode(code, language, "")
	}, "")
}

// reportRejected explains why a submission never reached the model.
func (r *repl) reportRejected(err error, problemURL string) {
	switch {
	case errors.Is(err, assistant.ErrBusy):
		r.println(dimStyle.Render("Still waiting for the previous answer."))
	case errors.Is(err, cloud.ErrMissingCredential):
		r.println(errorStyle.Render("Error details: ") + err.Error())
		r.println(assistant.CredentialHint)
	case errors.Is(err, assistant.ErrInvalidInput) && problemURL != "" && !conversation.IsProblemURL(problemURL):
		r.println(errorStyle.Render(assistant.InvalidURLMessage))
	default:
		r.println(errorStyle.Render("Error:"), err)
	}
}

// reportFailure prints the notice Deliver recorded for a failed request.
func (r *repl) reportFailure(err error) {
	if errors.Is(err, context.Canceled) {
		r.println(dimStyle.Render(assistant.CancelledMessage))
		return
	}
	snap := r.assistant.Snapshot()
	if last := snap.Active.LastMessage(); last != nil && last.Sender == model.SenderSystem {
		r.println(errorStyle.Render(last.Text))
	} else {
		r.println(errorStyle.Render(assistant.ErrorMessage(err.Error())))
	}
	if snap.CredentialMissing {
		r.println(assistant.CredentialHint)
	}
}

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

func (r *repl) listConversations() {
	snap := r.assistant.Snapshot()
	if len(snap.Conversations) == 0 {
		r.println(dimStyle.Render("No conversations yet"))
		return
	}
	for i, c := range snap.Conversations {
		marker := "  "
		if c.ID == snap.Active.ID {
			marker = "> "
		}
		if snap.Bookmarked[c.ID] {
			marker = marker[:1] + "*"
		}
		r.printf("%s%2d. %s %s\n", marker, i+1, util.TruncateWidth(util.SingleLine(c.Title), 50),
			dimStyle.Render(fmt.Sprintf("(%d msgs)", len(c.Messages))))
	}
}

func (r *repl) switchConversation(arg string) {
	snap := r.assistant.Snapshot()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(snap.Conversations) {
		r.println(errorStyle.Render("Usage:"), "/switch <n>, with n from /list")
		return
	}
	target := snap.Conversations[n-1]
	if err := r.assistant.SwitchTo(target.ID); err != nil {
		r.println(errorStyle.Render("Error:"), err)
		return
	}
	r.println(successStyle.Render("Switched to"), target.Title)
}

func (r *repl) toggleBookmark() {
	active := r.assistant.Snapshot().Active
	on, err := r.assistant.ToggleBookmark(active.ID)
	switch {
	case errors.Is(err, conversation.ErrBookmarkLimit):
		r.println(errorStyle.Render(conversation.BookmarkLimitMessage))
	case err != nil:
		r.println(errorStyle.Render("Error:"), err)
	case on:
		r.println(successStyle.Render("Bookmarked"), active.Title)
	default:
		r.println(successStyle.Render("Removed bookmark from"), active.Title)
	}
}

func (r *repl) showActive() {
	active := r.assistant.Snapshot().Active
	if len(active.Messages) == 0 {
		r.println(dimStyle.Render("This conversation has no messages yet."))
		return
	}
	md := export.NewMarkdownExporter(&export.Options{IncludeTimestamps: true})
	content, err := md.Export(active)
	if err != nil {
		r.println(errorStyle.Render("Error:"), err)
		return
	}
	r.println(renderMarkdown(r.out, string(content)))
}
