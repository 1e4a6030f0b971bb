// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/dsamentor/internal/ui/chat"
	"github.com/jeranaias/dsamentor/internal/ui/styles"
)

func runTUI(cmd *cobra.Command, f *GlobalFlags) error {
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

	if err := app.StartAssistant(ctx, AssistantOptions{}); err != nil {
		return err
	}

	m := chat.New(chat.Options{
		Assistant: app.Assistant,
		Theme:     styles.NewTheme(app.Repo.DarkMode()),
		Context:   ctx,
		Log:       app.Log,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "could not run the chat UI")
	}
	app.Log.Info("chat UI closed")
	return nil
}

// commandContext returns the command's context, or Background before the
// command has been executed.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
