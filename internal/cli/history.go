// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jeranaias/dsamentor/internal/conversation"
	"github.com/jeranaias/dsamentor/internal/export"
	"github.com/jeranaias/dsamentor/internal/model"
	"github.com/jeranaias/dsamentor/internal/util"
)

func newHistoryCommand(f *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "Manage saved conversations",
	}
	cmd.AddCommand(
		newHistoryListCommand(f),
		newHistoryShowCommand(f),
		newHistoryExportCommand(f),
		newHistoryRenameCommand(f),
		newHistoryKeepCommand(f),
		newHistoryDeleteCommand(f),
		newHistoryPruneCommand(f),
	)
	return cmd
}

// withHistory opens the app, loads the saved conversations and runs fn.
func withHistory(f *GlobalFlags, fn func(app *App) error) error {
	cfg, err := f.LoadConfig()
	if err != nil {
		return err
	}
	app, err := OpenApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	app.Repo.LoadAll()
	return fn(app)
}

// resolveConversation finds a conversation by list row (1-based), full ID
// or unique ID prefix.
func resolveConversation(repo *conversation.Repository, ref string) (model.Conversation, error) {
	ref = strings.TrimSpace(ref)
	recent := repo.Recent()

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(recent) {
			return model.Conversation{}, errors.Errorf("no conversation at row %d (have %d)", n, len(recent))
		}
		return recent[n-1], nil
	}
	if conv, ok := repo.Get(ref); ok {
		return conv, nil
	}

	var matches []model.Conversation
	for _, c := range recent {
		if strings.HasPrefix(c.ID, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return model.Conversation{}, errors.Wrap(conversation.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return model.Conversation{}, errors.Errorf("%q matches %d conversations, use a longer prefix", ref, len(matches))
	}
}

// =============================================================================
// LIST
// =============================================================================

type historyEntry struct {
	Row        int       `json:"row"`
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Messages   int       `json:"messages"`
	Updated    time.Time `json:"updated"`
	Bookmarked bool      `json:"bookmarked"`
}

func newHistoryListCommand(f *GlobalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved conversations, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(f, func(app *App) error {
				entries := historyEntries(app.Repo)
				if asJSON {
					data, err := json.MarshalIndent(entries, "", "  ")
					if err != nil {
						return errors.Wrap(err, "could not encode history")
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return nil
				}
				printHistory(cmd.OutOrStdout(), entries, time.Now())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func historyEntries(repo *conversation.Repository) []historyEntry {
	recent := repo.Recent()
	entries := make([]historyEntry, 0, len(recent))
	for i, c := range recent {
		entries = append(entries, historyEntry{
			Row:        i + 1,
			ID:         c.ID,
			Title:      c.Title,
			Messages:   len(c.Messages),
			Updated:    c.Timestamp,
			Bookmarked: repo.IsBookmarked(c.ID),
		})
	}
	return entries
}

func printHistory(w io.Writer, entries []historyEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No conversations yet")
		return
	}
	for _, e := range entries {
		mark := " "
		if e.Bookmarked {
			mark = "*"
		}
		id := e.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(w, "%3d %s %s  %s  %3d msgs  %s\n",
			e.Row, mark, id,
			util.PadRight(util.TruncateWidth(util.SingleLine(e.Title), 40), 40),
			e.Messages, util.FormatRelative(e.Updated, now))
	}
}

// =============================================================================
// SHOW
// =============================================================================

func newHistoryShowCommand(f *GlobalFlags) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <ref>",
		Short: "Print a conversation as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(f, func(app *App) error {
				conv, err := resolveConversation(app.Repo, args[0])
				if err != nil {
					return err
				}
				content, err := export.NewMarkdownExporter(&export.Options{IncludeTimestamps: true}).Export(conv)
				if err != nil {
					return errors.Wrap(err, "could not render conversation")
				}
				out := cmd.OutOrStdout()
				text := string(content)
				if !raw {
					text = renderMarkdown(out, text)
				}
				fmt.Fprintln(out, text)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown source even on a terminal")
	return cmd
}

// =============================================================================
// EXPORT
// =============================================================================

type exportFlags struct {
	Format       string
	OutputDir    string
	Theme        string
	NoMetadata   bool
	NoTimestamps bool
	All          bool
}

func (e *exportFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&e.Format, "format", "f", "markdown",
		"Export format ("+strings.Join(export.Formats(), ", ")+")")
	fs.StringVarP(&e.OutputDir, "output", "o", ".", "Directory to write into")
	fs.StringVar(&e.Theme, "theme", "dark", "HTML theme (dark, light)")
	fs.BoolVar(&e.NoMetadata, "no-metadata", false, "Omit the header and frontmatter")
	fs.BoolVar(&e.NoTimestamps, "no-timestamps", false, "Omit per-message times")
	fs.BoolVar(&e.All, "all", false, "Export every saved conversation")
}

func (e *exportFlags) options() *export.Options {
	opts := export.DefaultOptions()
	opts.OutputDir = e.OutputDir
	opts.Theme = e.Theme
	opts.IncludeMetadata = !e.NoMetadata
	opts.IncludeTimestamps = !e.NoTimestamps
	return opts
}

func newHistoryExportCommand(f *GlobalFlags) *cobra.Command {
	e := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export [ref]",
		Short: "Write a conversation to a file",
		Example: `  dsamentor history export 1
  dsamentor history export 0190b5c2 --format html --theme light
  dsamentor history export --all --format json -o ./exports`,
		Args: func(cmd *cobra.Command, args []string) error {
			if e.All {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := e.options()
			exporter, err := export.ForFormat(e.Format, opts)
			if err != nil {
				return err
			}
			return withHistory(f, func(app *App) error {
				var convs []model.Conversation
				if e.All {
					convs = app.Repo.Recent()
				} else {
					conv, err := resolveConversation(app.Repo, args[0])
					if err != nil {
						return err
					}
					convs = []model.Conversation{conv}
				}

				out := cmd.OutOrStdout()
				written := 0
				for _, conv := range convs {
					if len(conv.Messages) == 0 && e.All {
						continue
					}
					path, err := export.ExportToFile(conv, exporter, opts)
					if err != nil {
						return errors.Wrapf(err, "could not export %s", conv.ID)
					}
					app.Log.WithField("conversation", conv.ID).WithField("path", path).Info("conversation exported")
					fmt.Fprintln(out, path)
					written++
				}
				if written == 0 {
					fmt.Fprintln(out, "Nothing to export")
				}
				return nil
			})
		},
	}

	e.BindFlags(cmd.Flags())
	return cmd
}

// =============================================================================
// DELETE / PRUNE
// =============================================================================

func newHistoryRenameCommand(f *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <ref> <title>",
		Short: "Change the title of a saved conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(f, func(app *App) error {
				conv, err := resolveConversation(app.Repo, args[0])
				if err != nil {
					return err
				}
				if err := app.Repo.SetTitle(conv.ID, strings.Join(args[1:], " ")); err != nil {
					return errors.Wrapf(err, "could not rename %s", conv.ID)
				}
				renamed, _ := app.Repo.Get(conv.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", conv.Title, renamed.Title)
				return nil
			})
		},
	}
}

func newHistoryKeepCommand(f *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "keep <ref>",
		Short: "Restart the retention window of a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(f, func(app *App) error {
				conv, err := resolveConversation(app.Repo, args[0])
				if err != nil {
					return err
				}
				if err := app.Repo.Touch(conv.ID); err != nil {
					return errors.Wrapf(err, "could not update %s", conv.ID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Kept %q for another %s\n", conv.Title, conversation.RetentionPeriod)
				return nil
			})
		},
	}
}

func newHistoryDeleteCommand(f *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <ref>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved conversation and its bookmark",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(f, func(app *App) error {
				conv, err := resolveConversation(app.Repo, args[0])
				if err != nil {
					return err
				}
				if err := app.Repo.Delete(conv.ID); err != nil {
					return errors.Wrapf(err, "could not delete %s", conv.ID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", conv.Title)
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(f *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove conversations older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.LoadConfig()
			if err != nil {
				return err
			}
			app, err := OpenApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			// LoadAll applies the retention window and writes back.
			before := len(app.Records.LoadConversations())
			after := len(app.Repo.LoadAll())
			removed, err := app.Repo.Prune()
			if err != nil {
				return errors.Wrap(err, "could not save pruned history")
			}
			removed += before - after
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d conversation(s) older than %s\n",
				removed, conversation.RetentionPeriod)
			return nil
		},
	}
}
