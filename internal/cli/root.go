// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jeranaias/dsamentor/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// GlobalFlags holds the persistent flags shared by every command. Non-empty
// values override the config file and the environment.
type GlobalFlags struct {
	ConfigPath string
	DataDir    string
	Storage    string
	LogLevel   string
}

func NewGlobalFlags() *GlobalFlags {
	return &GlobalFlags{}
}

func (f *GlobalFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", f.ConfigPath,
		"Config file (default ~/.dsamentor/config.toml)")
	fs.StringVar(&f.DataDir, "data-dir", f.DataDir,
		"Directory for the conversation store and the log")
	fs.StringVar(&f.Storage, "storage", f.Storage,
		"Storage backend (bolt, file, sqlite)")
	fs.StringVar(&f.LogLevel, "log-level", f.LogLevel,
		"Log level (trace,debug,info,warn,error) (default info)")
}

// LoadConfig loads the configuration and applies the flag overrides.
func (f *GlobalFlags) LoadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.ConfigPath != "" {
		cfg, err = config.LoadFromPath(f.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not load config")
	}

	if f.DataDir != "" {
		cfg.Storage.DataDir = f.DataDir
	}
	if f.Storage != "" {
		cfg.Storage.Backend = f.Storage
	}
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid flag value")
	}
	return cfg, nil
}

// configFilePath is the file "config set" and "config init" write to.
func (f *GlobalFlags) configFilePath() (string, error) {
	if f.ConfigPath != "" {
		return f.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the dsamentor command tree.
func NewRootCommand() *cobra.Command {
	f := NewGlobalFlags()

	cmd := &cobra.Command{
		Use:   "dsamentor",
		Short: "A DSA teaching assistant for LeetCode problems",
		Long: `dsamentor helps you work through LeetCode problems without handing
you the answer. Paste a problem URL, describe what you are stuck on, or
submit your code, and the mentor replies with hints, guiding questions and
the underlying data structures and algorithms concepts.

Conversations are saved locally for 72 hours.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, f)
		},
	}

	f.BindFlags(cmd.PersistentFlags())
	cmd.AddCommand(
		newChatCommand(f),
		newHistoryCommand(f),
		newConfigCommand(f),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}
