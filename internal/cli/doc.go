// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the dsamentor command line.
//
// Running the binary without a subcommand starts the full-screen chat.
// The subcommands share the same config, store and assistant wiring.
//
// # Commands
//
//	dsamentor                       Start the TUI
//	dsamentor chat                  Line-mode chat in the current terminal
//	dsamentor history list          List saved conversations
//	dsamentor history show <ref>    Print one conversation
//	dsamentor history export <ref>  Write markdown, json, yaml or html
//	dsamentor history rename <ref> <title>  Retitle a conversation
//	dsamentor history keep <ref>    Restart its retention window
//	dsamentor history delete <ref>  Remove a conversation
//	dsamentor history prune         Apply the retention window now
//	dsamentor config show|get|set|path|init
//	dsamentor version [-o short|json|yaml]
//
// A <ref> is a row number from "history list", a full conversation ID, or
// a unique ID prefix.
//
// # Key Types
//
//   - GlobalFlags: --config, --data-dir, --storage, --log-level
//   - App: the wired store, repository and assistant
//
// # Usage
//
//	func main() {
//		os.Exit(cli.Execute())
//	}
package cli
