// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-mode chat host
// for jellycat.
//
// # Key Types
//
//   - Command: the subcommand to run (tui, chat, serve, config, version, help)
//   - Args: parsed flags; Apply writes them over a loaded config
//   - ArgParser: flag and positional splitting shared with the REPL
//   - REPL: interactive chat on a liner prompt, drawing pages through
//     the same present view models as the full-screen UI
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdChat:
//	    repl := cli.NewREPL(cli.REPLOptions{Controller: ctrl, Uploads: files})
//	    defer repl.Close()
//	    return repl.Run(ctx)
//	case cli.CmdConfig:
//	    return cli.HandleConfig(os.Stdout, args, cfg)
//	}
//
// Output is colored only when stdout is a terminal and NO_COLOR is unset.
package cli
