// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for jellycat.

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/jeranaias/jellycat-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdServe
	CmdConfig
	CmdVersion
	CmdHelp
)

func (c Command) String() string {
	switch c {
	case CmdChat:
		return "chat"
	case CmdServe:
		return "serve"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "tui"
	}
}

// Args holds parsed CLI arguments. Empty strings and false mean "not given"
// so that Apply only overrides what the user typed.
type Args struct {
	// Global flags
	ConfigPath   string
	APIURL       string
	Theme        string
	LogLevel     string
	LogFile      string
	NoMarkdown   bool
	HideThoughts bool

	// serve
	Addr            string
	FramesPerSecond string

	// config
	Subcommand string
	Force      bool

	// Unrecognised command, reported by the caller
	Unknown string

	Raw []string
}

var boolFlags = []string{"no-markdown", "hide-thoughts", "verbose", "v", "force", "help", "h", "version"}

const usageText = `jellycat - chat with JellyCat AI from the terminal

Usage:
  jellycat [flags] [command]

Commands:
  (none), tui             Full-screen chat (default)
  chat                    Line-mode chat with history
  serve                   Run the development backend
  config [show|path|init|validate]
                          Inspect or create the config file
  version                 Show version information
  help                    Show this help

Flags:
  --config PATH           Config file (default: ~/.jellycat/config.toml)
  --api-url URL           Backend origin (env: JELLYCAT_API_URL)
  --theme auto|dark|light Color theme (env: JELLYCAT_THEME)
  --log-level LEVEL       debug, info, warn or error
  --log-file PATH         Write JSON logs to PATH
  -v, --verbose           Same as --log-level debug
  --no-markdown           Show replies as plain text
  --hide-thoughts         Hide processing steps

serve flags:
  --addr HOST:PORT        Listen address (default: 127.0.0.1:8080)
  --fps N                 Frames per second, 0 for unpaced

config init flags:
  --force                 Overwrite an existing file

Examples:
  jellycat
  jellycat --api-url http://10.0.0.5:8080 chat
  jellycat serve --addr :9000 --fps 20
  jellycat config init

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "jellycat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args) {
	p := NewArgParser(argv, boolFlags...)

	args := Args{
		ConfigPath:      p.Flag("config"),
		APIURL:          p.Flag("api-url"),
		Theme:           p.Flag("theme"),
		LogLevel:        p.Flag("log-level"),
		LogFile:         p.Flag("log-file"),
		NoMarkdown:      p.BoolFlag("no-markdown"),
		HideThoughts:    p.BoolFlag("hide-thoughts"),
		Addr:            p.Flag("addr"),
		FramesPerSecond: p.Flag("fps"),
		Force:           p.BoolFlag("force"),
		Raw:             p.PositionalFrom(1),
	}
	if p.BoolFlag("verbose", "v") && args.LogLevel == "" {
		args.LogLevel = "debug"
	}

	if p.BoolFlag("help", "h") {
		return CmdHelp, args
	}
	if p.BoolFlag("version") {
		return CmdVersion, args
	}

	switch cmd := strings.ToLower(p.Subcommand()); cmd {
	case "", "tui":
		return CmdTUI, args
	case "chat", "repl":
		return CmdChat, args
	case "serve", "server":
		return CmdServe, args
	case "config":
		args.Subcommand = strings.ToLower(p.Positional(1))
		return CmdConfig, args
	case "version":
		return CmdVersion, args
	case "help":
		return CmdHelp, args
	default:
		args.Unknown = cmd
		return CmdHelp, args
	}
}

// Apply writes the flags the user gave over cfg.
func (a Args) Apply(cfg *config.Config) error {
	if a.APIURL != "" {
		cfg.API.URL = a.APIURL
	}
	if a.Theme != "" {
		cfg.UI.Theme = a.Theme
	}
	if a.LogLevel != "" {
		cfg.Logging.Level = a.LogLevel
	}
	if a.LogFile != "" {
		cfg.Logging.File = a.LogFile
	}
	if a.NoMarkdown {
		cfg.UI.RenderMarkdown = false
	}
	if a.HideThoughts {
		cfg.UI.ShowThoughts = false
	}
	if a.Addr != "" {
		cfg.Server.Addr = a.Addr
	}
	if a.FramesPerSecond != "" {
		fps, err := strconv.ParseFloat(a.FramesPerSecond, 64)
		if err != nil || fps < 0 {
			return NewValidationErrorWithExample("fps", a.FramesPerSecond, "must be a non-negative number", "--fps 20")
		}
		cfg.Server.FramesPerSecond = fps
	}
	return nil
}
