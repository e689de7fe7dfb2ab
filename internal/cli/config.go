// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for jellycat.
//
// Command: config [subcommand]
// Short:   Inspect or create the configuration file
//
// Subcommands:
//   show (default)      Print the effective configuration as TOML
//   path                Print the configuration file path
//   init [--force]      Write the defaults to the configuration file
//   validate            Load the file and report problems
//
// Examples:
//   jellycat config
//   jellycat --config ./dev.toml config validate
//   jellycat config init --force

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/jellycat-tui/internal/config"
	"github.com/jeranaias/jellycat-tui/internal/ui/styles"
)

// ResolveConfigPath returns the --config path or the default location.
func ResolveConfigPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPath()
}

// HandleConfig runs a config subcommand. cfg is the effective
// configuration used by show.
func HandleConfig(w io.Writer, args Args, cfg *config.Config) error {
	path, err := ResolveConfigPath(args)
	if err != nil {
		return NewCommandError("config", "path", "cannot locate config file", err)
	}

	switch args.Subcommand {
	case "", "show":
		if cfg == nil {
			cfg = config.Default()
		}
		fmt.Fprintln(w, DimStyle.Render("# "+path))
		fmt.Fprint(w, cfg.String())
		return nil
	case "path":
		fmt.Fprintln(w, path)
		return nil
	case "init":
		return handleConfigInit(w, path, args.Force)
	case "validate", "check":
		return handleConfigValidate(w, path)
	default:
		return NewValidationErrorWithExample("subcommand", args.Subcommand,
			"must be one of show, path, init, validate", "jellycat config init")
	}
}

func handleConfigInit(w io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return NewCommandError("config", "init", path+" already exists (use --force to overwrite)", nil)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return NewCommandError("config", "init", "cannot stat "+path, err)
	}

	if err := config.SaveTOML(config.Default(), path); err != nil {
		return NewCommandError("config", "init", "cannot write "+path, err)
	}
	fmt.Fprintln(w, styles.RenderSuccess("Wrote "+path))
	return nil
}

func handleConfigValidate(w io.Writer, path string) error {
	if _, err := config.LoadFromPath(path); err != nil {
		return err
	}
	fmt.Fprintln(w, styles.RenderSuccess(path+" is valid"))
	return nil
}
