// jellycat - A terminal client for JellyCat AI chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/jellycat-tui/internal/api"
	"github.com/jeranaias/jellycat-tui/internal/cli"
	"github.com/jeranaias/jellycat-tui/internal/config"
	"github.com/jeranaias/jellycat-tui/internal/logging"
	"github.com/jeranaias/jellycat-tui/internal/server"
	"github.com/jeranaias/jellycat-tui/internal/session"
	"github.com/jeranaias/jellycat-tui/internal/ui/chat"
	"github.com/jeranaias/jellycat-tui/internal/ui/styles"
	"github.com/jeranaias/jellycat-tui/internal/upload"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

// shutdownTimeout bounds how long serve waits for open streams.
const shutdownTimeout = 10 * time.Second

func main() {
	cmd, args := cli.Parse(os.Args[1:])
	if err := run(cmd, args); err != nil {
		cli.DisplayError(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

func run(cmd cli.Command, args cli.Args) error {
	switch cmd {
	case cli.CmdHelp:
		if args.Unknown != "" {
			cli.PrintUsage(os.Stderr)
			return cli.NewValidationErrorWithExample("command", args.Unknown, "unknown command", "jellycat help")
		}
		cli.PrintUsage(os.Stdout)
		return nil
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return nil
	case cli.CmdConfig:
		if args.Subcommand != "" && args.Subcommand != "show" {
			return cli.HandleConfig(os.Stdout, args, nil)
		}
	}

	path, err := cli.ResolveConfigPath(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(path, args)
	if err != nil {
		return err
	}
	if cmd == cli.CmdConfig {
		return cli.HandleConfig(os.Stdout, args, cfg)
	}

	if err := logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		return cli.NewCommandError(cmd.String(), "start", "cannot open log file", err)
	}
	defer logging.Sync()
	logger := logging.L().With(zap.String("command", cmd.String()), zap.String("version", Version))

	switch cmd {
	case cli.CmdServe:
		return runServe(cfg, logger)
	case cli.CmdChat:
		return runChat(cfg, logger)
	default:
		return runTUI(cfg, path, logger)
	}
}

// loadConfig reads path, then applies flags over the file and environment.
func loadConfig(path string, args cli.Args) (*config.Config, error) {
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	if err := args.Apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

func newClient(cfg *config.Config, logger *zap.Logger) *api.Client {
	return api.NewClient(&api.ClientConfig{
		BaseURL:    cfg.API.URL,
		ChatPath:   cfg.API.ChatPath,
		HealthPath: cfg.API.HealthPath,
		Timeout:    time.Duration(cfg.API.TimeoutSecs) * time.Second,
		UserAgent:  "jellycat-tui/" + Version,
		Logger:     logger.Named("api"),
	})
}

// =============================================================================
// FULL-SCREEN CHAT
// =============================================================================

func runTUI(cfg *config.Config, path string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	client := newClient(cfg, logger)
	opts := chat.Options{
		Controller:     session.NewController(client, logger.Named("session")),
		Uploads:        upload.NewState(logger.Named("upload")),
		Theme:          styles.NewTheme(styles.ParseMode(cfg.UI.Theme)),
		ShowThoughts:   cfg.UI.ShowThoughts,
		RenderMarkdown: cfg.UI.RenderMarkdown,
		ExportDir:      cfg.UI.ExportDir,
		Logger:         logger.Named("ui"),
	}

	// The watcher needs the directory; without it there is nothing to reload.
	watchPath := path
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		watchPath = ""
	}

	logger.Info("tui starting", zap.String("api_url", cfg.API.URL))
	if err := chat.Run(ctx, opts, watchPath); err != nil {
		return fmt.Errorf("chat screen: %w", err)
	}
	return nil
}

// =============================================================================
// LINE-MODE CHAT
// =============================================================================

func runChat(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	client := newClient(cfg, logger)
	if err := client.Health(ctx); err != nil {
		_, msg := api.Describe(err)
		fmt.Fprintln(os.Stderr, styles.RenderWarning(fmt.Sprintf("%s is not answering: %s", cfg.API.URL, msg)))
	}

	var historyFile string
	if dir, err := config.ConfigDir(); err == nil {
		historyFile = filepath.Join(dir, "chat_history")
	}

	theme := styles.NewTheme(styles.ParseMode(cfg.UI.Theme))
	repl := cli.NewREPL(cli.REPLOptions{
		Controller:   session.NewController(client, logger.Named("session")),
		Uploads:      upload.NewState(logger.Named("upload")),
		HistoryFile:  historyFile,
		Markdown:     cfg.UI.RenderMarkdown && cli.IsStdoutTTY(),
		GlamourStyle: theme.GlamourStyle(),
		ShowThoughts: cfg.UI.ShowThoughts,
		ExportDir:    cfg.UI.ExportDir,
		Logger:       logger.Named("repl"),
	})
	defer repl.Close()

	return repl.Run(ctx)
}

// =============================================================================
// DEVELOPMENT BACKEND
// =============================================================================

func runServe(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		FramesPerSecond: cfg.Server.FramesPerSecond,
		RequestLogging:  cfg.Server.RequestLogging,
		Logger:          logger.Named("server"),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	fmt.Println(styles.RenderInfo(fmt.Sprintf("Serving the chat API on http://%s (Ctrl+C to stop)", srv.Addr())))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
