// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/jellycat-tui/internal/config"
)

// Run shows the chat screen until the user quits or ctx is cancelled. When
// configPath is set, edits to that file are applied live.
func Run(ctx context.Context, opts Options, configPath string) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := New(ctx, opts)
	defer m.Close()

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if configPath != "" {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := config.Watch(watchCtx, configPath, func(cfg *config.Config, err error) {
				p.Send(ConfigReloadedMsg{Config: cfg, Err: err})
			})
			if err != nil {
				logger.Warn("config watch unavailable", zap.String("path", configPath), zap.Error(err))
			}
		}()
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
