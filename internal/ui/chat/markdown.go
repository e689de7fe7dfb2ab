// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

// markdown renders finished assistant replies with glamour and caches the
// result per message, so scrolling and streaming other messages do not
// re-render settled ones.
type markdown struct {
	style  string
	width  int
	enable bool
	logger *zap.Logger

	renderer *glamour.TermRenderer
	cache    map[string]renderedMarkdown
}

type renderedMarkdown struct {
	source string
	output string
}

func newMarkdown(style string, enable bool, logger *zap.Logger) *markdown {
	return &markdown{
		style:  style,
		enable: enable,
		logger: logger,
		cache:  make(map[string]renderedMarkdown),
	}
}

// configure changes style or wrap width, dropping the cache when either
// differs.
func (md *markdown) configure(style string, width int, enable bool) {
	if style == md.style && width == md.width && enable == md.enable {
		return
	}
	md.style = style
	md.width = width
	md.enable = enable
	md.renderer = nil
	md.cache = make(map[string]renderedMarkdown)
}

// render returns the rendered form of source for message id. ok is false
// when glamour is disabled or fails.
func (md *markdown) render(id, source string) (out string, ok bool) {
	if !md.enable || source == "" {
		return "", false
	}
	if hit, found := md.cache[id]; found && hit.source == source {
		return hit.output, true
	}

	if md.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(md.style),
			glamour.WithWordWrap(md.width),
		)
		if err != nil {
			md.logger.Warn("markdown renderer unavailable", zap.Error(err))
			md.enable = false
			return "", false
		}
		md.renderer = r
	}

	out, err := md.renderer.Render(source)
	if err != nil {
		md.logger.Debug("markdown render failed", zap.String("message_id", id), zap.Error(err))
		return "", false
	}
	out = strings.Trim(out, "\n")
	md.cache[id] = renderedMarkdown{source: source, output: out}
	return out, true
}

// forget drops cached output for messages not in keep.
func (md *markdown) forget(keep map[string]bool) {
	for id := range md.cache {
		if !keep[id] {
			delete(md.cache, id)
		}
	}
}
