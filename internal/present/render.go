// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package present

import "strings"

// Renderer draws each component of a Page for one host. Implementations
// return finished text for their output device and must not retain the
// view models.
type Renderer interface {
	Sidebar(Sidebar) string
	Welcome(Welcome) string
	Message(MessageItem) string
	Banner(text string) string
	Composer(Composer) string

	// Layout arranges the rendered parts into the final screen.
	Layout(sidebar, conversation, composer string) string
}

// Render draws the whole page through r.
func Render(r Renderer, p Page) string {
	return r.Layout(r.Sidebar(p.Sidebar), RenderConversation(r, p.Conversation), r.Composer(p.Composer))
}

// RenderConversation draws the message pane: the messages or the welcome
// screen, followed by the error banner when one is set.
func RenderConversation(r Renderer, c Conversation) string {
	var parts []string
	if c.Welcome != nil {
		parts = append(parts, r.Welcome(*c.Welcome))
	}
	for _, msg := range c.Messages {
		parts = append(parts, r.Message(msg))
	}
	if c.Error != "" {
		parts = append(parts, r.Banner(c.Error))
	}
	return strings.Join(parts, "\n\n")
}
