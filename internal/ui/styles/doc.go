// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the jellycat TUI.

# Colors (colors.go)

Every color is a Lip Gloss AdaptiveColor with a light and a dark variant.
Indigo is the brand accent; Cyan marks the user, Purple the assistant,
Rose failures and Amber stopped replies.

# Theme (theme.go)

NewTheme resolves a Mode ("auto", "dark" or "light", from config ui.theme)
and builds every style of the chat screen:

	theme := styles.NewTheme(styles.ParseMode(cfg.UI.Theme))
	markdown := theme.GlamourStyle() // "dark" or "light"

Auto mode queries the terminal background through termenv. A forced mode
is applied process-wide, so rebuilding the theme after a config reload
switches every AdaptiveColor at once.

# Layout

SetSize records the window size; GetLayoutMode and SidebarWidth pick the
responsive layout. Terminals under 60 columns hide the sidebar.
*/
package styles
