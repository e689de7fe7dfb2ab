// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Styles for line-mode output.
//
// Colors come from the shared palette so the REPL and the full-screen
// chat look alike. lipgloss is switched to the Ascii profile when stdout
// is not a color terminal.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/jellycat-tui/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Indigo)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextPrimary)

	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	UserLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.UserBubbleBorder)

	AssistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(styles.Purple)

	ActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Indigo)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Emerald)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Rose)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	ThoughtStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(styles.TextSecondary)

	ChipStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// RenderSeparator renders a horizontal rule, 70 columns unless width is given.
func RenderSeparator(width ...int) string {
	w := 70
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("─", w))
}
