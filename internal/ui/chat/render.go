// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/jellycat-tui/internal/present"
	"github.com/jeranaias/jellycat-tui/internal/ui/styles"
	"github.com/jeranaias/jellycat-tui/internal/util"
)

// screenRenderer draws present view models with lipgloss. It is rebuilt for
// every View call from the model's current widgets and dimensions.
type screenRenderer struct {
	theme *styles.Theme
	md    *markdown

	// Outer dimensions
	width        int
	height       int
	sidebarWidth int

	// Widget views, rendered by the model
	spinner     string
	title       string
	messageView string
	contextView string
	attachView  string
	statusLine  string
	helpView    string
}

var _ present.Renderer = (*screenRenderer)(nil)

// mainWidth is the width of the column right of the sidebar.
func (r *screenRenderer) mainWidth() int {
	w := r.width - r.sidebarWidth
	if w < 20 {
		w = 20
	}
	return w
}

// bubbleWidth is the text width inside a message bubble: margin 4, border 2
// and padding 2.
func (r *screenRenderer) bubbleWidth() int {
	w := r.mainWidth() - 10
	if w < 10 {
		w = 10
	}
	return w
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (r *screenRenderer) Sidebar(sb present.Sidebar) string {
	if r.sidebarWidth == 0 {
		return ""
	}
	t := r.theme
	inner := r.sidebarWidth - 3 // border + padding

	var top []string
	top = append(top, t.SidebarHeader.Render(sb.Header), "")
	top = append(top, t.NewChatButton.Render("+ "+sb.NewChat), "")

	if sb.Empty != nil {
		top = append(top,
			t.EmptyTitle.Render(util.TruncateWidth(sb.Empty.Title, inner)),
			t.EmptyHint.Width(inner).Render(sb.Empty.Hint))
	}
	for _, item := range sb.Items {
		title := util.TruncateWidth(item.Title, inner-2)
		if item.Active {
			top = append(top, t.SessionItemActive.Render(util.PadWidth(title, inner-2)))
		} else {
			top = append(top, t.SessionItem.Render(title))
		}
		top = append(top, t.SessionMeta.Render(util.TruncateWidth(item.Stamp, inner-1)))
	}

	footer := lipgloss.JoinVertical(lipgloss.Left,
		t.SidebarFooter.Render(util.TruncateWidth(sb.Footer.Name, inner)),
		t.SidebarTagline.Render(util.TruncateWidth(sb.Footer.Tagline, inner)))

	body := lipgloss.JoinVertical(lipgloss.Left, top...)
	gap := r.height - lipgloss.Height(body) - lipgloss.Height(footer)
	if gap > 0 {
		body += strings.Repeat("\n", gap)
	}
	return t.Sidebar.
		Width(r.sidebarWidth - 1).
		Height(r.height).
		MaxHeight(r.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, body, footer))
}

// =============================================================================
// CONVERSATION
// =============================================================================

func (r *screenRenderer) Welcome(w present.Welcome) string {
	t := r.theme
	width := r.mainWidth() - 4
	privacy := t.PrivacyBox.Width(min(width, 64)).Render(
		t.PrivacyTitle.Render(w.PrivacyTitle) + "\n" + w.PrivacyBody)

	block := lipgloss.JoinVertical(lipgloss.Center,
		"",
		t.WelcomeTitle.Render(w.Title),
		t.WelcomeHint.Render(w.Hint),
		"",
		privacy)
	return lipgloss.PlaceHorizontal(r.mainWidth(), lipgloss.Center, block)
}

func (r *screenRenderer) Message(m present.MessageItem) string {
	t := r.theme
	width := r.bubbleWidth()

	label := t.AssistantLabel.Render(m.Label)
	if m.IsUser() {
		label = t.UserLabel.Render(m.Label)
	}
	header := label + " " + t.MessageTime.Render(m.Time)

	var parts []string
	for _, thought := range m.Thoughts {
		parts = append(parts, t.Thought.Width(width).Render("› "+thought))
	}
	if len(m.Files) > 0 {
		parts = append(parts, r.chips(m.Files, width))
	}

	switch {
	case m.Status == present.StatusFailed:
		header += " " + t.StoppedTag.Render(styles.StatusIndicators.Error)
		return lipgloss.JoinVertical(lipgloss.Left, header,
			t.ErrorBubble.Width(width+2).Render(strings.Join(append(parts, m.Error), "\n")))
	case m.Pending():
		parts = append(parts, r.spinner+" "+t.ThinkingText.Render(present.ThinkingLabel))
	case m.Body != "":
		body := lipgloss.NewStyle().Width(width).Render(m.Body)
		if !m.IsUser() && m.Status == present.StatusDone {
			if rendered, ok := r.md.render(m.ID, m.Body); ok {
				body = rendered
			}
		}
		parts = append(parts, body)
		if m.Status == present.StatusStreaming {
			parts = append(parts, r.spinner)
		}
	case m.Status == present.StatusStreaming:
		parts = append(parts, r.spinner)
	}
	if m.Status == present.StatusStopped {
		header += " " + t.StoppedTag.Render("("+present.StoppedLabel+")")
	}

	content := strings.Join(parts, "\n")
	if m.IsUser() {
		return lipgloss.JoinVertical(lipgloss.Right, header, t.UserBubble.Render(content))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, t.AssistantBubble.Render(content))
}

func (r *screenRenderer) Banner(text string) string {
	return r.theme.Banner.Width(r.mainWidth() - 2).Render(styles.StatusIndicators.Error + " " + text)
}

func (r *screenRenderer) chips(files []present.FileChip, width int) string {
	var rendered []string
	for _, f := range files {
		label := f.Icon + " " + util.TruncateWidth(f.Name, 24) + " (" + f.SizeText + ")"
		rendered = append(rendered, r.theme.FileChip.Render(label))
	}
	// Wrap chips onto as many rows as the width needs
	var rows []string
	row := ""
	for _, chip := range rendered {
		if row != "" && lipgloss.Width(row)+1+lipgloss.Width(chip) > width {
			rows = append(rows, row)
			row = ""
		}
		if row != "" {
			row += " "
		}
		row += chip
	}
	if row != "" {
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

// =============================================================================
// COMPOSER
// =============================================================================

func (r *screenRenderer) Composer(c present.Composer) string {
	t := r.theme
	width := r.mainWidth() - 2

	var lines []string
	if len(c.Pending) > 0 {
		lines = append(lines, r.chips(c.Pending, width))
	}
	if c.Uploading {
		lines = append(lines, r.spinner+" "+t.ThinkingText.Render("Reading attachments…"))
	}
	if c.UploadError != "" {
		lines = append(lines, t.UploadError.Render(styles.StatusIndicators.Error+" "+c.UploadError))
	}
	if r.attachView != "" {
		lines = append(lines, r.attachView)
	}
	lines = append(lines, r.messageView, r.contextView)

	var action string
	switch {
	case c.Loading:
		action = t.StopButton.Render("esc " + c.StopLabel)
	case c.CanSend:
		action = t.SendReady.Render("enter Send")
	default:
		action = t.SendBlocked.Render("enter Send")
	}
	if r.statusLine != "" {
		action += "  " + t.ShortcutDesc.Render(util.TruncateWidth(r.statusLine, width-lipgloss.Width(action)-2))
	}
	lines = append(lines, action)

	return t.InputContainer.Width(width).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// LAYOUT
// =============================================================================

// Layout puts the sidebar left of the title, conversation and composer,
// with the key help below both.
func (r *screenRenderer) Layout(sidebar, conversation, composer string) string {
	t := r.theme
	title := t.SidebarHeader.Render(util.TruncateWidth(r.title, r.mainWidth()-2))
	main := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Padding(0, 1).Render(title),
		conversation,
		composer)
	main = lipgloss.NewStyle().Width(r.mainWidth()).MaxHeight(r.height).Render(main)

	screen := main
	if sidebar != "" {
		screen = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
	}
	status := t.StatusBar.Width(r.width).Render(r.helpView)
	return lipgloss.JoinVertical(lipgloss.Left, screen, status)
}
