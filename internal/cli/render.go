// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Line-mode drawing of the chat page.

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/jellycat-tui/internal/present"
	"github.com/jeranaias/jellycat-tui/internal/ui/styles"
)

// lineRenderer draws a present.Page as plain scrolling text, one block per
// component, for terminals and pipes alike.
type lineRenderer struct {
	width    int
	markdown bool
	style    string
	logger   *zap.Logger

	md *glamour.TermRenderer
}

func newLineRenderer(width int, markdown bool, style string, logger *zap.Logger) *lineRenderer {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	if style == "" {
		style = "dark"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &lineRenderer{width: width, markdown: markdown, style: style, logger: logger}
}

var _ present.Renderer = (*lineRenderer)(nil)

func (r *lineRenderer) Sidebar(s present.Sidebar) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(s.Header))
	b.WriteString("\n")
	if s.Empty != nil {
		b.WriteString("  " + SectionStyle.Render(s.Empty.Title) + "\n")
		b.WriteString("  " + DimStyle.Render("Type /new to start"))
		return b.String()
	}
	for i, item := range s.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		marker := "  "
		title := item.Title
		if item.Active {
			marker = "* "
			title = ActiveStyle.Render(title)
		}
		meta := fmt.Sprintf("%s · %s", item.Stamp, countLabel(item.Count))
		fmt.Fprintf(&b, "%s%2d. %s  %s", marker, item.Index, title, DimStyle.Render(meta))
	}
	return b.String()
}

func countLabel(n int) string {
	if n == 1 {
		return "1 message"
	}
	return fmt.Sprintf("%d messages", n)
}

func (r *lineRenderer) Welcome(w present.Welcome) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(w.Title) + "\n")
	b.WriteString(DimStyle.Render(w.Hint) + "\n\n")
	b.WriteString(SectionStyle.Render(w.PrivacyTitle) + "\n")
	b.WriteString(WrapText(w.PrivacyBody, r.width))
	return b.String()
}

func (r *lineRenderer) Message(m present.MessageItem) string {
	var b strings.Builder

	label := AssistantLabelStyle.Render(m.Label)
	if m.IsUser() {
		label = UserLabelStyle.Render(m.Label)
	}
	b.WriteString(label)
	if m.Time != "" {
		b.WriteString(" " + DimStyle.Render(m.Time))
	}

	for _, t := range m.Thoughts {
		b.WriteString("\n" + ThoughtStyle.Render("› "+t))
	}
	if len(m.Files) > 0 {
		b.WriteString("\n" + chipLine(m.Files))
	}

	switch {
	case m.Status == present.StatusFailed:
		b.WriteString("\n" + ErrorStyle.Render(styles.StatusIndicators.Error+" "+m.Error))
	case m.Pending():
		b.WriteString("\n" + DimStyle.Render(present.ThinkingLabel))
	case m.Body != "":
		b.WriteString("\n" + r.body(m))
	}
	if m.Status == present.StatusStopped {
		b.WriteString("\n" + DimStyle.Render("("+present.StoppedLabel+")"))
	}
	return b.String()
}

// body renders finished assistant replies as markdown when enabled.
func (r *lineRenderer) body(m present.MessageItem) string {
	if r.markdown && !m.IsUser() && m.Status == present.StatusDone {
		if out, ok := r.renderMarkdown(m.Body); ok {
			return out
		}
	}
	return WrapText(m.Body, r.width)
}

func (r *lineRenderer) renderMarkdown(source string) (string, bool) {
	if r.md == nil {
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(r.width),
		)
		if err != nil {
			r.logger.Debug("markdown renderer unavailable", zap.Error(err))
			r.markdown = false
			return "", false
		}
		r.md = md
	}
	out, err := r.md.Render(source)
	if err != nil {
		r.logger.Debug("markdown render failed", zap.Error(err))
		return "", false
	}
	return strings.Trim(out, "\n"), true
}

func (r *lineRenderer) Banner(text string) string {
	return ErrorStyle.Render(styles.StatusIndicators.Error + " " + text)
}

func (r *lineRenderer) Composer(c present.Composer) string {
	var lines []string
	if len(c.Pending) > 0 {
		lines = append(lines, "Attached: "+chipLine(c.Pending))
	}
	if c.Uploading {
		lines = append(lines, DimStyle.Render("Reading attachments…"))
	}
	if c.UploadError != "" {
		lines = append(lines, WarningStyle.Render(styles.StatusIndicators.Warning+" "+c.UploadError))
	}
	if c.Context != "" {
		lines = append(lines, "Context: "+c.Context)
	}
	switch {
	case c.Loading:
		lines = append(lines, DimStyle.Render("Replying… Ctrl+C to "+strings.ToLower(c.StopLabel)))
	case c.CanSend:
		lines = append(lines, SuccessStyle.Render("Ready to send"))
	default:
		lines = append(lines, DimStyle.Render(c.MessagePlaceholder))
	}
	return strings.Join(lines, "\n")
}

// Layout stacks the parts with rules between them.
func (r *lineRenderer) Layout(sidebar, conversation, composer string) string {
	rule := RenderSeparator(min(r.width, 70))
	return strings.Join([]string{sidebar, rule, conversation, rule, composer}, "\n")
}

func chipLine(chips []present.FileChip) string {
	parts := make([]string, len(chips))
	for i, c := range chips {
		parts[i] = ChipStyle.Render(fmt.Sprintf("%s %s (%s)", c.Icon, c.Name, c.SizeText))
	}
	return strings.Join(parts, "  ")
}
