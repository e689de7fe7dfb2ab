// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/jellycat-tui/internal/export"
	"github.com/jeranaias/jellycat-tui/internal/model"
	"github.com/jeranaias/jellycat-tui/internal/present"
	"github.com/jeranaias/jellycat-tui/internal/upload"
	"github.com/jeranaias/jellycat-tui/internal/util"
)

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.ctrl.StopGeneration()
		m.bridge.close()
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		m.refresh()
		return m, nil
	}

	if m.attaching {
		return m.handleAttachKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Stop):
		if m.snap.IsLoading {
			m.ctrl.StopGeneration()
			m.status = "Stopped"
		} else {
			m.status = ""
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.SwitchField):
		if m.focus == focusMessage {
			m.setFocus(focusContext)
		} else {
			m.setFocus(focusMessage)
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		m.ctrl.CreateNewSession()
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.DeleteChat):
		if m.snap.ActiveID != "" {
			m.ctrl.DeleteSession(m.snap.ActiveID)
			m.status = "Chat deleted"
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevSession):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextSession):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Attach):
		m.attaching = true
		m.setFocus(focusAttach)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		sess := m.snap.Active()
		if sess == nil || sess.IsEmpty() {
			m.status = "Nothing to export"
			m.refresh()
			return m, nil
		}
		m.status = "Exporting…"
		m.refresh()
		return m, m.exportCmd(sess)

	case key.Matches(msg, m.keys.Detach):
		files := m.uploads.Files()
		if len(files) > 0 {
			last := files[len(files)-1]
			m.uploads.RemoveFile(last.ID)
			m.status = "Removed " + last.Name
			m.refresh()
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m Model) handleAttachKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		path := strings.TrimSpace(m.attach.Value())
		m.closeAttach()
		m.refresh()
		if path == "" {
			return m, nil
		}
		m.status = "Reading " + filepath.Base(path) + "…"
		return m, m.attachCmd(path)

	case tea.KeyEsc:
		m.closeAttach()
		m.refresh()
		return m, nil
	}
	return m.updateFocused(msg)
}

func (m *Model) closeAttach() {
	m.attaching = false
	m.attach.Reset()
	m.setFocus(focusMessage)
}

// updateFocused forwards msg to the focused input and re-lays the composer,
// since the send gate depends on the text.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusContext:
		m.context, cmd = m.context.Update(msg)
	case focusAttach:
		m.attach, cmd = m.attach.Update(msg)
	default:
		m.message, cmd = m.message.Update(msg)
	}
	if _, isKey := msg.(tea.KeyMsg); isKey {
		m.refresh()
	}
	return m, cmd
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.message.Blur()
	m.context.Blur()
	m.attach.Blur()
	switch f {
	case focusContext:
		m.context.Focus()
	case focusAttach:
		m.attach.Focus()
	default:
		m.message.Focus()
	}
	m.applyTheme()
}

// moveSelection activates the session delta rows away from the active one.
// With no active session, down picks the first and up the last.
func (m *Model) moveSelection(delta int) {
	sessions := m.snap.Sessions
	if len(sessions) == 0 {
		return
	}
	idx := -1
	for i, s := range sessions {
		if s.ID == m.snap.ActiveID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(sessions) - 1
	default:
		idx += delta
	}
	if idx < 0 || idx >= len(sessions) {
		return
	}
	m.ctrl.SelectSession(sessions[idx].ID)
}

// =============================================================================
// COMMANDS
// =============================================================================

// submit sends the composer content when the send gate allows it, then
// clears the composer and the pending attachments.
func (m Model) submit() (tea.Model, tea.Cmd) {
	files := m.uploads.Files()
	if !present.CanSend(m.message.Value(), m.context.Value(), len(files), m.snap.IsLoading, m.uploads.IsUploading()) {
		return m, nil
	}

	content, contextText := present.Draft(m.message.Value(), m.context.Value())
	m.message.Reset()
	m.context.Reset()
	m.uploads.ClearFiles()
	m.setFocus(focusMessage)
	m.status = ""
	m.viewport.GotoBottom()

	m.logger.Debug("sending turn", zap.Int("files", len(files)), zap.Bool("has_context", contextText != ""))
	return m, m.sendCmd(content, contextText, files)
}

// sendCmd runs one turn. The controller publishes progress through the
// subscription; the final message only reports the outcome.
func (m Model) sendCmd(content, contextText string, files []model.UploadedFile) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		turn, err := ctrl.SendMessage(ctx, content, contextText, files)
		return turnDoneMsg{Turn: turn, Err: err}
	}
}

// exportCmd writes sess as Markdown. sess is a snapshot copy, so the
// command may run while the controller keeps mutating.
func (m Model) exportCmd(sess *model.Session) tea.Cmd {
	opts := export.DefaultOptions()
	if m.exportDir != "" {
		opts.OutputDir = m.exportDir
	}
	opts.IncludeThoughts = m.showThoughts
	return func() tea.Msg {
		path, err := export.ExportSession(sess, "md", opts)
		return exportedMsg{Path: path, Err: err}
	}
}

// attachCmd reads one file from disk into the pending attachments.
func (m Model) attachCmd(path string) tea.Cmd {
	uploads, ctx := m.uploads, m.ctx
	return func() tea.Msg {
		candidate, err := upload.FromPath(util.ExpandHome(path))
		if err != nil {
			return attachFailedMsg{Path: path, Err: err}
		}
		return filesAddedMsg{Added: uploads.AddFiles(ctx, []upload.Candidate{candidate})}
	}
}
