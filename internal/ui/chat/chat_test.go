// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/jellycat-tui/internal/api"
	"github.com/jeranaias/jellycat-tui/internal/config"
	"github.com/jeranaias/jellycat-tui/internal/session"
	"github.com/jeranaias/jellycat-tui/internal/ui/styles"
	"github.com/jeranaias/jellycat-tui/internal/upload"
)

// replyStreamer answers every turn with a fixed reply.
func replyStreamer(events ...api.Event) api.StreamerFunc {
	return func(ctx context.Context, req api.Request, handler api.EventHandler) error {
		for _, ev := range events {
			handler(ev)
		}
		return nil
	}
}

// blockingStreamer sends one content frame and then waits for cancellation.
func blockingStreamer(started chan<- struct{}) api.StreamerFunc {
	return func(ctx context.Context, req api.Request, handler api.EventHandler) error {
		handler(api.Event{Kind: api.EventContent, Text: "Hel"})
		close(started)
		<-ctx.Done()
		return &api.ClientError{Type: api.ErrTypeCanceled, Message: "canceled", Cause: ctx.Err()}
	}
}

type harness struct {
	t       *testing.T
	ctrl    *session.Controller
	uploads *upload.State
	m       Model
}

func newHarness(t *testing.T, streamer session.Streamer) *harness {
	t.Helper()
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(true) })

	ctrl := session.NewController(streamer, nil)
	uploads := upload.NewState(nil)
	m := New(context.Background(), Options{
		Controller:   ctrl,
		Uploads:      uploads,
		Theme:        styles.NewTheme(styles.ModeDark),
		ShowThoughts: true,
	})
	t.Cleanup(m.Close)

	h := &harness{t: t, ctrl: ctrl, uploads: uploads, m: m}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// send feeds msg to the model and returns the command it produced.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	m, ok := next.(Model)
	require.True(h.t, ok, "Update returned %T", next)
	h.m = m
	return cmd
}

func (h *harness) key(t tea.KeyType) tea.Cmd {
	return h.send(tea.KeyMsg{Type: t})
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// sync stands in for the bridge delivering a notification.
func (h *harness) sync() {
	h.send(stateChangedMsg{Revision: h.ctrl.Revision()})
}

// ============================================================================
// RENDERING
// ============================================================================

func TestView_BeforeResize(t *testing.T) {
	m := New(context.Background(), Options{
		Controller: session.NewController(replyStreamer(), nil),
		Uploads:    upload.NewState(nil),
		Theme:      styles.NewTheme(styles.ModeDark),
	})
	defer m.Close()
	assert.Equal(t, "Loading…", m.View())
}

func TestView_Welcome(t *testing.T) {
	h := newHarness(t, replyStreamer())
	view := h.m.View()

	assert.Contains(t, view, "Welcome to JellyCat AI!")
	assert.Contains(t, view, "Privacy First")
	assert.Contains(t, view, "No conversations yet")
	assert.Contains(t, view, "JellyCat AI v1.0")
	assert.Contains(t, view, "Type your message...")
}

func TestView_NarrowHidesSidebar(t *testing.T) {
	h := newHarness(t, replyStreamer())
	h.send(tea.WindowSizeMsg{Width: 50, Height: 30})
	assert.NotContains(t, h.m.View(), "No conversations yet")
	assert.Contains(t, h.m.View(), "Welcome to JellyCat AI!")
}

// ============================================================================
// SENDING
// ============================================================================

func TestSubmit_SendsAndClearsComposer(t *testing.T) {
	h := newHarness(t, replyStreamer(
		api.Event{Kind: api.EventThought, Text: "Anonymising prompt…"},
		api.Event{Kind: api.EventContent, Text: "Hi "},
		api.Event{Kind: api.EventContent, Text: "there"},
		api.Event{Kind: api.EventDone},
	))

	h.typeText("  hello  ")
	h.key(tea.KeyTab)
	h.typeText("some context")
	cmd := h.key(tea.KeyEnter)
	require.NotNil(t, cmd, "enter should start a turn")
	assert.Empty(t, h.m.message.Value())
	assert.Empty(t, h.m.context.Value())
	assert.Equal(t, focusMessage, h.m.focus)

	done, ok := cmd().(turnDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	h.send(done)

	sess := h.ctrl.ActiveSession()
	require.NotNil(t, sess)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "hello", sess.Messages[0].Content, "message is trimmed")
	assert.Equal(t, "Hi there", sess.Messages[1].Content)

	view := h.m.View()
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "Anonymising prompt…")
	assert.Contains(t, view, "Hi there")
}

func TestSubmit_BlockedWhenEmpty(t *testing.T) {
	h := newHarness(t, replyStreamer())
	h.typeText("   ")
	assert.Nil(t, h.key(tea.KeyEnter))
	assert.Empty(t, h.ctrl.Snapshot().Sessions)
}

func TestSubmit_ErrorFrameShown(t *testing.T) {
	h := newHarness(t, replyStreamer(api.Event{Kind: api.EventError, Text: "Prompt is required"}))
	h.typeText("hey")
	cmd := h.key(tea.KeyEnter)
	h.send(cmd())
	assert.Contains(t, h.m.View(), "Prompt is required")
}

func TestStop_EndsLoadingAndMarksStopped(t *testing.T) {
	started := make(chan struct{})
	h := newHarness(t, blockingStreamer(started))

	h.typeText("tell me a story")
	cmd := h.key(tea.KeyEnter)
	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("turn never started")
	}
	h.sync()
	require.True(t, h.m.snap.IsLoading)
	assert.Contains(t, h.m.View(), "Stop JellyCat")

	h.key(tea.KeyEsc)
	assert.False(t, h.ctrl.IsLoading())

	select {
	case msg := <-result:
		h.send(msg)
	case <-time.After(5 * time.Second):
		t.Fatal("turn did not end after stop")
	}
	view := h.m.View()
	assert.Contains(t, view, "Hel")
	assert.Contains(t, view, "(stopped)")
	assert.NotContains(t, view, "Stop JellyCat")
}

// ============================================================================
// SESSIONS
// ============================================================================

func TestSessions_NewSelectDelete(t *testing.T) {
	h := newHarness(t, replyStreamer())

	h.key(tea.KeyCtrlN)
	first := h.ctrl.Snapshot().ActiveID
	h.key(tea.KeyCtrlN)
	h.sync()
	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Sessions, 2)
	second := snap.ActiveID
	assert.NotEqual(t, first, second)

	// Newest first: down moves to the older session
	h.key(tea.KeyDown)
	h.sync()
	assert.Equal(t, first, h.ctrl.Snapshot().ActiveID)

	h.key(tea.KeyDown)
	h.sync()
	assert.Equal(t, first, h.ctrl.Snapshot().ActiveID, "selection stops at the end")

	h.key(tea.KeyUp)
	h.sync()
	assert.Equal(t, second, h.ctrl.Snapshot().ActiveID)

	h.key(tea.KeyCtrlX)
	h.sync()
	snap = h.ctrl.Snapshot()
	require.Len(t, snap.Sessions, 1)
	assert.Empty(t, snap.ActiveID, "deleting the active chat selects nothing")
	assert.Equal(t, "Chat deleted", h.m.status)

	h.key(tea.KeyDown)
	h.sync()
	assert.Equal(t, first, h.ctrl.Snapshot().ActiveID)
	assert.Contains(t, h.m.View(), "New Chat")
}

// ============================================================================
// ATTACHMENTS
// ============================================================================

func TestAttach_AddAndRemove(t *testing.T) {
	h := newHarness(t, replyStreamer())
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("remember the milk"), 0600))

	h.key(tea.KeyCtrlO)
	require.True(t, h.m.attaching)
	assert.Contains(t, h.m.View(), "Attach:")

	h.typeText(path)
	cmd := h.key(tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.False(t, h.m.attaching)

	msg := cmd()
	added, ok := msg.(filesAddedMsg)
	require.True(t, ok, "got %T", msg)
	require.Len(t, added.Added, 1)
	h.send(added)

	assert.Equal(t, 1, h.uploads.Len())
	assert.Equal(t, "Attached notes.txt", h.m.status)
	assert.Contains(t, h.m.View(), "notes.txt (17 B)")
	assert.True(t, h.m.page.Composer.CanSend, "an attachment alone can be sent")

	h.key(tea.KeyCtrlR)
	assert.Equal(t, 0, h.uploads.Len())
	assert.Equal(t, "Removed notes.txt", h.m.status)
}

func TestAttach_MissingFile(t *testing.T) {
	h := newHarness(t, replyStreamer())
	h.key(tea.KeyCtrlO)
	h.typeText(filepath.Join(t.TempDir(), "nope.txt"))
	msg := h.key(tea.KeyEnter)()

	failed, ok := msg.(attachFailedMsg)
	require.True(t, ok, "got %T", msg)
	h.send(failed)
	assert.True(t, strings.HasPrefix(h.m.status, "Cannot attach "))
	assert.Equal(t, 0, h.uploads.Len())
}

func TestAttach_EscCancels(t *testing.T) {
	h := newHarness(t, replyStreamer())
	h.key(tea.KeyCtrlO)
	h.typeText("/tmp/x")
	assert.Nil(t, h.key(tea.KeyEsc))
	assert.False(t, h.m.attaching)
	assert.Equal(t, focusMessage, h.m.focus)
	assert.Empty(t, h.m.attach.Value())
}

func TestAttach_SendsFilesWithTurn(t *testing.T) {
	var got api.Request
	h := newHarness(t, api.StreamerFunc(func(ctx context.Context, req api.Request, handler api.EventHandler) error {
		got = req
		handler(api.Event{Kind: api.EventDone})
		return nil
	}))
	h.uploads.AddFiles(context.Background(), []upload.Candidate{upload.FromBytes("a.csv", "text/csv", []byte("1,2"))})
	h.sync()

	cmd := h.key(tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, 0, h.uploads.Len(), "pending files are cleared on send")
	h.send(cmd())

	require.Len(t, got.Files, 1)
	assert.Equal(t, "a.csv", got.Files[0].Name)
}

func TestExport_WritesActiveChat(t *testing.T) {
	h := newHarness(t, replyStreamer(
		api.Event{Kind: api.EventContent, Text: "Hi there"},
		api.Event{Kind: api.EventDone},
	))
	dir := t.TempDir()
	h.m.exportDir = dir

	assert.Nil(t, h.key(tea.KeyCtrlS))
	assert.Equal(t, "Nothing to export", h.m.status)

	h.typeText("hello")
	h.send(h.key(tea.KeyEnter)())
	h.sync()

	cmd := h.key(tea.KeyCtrlS)
	require.NotNil(t, cmd)
	msg := cmd()
	exported, ok := msg.(exportedMsg)
	require.True(t, ok, "got %T", msg)
	require.NoError(t, exported.Err)
	h.send(exported)

	assert.Equal(t, "Exported to "+exported.Path, h.m.status)
	assert.Equal(t, dir, filepath.Dir(exported.Path))
	data, err := os.ReadFile(exported.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Hi there")
}

// ============================================================================
// CONFIG RELOAD
// ============================================================================

func TestConfigReload(t *testing.T) {
	h := newHarness(t, replyStreamer())

	cfg := config.Default()
	cfg.UI.Theme = "light"
	cfg.UI.ShowThoughts = false
	h.send(ConfigReloadedMsg{Config: cfg})

	assert.False(t, h.m.theme.IsDark)
	assert.False(t, h.m.showThoughts)
	assert.Equal(t, "light", h.m.md.style)
	assert.Equal(t, "Config reloaded", h.m.status)

	h.send(ConfigReloadedMsg{Err: errors.New("bad toml")})
	assert.False(t, h.m.theme.IsDark, "a failed reload keeps the current theme")
	assert.Equal(t, "Config not reloaded: bad toml", h.m.status)
}

// ============================================================================
// HELP AND QUIT
// ============================================================================

func TestHelpToggle(t *testing.T) {
	h := newHarness(t, replyStreamer())
	short := lipgloss.Height(h.m.View())
	h.key(tea.KeyF1)
	assert.True(t, h.m.help.ShowAll)
	assert.Contains(t, h.m.View(), "delete chat")
	assert.GreaterOrEqual(t, lipgloss.Height(h.m.View()), short)
}

func TestQuit(t *testing.T) {
	h := newHarness(t, replyStreamer())
	cmd := h.key(tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
