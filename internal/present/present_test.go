// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package present

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/jellycat-tui/internal/model"
	"github.com/jeranaias/jellycat-tui/internal/session"
)

func sessionWith(id string, msgs ...*model.Message) *model.Session {
	s := model.NewSession()
	s.ID = id
	s.Messages = msgs
	s.UpdatedAt = time.Date(2025, 3, 7, 14, 5, 0, 0, time.Local)
	return s
}

func assistant(id, content string, streaming bool) *model.Message {
	m := model.NewAssistantPlaceholder()
	m.ID = id
	m.Content = content
	m.IsStreaming = streaming
	return m
}

// ============================================================================
// CAN SEND
// ============================================================================

func TestCanSend(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		context   string
		files     int
		loading   bool
		uploading bool
		want      bool
	}{
		{"empty", "", "", 0, false, false, false},
		{"whitespace only", "  \n", "\t", 0, false, false, false},
		{"message", "hi", "", 0, false, false, true},
		{"context only", "", "notes", 0, false, false, true},
		{"files only", "", "", 1, false, false, true},
		{"loading", "hi", "", 0, true, false, false},
		{"uploading", "hi", "", 0, false, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanSend(tc.message, tc.context, tc.files, tc.loading, tc.uploading))
		})
	}
}

func TestDraftTrims(t *testing.T) {
	msg, ctx := Draft("  hello \n", "\tctx ")
	assert.Equal(t, "hello", msg)
	assert.Equal(t, "ctx", ctx)
}

// ============================================================================
// SIDEBAR
// ============================================================================

func TestBuildSidebar_Empty(t *testing.T) {
	sb := BuildSidebar(session.Snapshot{})

	require.NotNil(t, sb.Empty)
	assert.Equal(t, "No conversations yet", sb.Empty.Title)
	assert.Equal(t, `Click "New Chat" to start`, sb.Empty.Hint)
	assert.Empty(t, sb.Items)
	assert.Equal(t, "JellyCat AI v1.0", sb.Footer.Name)
	assert.Equal(t, "Your confidential AI companion", sb.Footer.Tagline)
	assert.Equal(t, "New Chat", sb.NewChat)
}

func TestBuildSidebar_Items(t *testing.T) {
	snap := session.Snapshot{
		Sessions: []*model.Session{
			sessionWith("s2", assistant("m1", "x", false)),
			sessionWith("s1"),
		},
		ActiveID: "s1",
	}
	sb := BuildSidebar(snap)

	require.Nil(t, sb.Empty)
	require.Len(t, sb.Items, 2)
	assert.Equal(t, "s2", sb.Items[0].ID)
	assert.Equal(t, 1, sb.Items[0].Index)
	assert.Equal(t, 1, sb.Items[0].Count)
	assert.False(t, sb.Items[0].Active)
	assert.True(t, sb.Items[1].Active)
	assert.Equal(t, "3/7/2025 • 14:05", sb.Items[1].Stamp)
	assert.Equal(t, model.DefaultTitle, sb.Items[1].Title)
}

// ============================================================================
// CONVERSATION
// ============================================================================

func TestBuildConversation_WelcomeWithoutActive(t *testing.T) {
	conv := BuildConversation(session.Snapshot{Error: "HTTP error! status: 500"}, true)
	require.NotNil(t, conv.Welcome)
	assert.Equal(t, "Welcome to JellyCat AI!", conv.Welcome.Title)
	assert.Equal(t, "HTTP error! status: 500", conv.Error)
	assert.Empty(t, conv.Messages)
}

func TestBuildConversation_WelcomeForEmptySession(t *testing.T) {
	snap := session.Snapshot{Sessions: []*model.Session{sessionWith("s1")}, ActiveID: "s1"}
	conv := BuildConversation(snap, true)
	require.NotNil(t, conv.Welcome)
	assert.Equal(t, "s1", conv.SessionID)
}

func TestBuildMessage_Statuses(t *testing.T) {
	failed := assistant("f", "", false)
	failed.Fail("boom")

	tests := []struct {
		name        string
		msg         *model.Message
		streamingID string
		want        Status
	}{
		{"done", assistant("a", "hi", false), "", StatusDone},
		{"streaming", assistant("a", "Hel", true), "a", StatusStreaming},
		{"stopped", assistant("a", "Hel", true), "", StatusStopped},
		{"stopped by newer turn", assistant("a", "Hel", true), "b", StatusStopped},
		{"failed", failed, "", StatusFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item := BuildMessage(tc.msg, tc.streamingID, true)
			assert.Equal(t, tc.want, item.Status)
		})
	}
}

func TestBuildMessage_FailedShowsErrorNotBody(t *testing.T) {
	msg := assistant("a", "partial", true)
	msg.Error = "rate limited"
	item := BuildMessage(msg, "a", true)

	assert.Equal(t, StatusFailed, item.Status)
	assert.Empty(t, item.Body)
	assert.Equal(t, "rate limited", item.Error)
}

func TestBuildMessage_UserWithFiles(t *testing.T) {
	msg := model.NewUserMessage("look", []model.UploadedFile{
		{ID: "f1", Name: "report.pdf", Type: "application/pdf", Size: 1536},
	})
	item := BuildMessage(msg, "", true)

	assert.True(t, item.IsUser())
	assert.Equal(t, "You", item.Label)
	require.Len(t, item.Files, 1)
	assert.Equal(t, FileChip{ID: "f1", Icon: "📄", Name: "report.pdf", SizeText: "1.5 KB"}, item.Files[0])
}

func TestBuildMessage_Thoughts(t *testing.T) {
	msg := assistant("a", "", true)
	msg.AppendThought("Anonymising prompt…")

	shown := BuildMessage(msg, "a", true)
	assert.Equal(t, []string{"Anonymising prompt…"}, shown.Thoughts)
	assert.False(t, shown.Pending(), "a thought counts as progress")

	hidden := BuildMessage(msg, "a", false)
	assert.Nil(t, hidden.Thoughts)
	assert.Equal(t, "JellyCat", hidden.Label)

	msg.Thoughts[0] = "mutated"
	assert.Equal(t, "Anonymising prompt…", shown.Thoughts[0], "thoughts are copied")
}

// ============================================================================
// PAGE
// ============================================================================

func TestBuild_Composer(t *testing.T) {
	snap := session.Snapshot{Revision: 9, IsLoading: true}
	page := Build(Input{
		Snapshot:    snap,
		Files:       []model.UploadedFile{{ID: "f", Name: "a.png", Type: "image/png", Size: 10}},
		UploadError: "File size exceeds 10MB limit",
		Message:     "hi",
	})

	assert.Equal(t, uint64(9), page.Revision)
	c := page.Composer
	assert.True(t, c.Loading)
	assert.False(t, c.CanSend, "no send while loading")
	assert.Equal(t, "Stop JellyCat", c.StopLabel)
	assert.Equal(t, "Type your message...", c.MessagePlaceholder)
	assert.Equal(t, "Enter context here...", c.ContextPlaceholder)
	assert.Equal(t, "File size exceeds 10MB limit", c.UploadError)
	require.Len(t, c.Pending, 1)
	assert.Equal(t, "🖼️", c.Pending[0].Icon)
	assert.Equal(t, "10 B", c.Pending[0].SizeText)

	page = Build(Input{Snapshot: session.Snapshot{}, Context: "ctx"})
	assert.True(t, page.Composer.CanSend)
}

// ============================================================================
// RENDER
// ============================================================================

// textRenderer is a minimal host that tags each component.
type textRenderer struct{}

func (textRenderer) Sidebar(s Sidebar) string {
	if s.Empty != nil {
		return "[sidebar empty]"
	}
	return fmt.Sprintf("[sidebar %d]", len(s.Items))
}
func (textRenderer) Welcome(w Welcome) string     { return "[welcome]" }
func (textRenderer) Message(m MessageItem) string { return "[" + m.Label + ":" + m.Body + "]" }
func (textRenderer) Banner(text string) string    { return "[error " + text + "]" }
func (textRenderer) Composer(c Composer) string   { return fmt.Sprintf("[composer send=%v]", c.CanSend) }
func (textRenderer) Layout(sidebar, conversation, composer string) string {
	return strings.Join([]string{sidebar, conversation, composer}, "|")
}

func TestRender(t *testing.T) {
	user := model.NewUserMessage("hi", nil)
	snap := session.Snapshot{
		Sessions: []*model.Session{sessionWith("s1", user, assistant("a", "Hello", false))},
		ActiveID: "s1",
		Error:    "oops",
	}
	out := Render(textRenderer{}, Build(Input{Snapshot: snap}))
	assert.Equal(t, "[sidebar 1]|[You:hi]\n\n[JellyCat:Hello]\n\n[error oops]|[composer send=false]", out)
}

func TestRender_Welcome(t *testing.T) {
	out := Render(textRenderer{}, Build(Input{}))
	assert.Equal(t, "[sidebar empty]|[welcome]|[composer send=false]", out)
}
