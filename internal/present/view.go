// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package present

import "github.com/jeranaias/jellycat-tui/internal/model"

// Status is how an assistant message should be drawn.
type Status int

const (
	// StatusDone is a finished reply, and every user message.
	StatusDone Status = iota

	// StatusStreaming is the reply the in-flight turn is filling.
	StatusStreaming

	// StatusStopped is a reply whose turn was cancelled before it finished.
	// Its text stays as received.
	StatusStopped

	// StatusFailed is a reply that ended with an error. Error replaces Body.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusStreaming:
		return "streaming"
	case StatusStopped:
		return "stopped"
	case StatusFailed:
		return "failed"
	default:
		return "done"
	}
}

// FileChip is one attachment as shown next to a message or in the composer.
type FileChip struct {
	ID       string
	Icon     string
	Name     string
	SizeText string
}

// SessionItem is one row of the sidebar. Index is 1-based, matching the
// numbers the line-mode host accepts.
type SessionItem struct {
	ID     string
	Index  int
	Title  string
	Stamp  string
	Count  int
	Active bool
}

// EmptyState is shown in place of a list with no entries.
type EmptyState struct {
	Title string
	Hint  string
}

// Footer closes the sidebar.
type Footer struct {
	Name    string
	Tagline string
}

// Sidebar lists sessions newest first.
type Sidebar struct {
	Header  string
	NewChat string
	Items   []SessionItem

	// Empty is set when there are no sessions.
	Empty *EmptyState

	Footer Footer
}

// MessageItem is one bubble of the conversation.
type MessageItem struct {
	ID       string
	Role     model.Role
	Label    string
	Body     string
	Time     string
	Thoughts []string
	Files    []FileChip
	Error    string
	Status   Status
}

// IsUser reports whether the message was typed by the user.
func (m MessageItem) IsUser() bool {
	return m.Role == model.RoleUser
}

// Pending reports whether a streaming reply has produced nothing yet.
func (m MessageItem) Pending() bool {
	return m.Status == StatusStreaming && m.Body == "" && len(m.Thoughts) == 0
}

// Welcome is the empty-conversation screen.
type Welcome struct {
	Title        string
	Hint         string
	PrivacyTitle string
	PrivacyBody  string
}

// Conversation is the message pane of the active session.
type Conversation struct {
	SessionID string
	Title     string
	Messages  []MessageItem

	// Welcome is set when there is no active session or it has no messages.
	Welcome *Welcome

	// Error is the session-level error banner, "" when clear.
	Error string
}

// Composer is the input area.
type Composer struct {
	Message string
	Context string

	MessagePlaceholder string
	ContextPlaceholder string

	Pending     []FileChip
	UploadError string

	Loading   bool
	Uploading bool
	CanSend   bool

	// StopLabel is offered while Loading.
	StopLabel string
}

// Page is the whole chat screen.
type Page struct {
	Revision     uint64
	Sidebar      Sidebar
	Conversation Conversation
	Composer     Composer
}
