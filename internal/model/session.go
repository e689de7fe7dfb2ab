// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

const (
	// DefaultTitle is shown until the first user message names the session.
	DefaultTitle = "New Chat"

	// TitleMaxRunes is the title length beyond which an ellipsis is appended.
	TitleMaxRunes = 50
)

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session holds one conversation thread.
type Session struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewSession creates an empty session with the default title.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        generateID("session"),
		Title:     DefaultTitle,
		Messages:  make([]*Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message and bumps UpdatedAt.
func (s *Session) AddMessage(msg *Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
}

// UpdateMessage applies fn to the message with the given id.
// Returns false if no such message exists.
func (s *Session) UpdateMessage(id string, fn func(*Message)) bool {
	for _, msg := range s.Messages {
		if msg.ID == id {
			fn(msg)
			s.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// FindMessage returns the message with the given id, or nil.
func (s *Session) FindMessage(id string) *Message {
	for _, msg := range s.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// MessageCount returns the number of messages in the session.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// IsEmpty returns true if the session has no messages.
func (s *Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// =============================================================================
// TITLE
// =============================================================================

// SetTitleFrom derives the title from content. Blank content leaves the
// title unchanged.
func (s *Session) SetTitleFrom(content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	s.Title = DeriveTitle(content)
}

// DeriveTitle returns content verbatim when it is at most TitleMaxRunes long,
// otherwise its first TitleMaxRunes runes followed by "...".
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= TitleMaxRunes {
		return content
	}
	return string(runes[:TitleMaxRunes]) + "..."
}

// =============================================================================
// COPYING
// =============================================================================

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = make([]*Message, len(s.Messages))
	for i, msg := range s.Messages {
		c.Messages[i] = msg.Clone()
	}
	return &c
}
