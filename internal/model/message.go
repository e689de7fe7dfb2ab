// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "JellyCat"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a session.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content is the full accumulated text. While streaming it is replaced
	// wholesale on every content frame, never appended field by field.
	Content string `json:"content"`

	// Attachments sent with a user turn
	Files []UploadedFile `json:"files,omitempty"`

	// Processing steps reported by the backend for an assistant turn
	Thoughts []string `json:"thoughts,omitempty"`

	// Streaming state
	IsStreaming bool   `json:"is_streaming"`
	Error       string `json:"error,omitempty"`
}

// NewUserMessage creates a user message carrying content and attachments.
func NewUserMessage(content string, files []UploadedFile) *Message {
	msg := &Message{
		ID:        generateID("msg"),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
	if len(files) > 0 {
		msg.Files = append([]UploadedFile(nil), files...)
	}
	return msg
}

// NewAssistantPlaceholder creates the empty assistant message that a stream
// fills in. It starts with IsStreaming set.
func NewAssistantPlaceholder() *Message {
	return &Message{
		ID:          generateID("msg"),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendThought records one processing step.
func (m *Message) AppendThought(thought string) {
	m.Thoughts = append(m.Thoughts, thought)
}

// Fail clears the content, records the error and ends streaming.
func (m *Message) Fail(errMsg string) {
	m.Content = ""
	m.Error = errMsg
	m.IsStreaming = false
}

// HasError reports whether the message carries an error.
func (m *Message) HasError() bool {
	return m.Error != ""
}

// IsEmpty returns true if the message has no content and no thoughts.
func (m *Message) IsEmpty() bool {
	return m.Content == "" && len(m.Thoughts) == 0
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	if m.Files != nil {
		c.Files = append([]UploadedFile(nil), m.Files...)
	}
	if m.Thoughts != nil {
		c.Thoughts = append([]string(nil), m.Thoughts...)
	}
	return &c
}

// =============================================================================
// ID GENERATION
// =============================================================================

// generateID returns "<prefix>-<unix millis>-<random>". The timestamp keeps
// ids roughly ordered by creation; the random suffix keeps ids created in the
// same millisecond distinct.
func generateID(prefix string) string {
	return prefix + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + uuid.NewString()[:8]
}
