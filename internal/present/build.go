// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package present

import (
	"strings"

	"github.com/jeranaias/jellycat-tui/internal/model"
	"github.com/jeranaias/jellycat-tui/internal/session"
	"github.com/jeranaias/jellycat-tui/internal/upload"
)

// Input is everything a Page is built from.
type Input struct {
	Snapshot session.Snapshot

	// Pending attachments and their upload status
	Files       []model.UploadedFile
	UploadError string
	Uploading   bool

	// Current composer text, untrimmed
	Message string
	Context string

	// HideThoughts drops processing steps from assistant messages.
	HideThoughts bool
}

// CanSend reports whether the composer may submit: something to send, no
// turn in flight and no attachment still being read.
func CanSend(message, context string, files int, loading, uploading bool) bool {
	hasInput := strings.TrimSpace(message) != "" || strings.TrimSpace(context) != "" || files > 0
	return hasInput && !loading && !uploading
}

// Draft trims composer text the way it is sent.
func Draft(message, context string) (string, string) {
	return strings.TrimSpace(message), strings.TrimSpace(context)
}

// Build derives the page for one snapshot.
func Build(in Input) Page {
	snap := in.Snapshot
	return Page{
		Revision:     snap.Revision,
		Sidebar:      BuildSidebar(snap),
		Conversation: BuildConversation(snap, !in.HideThoughts),
		Composer: Composer{
			Message:            in.Message,
			Context:            in.Context,
			MessagePlaceholder: MessagePlaceholder,
			ContextPlaceholder: ContextPlaceholder,
			Pending:            Chips(in.Files),
			UploadError:        in.UploadError,
			Loading:            snap.IsLoading,
			Uploading:          in.Uploading,
			CanSend:            CanSend(in.Message, in.Context, len(in.Files), snap.IsLoading, in.Uploading),
			StopLabel:          StopLabel,
		},
	}
}

// BuildSidebar lists the snapshot's sessions in store order.
func BuildSidebar(snap session.Snapshot) Sidebar {
	sb := Sidebar{
		Header:  AppName,
		NewChat: NewChatLabel,
		Footer:  Footer{Name: AppName + " " + AppVersion, Tagline: Tagline},
	}
	if len(snap.Sessions) == 0 {
		sb.Empty = &EmptyState{Title: EmptySessionsTitle, Hint: EmptySessionsHint}
		return sb
	}

	sb.Items = make([]SessionItem, len(snap.Sessions))
	for i, s := range snap.Sessions {
		sb.Items[i] = SessionItem{
			ID:     s.ID,
			Index:  i + 1,
			Title:  s.Title,
			Stamp:  s.UpdatedAt.Format(StampLayout),
			Count:  s.MessageCount(),
			Active: s.ID == snap.ActiveID,
		}
	}
	return sb
}

// BuildConversation renders the active session. With no active session, or
// an empty one, the welcome screen is set instead of messages.
func BuildConversation(snap session.Snapshot, showThoughts bool) Conversation {
	conv := Conversation{Error: snap.Error}

	active := snap.Active()
	if active != nil {
		conv.SessionID = active.ID
		conv.Title = active.Title
	}
	if active == nil || active.IsEmpty() {
		conv.Welcome = &Welcome{
			Title:        WelcomeTitle,
			Hint:         WelcomeHint,
			PrivacyTitle: PrivacyTitle,
			PrivacyBody:  PrivacyBody,
		}
		return conv
	}

	conv.Messages = make([]MessageItem, len(active.Messages))
	for i, msg := range active.Messages {
		conv.Messages[i] = BuildMessage(msg, snap.StreamingID, showThoughts)
	}
	return conv
}

// BuildMessage converts one message. streamingID is the message the
// in-flight turn owns; any other message still marked streaming was
// stopped.
func BuildMessage(msg *model.Message, streamingID string, showThoughts bool) MessageItem {
	item := MessageItem{
		ID:    msg.ID,
		Role:  msg.Role,
		Label: msg.Role.DisplayName(),
		Body:  msg.Content,
		Time:  msg.Timestamp.Format(TimeLayout),
		Files: Chips(msg.Files),
	}
	if showThoughts && len(msg.Thoughts) > 0 {
		item.Thoughts = append([]string(nil), msg.Thoughts...)
	}

	switch {
	case msg.HasError():
		item.Status = StatusFailed
		item.Error = msg.Error
		item.Body = ""
	case msg.IsStreaming && msg.ID == streamingID:
		item.Status = StatusStreaming
	case msg.IsStreaming:
		item.Status = StatusStopped
	default:
		item.Status = StatusDone
	}
	return item
}

// Chips converts attachments for display.
func Chips(files []model.UploadedFile) []FileChip {
	if len(files) == 0 {
		return nil
	}
	chips := make([]FileChip, len(files))
	for i, f := range files {
		info := upload.InfoFor(f)
		chips[i] = FileChip{ID: f.ID, Icon: info.Icon, Name: f.Name, SizeText: info.SizeText}
	}
	return chips
}
