// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package present

// User-facing copy shared by every host.
const (
	AppName    = "JellyCat AI"
	AppVersion = "v1.0"
	Tagline    = "Your confidential AI companion"

	NewChatLabel = "New Chat"
	StopLabel    = "Stop JellyCat"

	EmptySessionsTitle = "No conversations yet"
	EmptySessionsHint  = `Click "New Chat" to start`

	WelcomeTitle = "Welcome to JellyCat AI!"
	WelcomeHint  = "Send a message or upload files to start a conversation"
	PrivacyTitle = "🔒 Privacy First"
	PrivacyBody  = "Your privacy matters to us. Personal information is automatically " +
		"masked before being sent to our servers, ensuring your sensitive data stays protected."

	MessagePlaceholder = "Type your message..."
	ContextPlaceholder = "Enter context here..."

	ThinkingLabel = "Thinking…"
	StoppedLabel  = "stopped"
)

// StampLayout formats a session's last update in the sidebar.
const StampLayout = "1/2/2006 • 15:04"

// TimeLayout formats a message timestamp.
const TimeLayout = "15:04"
