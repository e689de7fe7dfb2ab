// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the full-screen Bubble Tea host for jellycat.
//
// # Layout
//
//	+-------------+--------------------------------+
//	| JellyCat AI | session title                  |
//	| [New Chat]  |                                |
//	|             |  messages (viewport)           |
//	| > session 1 |                                |
//	|   session 2 |--------------------------------|
//	|             | attachments / upload error     |
//	| footer      | message / context / send       |
//	+-------------+--------------------------------+
//	| key help                                     |
//	+----------------------------------------------+
//
// The screen is built from present.Page view models and drawn by a
// present.Renderer backed by lipgloss and glamour.
//
// # State flow
//
// The session controller owns all conversation state. The model subscribes
// to it; every notification becomes a stateChangedMsg, after which the model
// pulls a fresh Snapshot and re-renders. Sends, stops and attachment reads
// run as tea.Cmds so the event loop never blocks on the network or disk.
//
// # Key Bindings
//
//	Enter    send            Esc      stop generation
//	Tab      message/context Ctrl+N   new chat
//	Up/Down  switch session  Ctrl+X   delete chat
//	PgUp/Dn  scroll          Ctrl+O   attach file
//	Ctrl+R   remove last att F1       toggle help
//	Ctrl+S   export chat     Ctrl+C   quit
package chat
