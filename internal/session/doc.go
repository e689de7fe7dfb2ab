// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the chat sessions and drives one streaming turn at a
// time.
//
// A Controller holds the ordered session list (newest first), the active
// session pointer, a loading flag, a session-level error and the
// cancellation handle of the in-flight request. Every mutation goes through
// a single locked entry point and bumps a revision number that subscribers
// are notified with.
//
// # Turn lifecycle
//
//	IDLE -> SendMessage -> STREAMING -> done | error | aborted -> IDLE
//
// Starting a turn cancels the previous one. Cancellation is silent: the
// assistant placeholder is left exactly as the last frame left it.
//
// # Usage
//
//	ctrl := session.NewController(client, logger)
//	ctrl.Subscribe(func(rev uint64) { redraw() })
//	go ctrl.SendMessage(ctx, "Hello", "", nil)
//	...
//	ctrl.StopGeneration()
package session
