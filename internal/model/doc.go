// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// This package defines the core domain types shared by the controller, the
// transport and the render hosts.
//
// # Key Types
//
//   - Session: one conversation thread with an ordered message list
//   - Message: a single user or assistant turn, with attachments and thoughts
//   - UploadedFile: an attachment held by the composer or sent with a turn
//   - Role: message role enumeration (user, assistant)
//
// # Usage
//
//	sess := model.NewSession()
//	user := model.NewUserMessage("Hello!", nil)
//	sess.AddMessage(user)
//	sess.SetTitleFrom(user.Content)
//
// Sessions are never persisted; snapshots handed to render hosts are deep
// copies produced by Session.Clone.
package model
