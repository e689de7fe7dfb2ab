// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package present turns controller and upload state into host-neutral view
// models.
//
// The chat screen is described once here as a small tree: a Page holding a
// Sidebar, a Conversation and a Composer. Render hosts implement Renderer
// and never look at session.Snapshot directly:
//
//	page := present.Build(present.Input{
//		Snapshot:    ctrl.Snapshot(),
//		Files:       uploads.Files(),
//		UploadError: uploads.Error(),
//		Uploading:   uploads.IsUploading(),
//		Message:     draft,
//	})
//	out := present.Render(host, page)
//
// The Bubble Tea host (ui/chat) and the line-mode host (cli) are the two
// Renderer implementations.
package present
