// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the streaming chat endpoint.
//
// A turn is one multipart POST carrying the fields message, context and
// sessionId plus one part per attachment (file-0, file-1, ...). The reply is
// a chunked body of newline-delimited frames:
//
//	data: {"type":"thought","message":"Validating files…"}
//	data: {"content":"Hel"}
//	data: {"content":"lo"}
//	data: [DONE]
//
// FrameReader decodes the body incrementally and turns frames into Events.
// Frames that are not valid JSON are logged and skipped. A frame with an
// error field, or with type "error", ends the turn.
//
// # Errors
//
// All failures are *ClientError values classified by ErrorType. Use
// IsCanceled to tell a caller-initiated abort from a real failure, and
// Describe to get a message fit for a status line.
package api
