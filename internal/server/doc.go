// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a local development backend for the chat client.
//
// It speaks exactly the wire protocol the client consumes: a multipart
// POST whose response is a stream of "data: " frames ending in
// "data: [DONE]". Replies are scripted; no model is called.
//
// # Endpoints
//
//   - POST /api/chat - stream progress thoughts, then the reply word by word
//   - GET  /health   - liveness probe
//   - GET  /stats    - request counters
//
// Every response carries an X-Correlation-ID header, taken from the
// request when present.
//
// # Usage
//
//	srv := server.New(server.Config{Addr: "127.0.0.1:8080"})
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
