// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat sessions to files.
//
// # Key Types
//
//   - Exporter: converts a session to bytes in one format
//   - Options: output directory and metadata toggles
//
// # Supported Formats
//
//   - Markdown: YAML frontmatter, one heading per turn
//   - JSON: the session as held in memory, without file payloads
//
// # Usage
//
//	path, err := export.ExportSession(sess, "md", &export.Options{OutputDir: "."})
package export
