// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the render hosts and the
// config layer.
//
// # Text
//
// Width functions measure terminal columns through go-runewidth, so session
// titles and attachment names containing CJK text or emoji line up:
//
//	title := util.TruncateWidth(session.Title, 24)
//	row := util.PadWidth(title, 24) + stamp
//
// # Files
//
// AtomicWriteFile writes config files via temp file, fsync and rename:
//
//	err := util.AtomicWriteFile(path, data, 0600, 0700)
package util
