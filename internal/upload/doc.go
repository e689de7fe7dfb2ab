// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload validates attachments and holds the composer's pending files.
//
// Validation is pure: Validate and ValidateTotalSize only look at a
// candidate's size and MIME type. State performs the reads, turning image
// candidates into data URLs and everything else into text.
//
// # Usage
//
//	st := upload.NewState(logger)
//	c, err := upload.FromPath("notes.md")
//	if err != nil {
//	    return err
//	}
//	st.AddFiles(ctx, []upload.Candidate{c})
//	if msg := st.Error(); msg != "" {
//	    fmt.Println(msg)
//	}
package upload
