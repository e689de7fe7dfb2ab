// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// UploadedFile is an attachment that passed validation.
type UploadedFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`

	// Data is the raw payload sent to the backend. It is never mutated after
	// the file is read, so copies of an UploadedFile may share it.
	Data []byte `json:"-"`

	// Content is the displayable form: a data URL for images, text otherwise.
	Content string `json:"content,omitempty"`
}

// IsImage reports whether the file has an image MIME type.
func (f UploadedFile) IsImage() bool {
	return strings.HasPrefix(f.Type, "image/")
}

// TotalSize sums the sizes of files.
func TotalSize(files []UploadedFile) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}
