// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// extensionTypes covers the allow-list so detection does not depend on the
// host's mime.types database.
var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".json":     "application/json",
	".pdf":      "application/pdf",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".png":      "image/png",
	".gif":      "image/gif",
	".webp":     "image/webp",
	".doc":      "application/msword",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// DetectType guesses the MIME type of a file from its name, falling back to
// sniffing head (the first bytes of the file). Parameters such as charset
// are stripped. Returns "" when nothing is known.
func DetectType(name string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if ext != "" {
		if t := baseType(mime.TypeByExtension(ext)); t != "" {
			return t
		}
	}
	if len(head) == 0 {
		return ""
	}
	t := baseType(http.DetectContentType(head))
	if t == "application/octet-stream" {
		return ""
	}
	return t
}

func baseType(full string) string {
	if full == "" {
		return ""
	}
	t, _, err := mime.ParseMediaType(full)
	if err != nil {
		return ""
	}
	return t
}
