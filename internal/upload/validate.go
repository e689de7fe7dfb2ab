// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload validates attachments and holds the composer's pending files.
package upload

import (
	"fmt"
	"strings"
)

// =============================================================================
// LIMITS
// =============================================================================

// SizeLimit is the per-file and per-batch size ceiling in bytes.
const SizeLimit int64 = 10 * 1024 * 1024

// AllowedTypes lists the MIME types an attachment may carry.
var AllowedTypes = []string{
	"text/plain",
	"text/markdown",
	"text/csv",
	"application/json",
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var allowedTypeSet = func() map[string]bool {
	m := make(map[string]bool, len(AllowedTypes))
	for _, t := range AllowedTypes {
		m[t] = true
	}
	return m
}()

// Validation error messages shown in the attachment panel.
var (
	ErrMsgFileTooLarge    = fmt.Sprintf("File size exceeds %dMB limit", SizeLimit/1024/1024)
	ErrMsgTotalTooLarge   = fmt.Sprintf("Total file size exceeds %dMB limit", SizeLimit/1024/1024)
	ErrMsgTypeUnsupported = "File type not supported. Please upload text, image, PDF, or document files."
)

// =============================================================================
// VALIDATION
// =============================================================================

// Result is the outcome of validating a file or batch.
type Result struct {
	IsValid bool
	Error   string
}

// valid is the zero-error result.
var valid = Result{IsValid: true}

// IsAllowedType reports whether mimeType is on the allow-list.
func IsAllowedType(mimeType string) bool {
	return allowedTypeSet[mimeType]
}

// Validate checks one candidate against the size limit and the type
// allow-list. Size is checked first.
func Validate(c Candidate) Result {
	if c.Size > SizeLimit {
		return Result{Error: ErrMsgFileTooLarge}
	}
	if !IsAllowedType(c.Type) {
		return Result{Error: ErrMsgTypeUnsupported}
	}
	return valid
}

// ValidateTotalSize checks that the combined size of candidates stays
// within SizeLimit.
func ValidateTotalSize(candidates []Candidate) Result {
	var total int64
	for _, c := range candidates {
		total += c.Size
	}
	if total > SizeLimit {
		return Result{Error: ErrMsgTotalTooLarge}
	}
	return valid
}

// =============================================================================
// DISPLAY HELPERS
// =============================================================================

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders bytes with binary units. Whole bytes below 1 KB,
// one decimal place from KB up; anything past GB stays in GB.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}

	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", value, sizeUnits[unit])
}

// Icons shown next to attachment names.
const (
	IconImage    = "🖼️"
	IconPDF      = "📄"
	IconDocument = "📝"
	IconCSV      = "📊"
	IconJSON     = "🔧"
	IconDefault  = "📎"
)

// IconFor maps a MIME type to a glyph. First match wins.
func IconFor(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return IconImage
	case mimeType == "application/pdf":
		return IconPDF
	case strings.Contains(mimeType, "word"):
		return IconDocument
	case mimeType == "text/csv":
		return IconCSV
	case mimeType == "application/json":
		return IconJSON
	default:
		return IconDefault
	}
}
