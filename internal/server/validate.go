// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPromptRunes is the longest prompt accepted.
	MaxPromptRunes = 10000

	// MinPromptRunes applies only to non-blank prompts.
	MinPromptRunes = 3

	// MaxFiles is the attachment count accepted per turn.
	MaxFiles = 5
)

// ChatInput is one decoded chat request.
type ChatInput struct {
	Message   string
	Context   string
	SessionID string
	Files     []InputFile
}

// InputFile is one attachment read from the form.
type InputFile struct {
	Field string
	Name  string
	Type  string
	Data  []byte
}

// =============================================================================
// VALIDATOR CHAIN
// =============================================================================

// Validator inspects a request and returns a user-facing message, or "".
type Validator interface {
	Validate(in *ChatInput) string
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(in *ChatInput) string

// Validate calls f.
func (f ValidatorFunc) Validate(in *ChatInput) string { return f(in) }

// Chain runs validators in order and stops at the first failure.
type Chain []Validator

// Validate returns the first failure message, or "".
func (c Chain) Validate(in *ChatInput) string {
	for _, v := range c {
		if msg := v.Validate(in); msg != "" {
			return msg
		}
	}
	return ""
}

// DefaultChain is the chain applied to POST /api/chat.
func DefaultChain() Chain {
	return Chain{
		ValidatorFunc(validatePrompt),
		ValidatorFunc(validateFiles),
	}
}

// validatePrompt requires a prompt unless context or files carry the turn.
func validatePrompt(in *ChatInput) string {
	prompt := strings.TrimSpace(in.Message)
	if prompt == "" {
		if strings.TrimSpace(in.Context) == "" && len(in.Files) == 0 {
			return "Prompt is required"
		}
		return ""
	}
	if utf8.RuneCountInString(prompt) < MinPromptRunes {
		return fmt.Sprintf("Prompt must be at least %d characters", MinPromptRunes)
	}
	if utf8.RuneCountInString(in.Message) > MaxPromptRunes {
		return "Prompt cannot exceed 10,000 characters"
	}
	return ""
}

func validateFiles(in *ChatInput) string {
	if len(in.Files) > MaxFiles {
		return fmt.Sprintf("Cannot upload more than %d files at once", MaxFiles)
	}

	seen := make(map[[sha256.Size]byte]bool, len(in.Files))
	for i, f := range in.Files {
		if f.Name == "" {
			return fmt.Sprintf("File %d (unknown): File must have a filename", i+1)
		}
		sum := sha256.Sum256(f.Data)
		if seen[sum] {
			return "Duplicate file detected: " + f.Name
		}
		seen[sum] = true
	}
	return ""
}
