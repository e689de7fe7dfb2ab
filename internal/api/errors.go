// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the chat client.
type ClientError struct {
	Type    ErrorType
	Message string
	Status  int // HTTP status, set for ErrTypeHTTP
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeHTTP
	ErrTypeInvalidResponse
	ErrTypeCanceled
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeHTTP:
		return "http"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	case ErrTypeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ErrCanceled is returned when the caller cancels an in-flight request.
var ErrCanceled = &ClientError{Type: ErrTypeCanceled, Message: "request was cancelled"}

// httpError builds the error for a non-2xx response.
func httpError(status int) *ClientError {
	return &ClientError{
		Type:    ErrTypeHTTP,
		Status:  status,
		Message: fmt.Sprintf("HTTP error! status: %d", status),
	}
}

// IsCanceled reports whether err stems from caller cancellation.
func IsCanceled(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.Type == ErrTypeCanceled {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// IsHTTP reports whether err is a non-2xx response and returns its status.
func IsHTTP(err error) (int, bool) {
	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.Type == ErrTypeHTTP {
		return clientErr.Status, true
	}
	return 0, false
}

// IsConnection reports whether err is a transport failure.
func IsConnection(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == ErrTypeConnection
}

// =============================================================================
// USER-FACING DESCRIPTIONS
// =============================================================================

// Code is a stable identifier for a class of failure.
type Code string

const (
	CodeAborted      Code = "ABORTED"
	CodeNetwork      Code = "NETWORK_ERROR"
	CodeBadRequest   Code = "BAD_REQUEST"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeServer       Code = "SERVER_ERROR"
	CodeHTTP         Code = "HTTP_ERROR"
	CodeUnknown      Code = "UNKNOWN_ERROR"
)

// Describe classifies err and returns a message suitable for a status line.
func Describe(err error) (Code, string) {
	if err == nil {
		return "", ""
	}
	if IsCanceled(err) {
		return CodeAborted, "Request was cancelled"
	}
	if IsConnection(err) {
		return CodeNetwork, "Unable to connect to the server. Please check your connection."
	}
	if status, ok := IsHTTP(err); ok {
		switch status {
		case http.StatusBadRequest:
			return CodeBadRequest, "Invalid request. Please check your input."
		case http.StatusUnauthorized:
			return CodeUnauthorized, "Authentication required. Please log in."
		case http.StatusForbidden:
			return CodeForbidden, "Access denied."
		case http.StatusNotFound:
			return CodeNotFound, "Service not found."
		case http.StatusTooManyRequests:
			return CodeRateLimited, "Too many requests. Please try again later."
		case http.StatusInternalServerError:
			return CodeServer, "Server error. Please try again later."
		default:
			return CodeHTTP, fmt.Sprintf("Server error (%d). Please try again.", status)
		}
	}
	return CodeUnknown, err.Error()
}

// IsRetryable reports whether resending the same turn could succeed. The
// client never retries on its own.
func IsRetryable(code Code) bool {
	switch code {
	case CodeNetwork, CodeServer, CodeRateLimited:
		return true
	default:
		return false
	}
}
