// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the streaming chat endpoint.
package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/jellycat-tui/internal/model"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	DefaultBaseURL    = "http://127.0.0.1:8080"
	DefaultChatPath   = "/api/chat"
	DefaultHealthPath = "/health"
	DefaultTimeout    = 10 * time.Second
	DefaultUserAgent  = "jellycat-tui"
)

// ClientConfig holds configuration options for the chat client.
type ClientConfig struct {
	// BaseURL is the backend origin (default: http://127.0.0.1:8080)
	BaseURL string

	// ChatPath is the streaming chat endpoint (default: /api/chat)
	ChatPath string

	// HealthPath is probed by Health (default: /health)
	HealthPath string

	// Timeout for non-streaming requests (default: 10s). Streaming requests
	// have no client-side timeout; they end when the body ends or the
	// context is cancelled.
	Timeout time.Duration

	// UserAgent sent with every request
	UserAgent string

	// Logger for transport diagnostics (default: no-op)
	Logger *zap.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:    DefaultBaseURL,
		ChatPath:   DefaultChatPath,
		HealthPath: DefaultHealthPath,
		Timeout:    DefaultTimeout,
		UserAgent:  DefaultUserAgent,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client sends chat turns to the backend and streams the reply.
// It is safe for concurrent use.
//
// Example:
//
//	client := api.NewClient(nil)
//	err := client.ChatStream(ctx, api.Request{Message: "hi", SessionID: id},
//	    func(ev api.Event) { fmt.Print(ev.Text) })
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
	logger       *zap.Logger
}

// NewClient creates a chat client. A nil config uses DefaultConfig.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.ChatPath == "" {
		config.ChatPath = DefaultChatPath
	}
	if config.HealthPath == "" {
		config.HealthPath = DefaultHealthPath
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config:       config,
		httpClient:   &http.Client{Timeout: config.Timeout},
		streamClient: &http.Client{},
		logger:       logger,
	}
}

// Config returns the client configuration.
func (c *Client) Config() *ClientConfig {
	return c.config
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health verifies that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+c.config.HealthPath, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &ClientError{Type: ErrTypeCanceled, Message: ErrCanceled.Message, Cause: ctx.Err()}
		}
		return &ClientError{Type: ErrTypeConnection, Message: "unable to reach server", Cause: err}
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpError(resp.StatusCode)
	}
	return nil
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// Request is one chat turn.
type Request struct {
	Message   string
	Context   string
	SessionID string
	Files     []model.UploadedFile
}

// ChatStream posts req as multipart form data and calls handler for each
// event decoded from the response, in order. At most one terminal event
// (EventDone or EventError) is delivered; if the body ends without one, an
// implicit EventDone is delivered. Cancelling ctx aborts the request and
// the read loop and yields an error for which IsCanceled is true.
func (c *Client) ChatStream(ctx context.Context, req Request, handler EventHandler) error {
	body, contentType := c.encodeMultipart(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.ChatPath, body)
	if err != nil {
		body.CloseWithError(err)
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return &ClientError{Type: ErrTypeCanceled, Message: ErrCanceled.Message, Cause: ctx.Err()}
		}
		return &ClientError{Type: ErrTypeConnection, Message: "unable to reach server", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("chat request rejected",
			zap.String("session_id", req.SessionID),
			zap.Int("status", resp.StatusCode))
		return httpError(resp.StatusCode)
	}

	reader := NewFrameReader(resp.Body, c.logger)
	if err := reader.Process(ctx, handler); err != nil {
		if ctx.Err() != nil {
			c.logger.Debug("chat stream cancelled",
				zap.String("session_id", req.SessionID),
				zap.Int("frames", reader.Frames()))
			return &ClientError{Type: ErrTypeCanceled, Message: ErrCanceled.Message, Cause: ctx.Err()}
		}
		return &ClientError{Type: ErrTypeConnection, Message: "stream interrupted", Cause: err}
	}

	if !reader.Finished() {
		c.logger.Info("chat stream ended without terminal frame",
			zap.String("session_id", req.SessionID),
			zap.Int("frames", reader.Frames()))
		handler(Event{Kind: EventDone, Implicit: true})
	}

	c.logger.Debug("chat stream complete",
		zap.String("session_id", req.SessionID),
		zap.Int("frames", reader.Frames()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// encodeMultipart streams the form through a pipe so attachment bytes are
// written straight into the request body.
func (c *Client) encodeMultipart(req Request) (*io.PipeReader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, req)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeForm(mw *multipart.Writer, req Request) error {
	fields := []struct{ name, value string }{
		{"message", req.Message},
		{"context", req.Context},
		{"sessionId", req.SessionID},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return err
		}
	}

	for i, file := range req.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			FileFieldName(i), escapeQuotes(file.Name)))
		contentType := file.Type
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := part.Write(file.Data); err != nil {
			return err
		}
	}
	return nil
}

// StreamerFunc adapts a function to the ChatStream method set, for callers
// that accept an interface over *Client.
type StreamerFunc func(ctx context.Context, req Request, handler EventHandler) error

// ChatStream calls f.
func (f StreamerFunc) ChatStream(ctx context.Context, req Request, handler EventHandler) error {
	return f(ctx, req, handler)
}

// FileFieldName returns the form field carrying the i-th attachment.
func FileFieldName(i int) string {
	return "file-" + strconv.Itoa(i)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))
	r.Close()
}
