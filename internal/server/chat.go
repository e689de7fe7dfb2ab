// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/jellycat-tui/internal/upload"
)

// frame is one "data: " payload.
type frame struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
	Content string `json:"content,omitempty"`
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// handleChat decodes the form, validates it and streams the scripted reply.
// Validation failures are reported in-band as an error frame so the client
// sees them in the message bubble.
func (s *Server) handleChat(c echo.Context) error {
	s.stats.requests.Add(1)
	log := s.logger.With(zap.String("correlation_id", correlationFrom(c)))

	in, err := decodeChatInput(c)
	if err != nil {
		s.stats.rejected.Add(1)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	stream, err := s.openStream(c)
	if err != nil {
		return err
	}

	if msg := s.config.Validators.Validate(in); msg != "" {
		s.stats.rejected.Add(1)
		log.Info("chat request rejected", zap.String("reason", msg))
		return stream.send(frame{Type: "error", Message: msg})
	}

	log.Debug("chat request accepted",
		zap.String("session_id", in.SessionID),
		zap.Int("files", len(in.Files)),
		zap.Int("prompt_len", len(in.Message)))

	reply := composeReply(in)
	for _, step := range thoughtSteps(in, reply) {
		if err := stream.send(frame{Type: "thought", Message: step}); err != nil {
			return s.streamEnded(log, err)
		}
	}
	for _, word := range splitWords(reply) {
		if err := stream.send(frame{Content: word}); err != nil {
			return s.streamEnded(log, err)
		}
	}
	if err := stream.done(); err != nil {
		return s.streamEnded(log, err)
	}
	return nil
}

// streamEnded records a stream cut short by the client. The response is
// already committed, so nothing is returned to echo.
func (s *Server) streamEnded(log *zap.Logger, err error) error {
	s.stats.cancelled.Add(1)
	log.Debug("chat stream ended early", zap.Error(err))
	return nil
}

// ============================================================================
// REQUEST DECODING
// ============================================================================

// decodeChatInput reads the text fields and every file-N part in index
// order. Requests that are not multipart are read as plain forms.
func decodeChatInput(c echo.Context) (*ChatInput, error) {
	in := &ChatInput{}

	form, err := c.MultipartForm()
	switch {
	case err == nil:
		in.Message = firstValue(form.Value["message"])
		in.Context = firstValue(form.Value["context"])
		in.SessionID = firstValue(form.Value["sessionId"])
		files, err := readFormFiles(form)
		if err != nil {
			return nil, err
		}
		in.Files = files
	case errors.Is(err, http.ErrNotMultipart):
		in.Message = c.FormValue("message")
		in.Context = c.FormValue("context")
		in.SessionID = c.FormValue("sessionId")
	default:
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	return in, nil
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func readFormFiles(form *multipart.Form) ([]InputFile, error) {
	type indexed struct {
		idx    int
		field  string
		header *multipart.FileHeader
	}
	var parts []indexed
	for field, headers := range form.File {
		suffix, ok := strings.CutPrefix(field, "file-")
		if !ok || len(headers) == 0 {
			continue
		}
		idx, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		parts = append(parts, indexed{idx, field, headers[0]})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].idx < parts[j].idx })

	files := make([]InputFile, 0, len(parts))
	for _, p := range parts {
		f, err := p.header.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p.field, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p.field, err)
		}
		files = append(files, InputFile{
			Field: p.field,
			Name:  p.header.Filename,
			Type:  p.header.Header.Get("Content-Type"),
			Data:  data,
		})
	}
	return files, nil
}

// ============================================================================
// SCRIPTED REPLY
// ============================================================================

// thoughtSteps mirrors the progress notes a real pipeline emits.
func thoughtSteps(in *ChatInput, reply string) []string {
	var steps []string
	if len(in.Files) > 0 {
		steps = append(steps, "Validating files….", "Files validated!")
	}
	steps = append(steps,
		"Anonymising prompt…",
		"Anonymised prompt is now "+in.Message,
		"LLM is thinking…",
		"Original LLM response is "+reply+".",
		"Deanonymising…",
		"Success!",
	)
	return steps
}

// composeReply echoes the turn back in markdown.
func composeReply(in *ChatInput) string {
	var b strings.Builder
	if msg := strings.TrimSpace(in.Message); msg != "" {
		b.WriteString("You said: **")
		b.WriteString(msg)
		b.WriteString("**")
	} else {
		b.WriteString("No prompt given.")
	}
	if ctx := strings.TrimSpace(in.Context); ctx != "" {
		b.WriteString("\n\nContext: ")
		b.WriteString(ctx)
	}
	if len(in.Files) > 0 {
		b.WriteString("\n\nAttachments:")
		for _, f := range in.Files {
			fmt.Fprintf(&b, "\n- %s (%s)", f.Name, upload.FormatSize(int64(len(f.Data))))
		}
	}
	return b.String()
}

// splitWords splits s into chunks that concatenate back to s, each ending
// after a run of whitespace.
func splitWords(s string) []string {
	var words []string
	start := 0
	inSpace := false
	for i, r := range s {
		isSpace := r == ' ' || r == '\n' || r == '\t'
		if inSpace && !isSpace {
			words = append(words, s[start:i])
			start = i
		}
		inSpace = isSpace
	}
	if start < len(s) {
		words = append(words, s[start:])
	}
	return words
}

// ============================================================================
// SSE WRITER
// ============================================================================

type sseStream struct {
	w       io.Writer
	flusher http.Flusher
	limiter *rate.Limiter
	c       echo.Context
	stats   *ServerStats
}

// openStream commits the event-stream headers.
func (s *Server) openStream(c echo.Context) (*sseStream, error) {
	res := c.Response()
	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Streaming not supported")
	}

	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	flusher.Flush()

	var limiter *rate.Limiter
	if s.config.FramesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.config.FramesPerSecond), 1)
	}
	return &sseStream{w: res, flusher: flusher, limiter: limiter, c: c, stats: s.stats}, nil
}

func (st *sseStream) send(f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return st.write(data)
}

func (st *sseStream) done() error {
	return st.write([]byte("[DONE]"))
}

func (st *sseStream) write(payload []byte) error {
	ctx := st.c.Request().Context()
	if st.limiter != nil {
		if err := st.limiter.Wait(ctx); err != nil {
			return err
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(st.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	st.flusher.Flush()
	st.stats.frames.Add(1)
	return nil
}
