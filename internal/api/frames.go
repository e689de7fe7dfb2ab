// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	framePrefix    = "data: "
	doneMarker     = "[DONE]"
	fallbackErrMsg = "An error occurred"
	readChunkSize  = 4096
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies what a frame asked the client to do.
type EventKind int

const (
	// EventContent carries an incremental piece of assistant text.
	EventContent EventKind = iota
	// EventThought carries one processing step.
	EventThought
	// EventError ends the turn with a server-supplied message.
	EventError
	// EventDone ends the turn successfully.
	EventDone
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventContent:
		return "content"
	case EventThought:
		return "thought"
	case EventError:
		return "error"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is one action decoded from a frame.
type Event struct {
	Kind EventKind
	Text string

	// Implicit is set on an EventDone synthesized because the body ended
	// without a [DONE] frame.
	Implicit bool
}

// IsTerminal reports whether the event ends the turn.
func (e Event) IsTerminal() bool {
	return e.Kind == EventDone || e.Kind == EventError
}

// EventHandler receives events in frame order.
type EventHandler func(Event)

// =============================================================================
// FRAME READER
// =============================================================================

// FrameReader turns a chunked response body into events. Bytes are decoded
// as UTF-8 incrementally, so a multi-byte character split across reads is
// reassembled; invalid sequences become U+FFFD. A line split across reads
// is held until its newline arrives.
type FrameReader struct {
	src     io.Reader
	buf     []byte
	pending []byte
	done    bool
	frames  int
	logger  *zap.Logger
}

// NewFrameReader creates a frame reader over r. A nil logger disables logging.
func NewFrameReader(r io.Reader, logger *zap.Logger) *FrameReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FrameReader{
		src:    transform.NewReader(r, unicode.UTF8.NewDecoder()),
		buf:    make([]byte, readChunkSize),
		logger: logger,
	}
}

// Process reads until a terminal frame, the end of the body, or ctx is
// cancelled, calling handler for each event. Nothing after a terminal frame
// is read. Returns ctx.Err() on cancellation and the read error on
// transport failure; a clean end of body returns nil.
func (f *FrameReader) Process(ctx context.Context, handler EventHandler) error {
	for !f.done {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := f.src.Read(f.buf)
		if n > 0 {
			f.pending = append(f.pending, f.buf[:n]...)
			f.drainLines(handler)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				// The last line may lack a trailing newline.
				if !f.done && len(f.pending) > 0 {
					line := f.pending
					f.pending = nil
					f.dispatch(line, handler)
				}
				return nil
			}
			return err
		}
	}
	return nil
}

// Finished reports whether a terminal frame was seen.
func (f *FrameReader) Finished() bool {
	return f.done
}

// Frames returns the number of data frames dispatched so far.
func (f *FrameReader) Frames() int {
	return f.frames
}

func (f *FrameReader) drainLines(handler EventHandler) {
	for !f.done {
		i := bytes.IndexByte(f.pending, '\n')
		if i < 0 {
			return
		}
		line := f.pending[:i]
		f.dispatch(line, handler)
		f.pending = f.pending[i+1:]
	}
	f.pending = nil
}

// frame is the JSON payload of a data line. Every field is left raw so a
// value of an unexpected JSON type never makes a well-formed frame look
// malformed; only string values are used as text.
type frame struct {
	Content json.RawMessage `json:"content"`
	Type    json.RawMessage `json:"type"`
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func (f *FrameReader) dispatch(line []byte, handler EventHandler) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(bytes.TrimSpace(line)) == 0 || !bytes.HasPrefix(line, []byte(framePrefix)) {
		return
	}
	data := line[len(framePrefix):]
	f.frames++

	if string(data) == doneMarker {
		f.done = true
		handler(Event{Kind: EventDone})
		return
	}

	var fr frame
	if err := json.Unmarshal(data, &fr); err != nil {
		f.logger.Warn("skipping malformed frame",
			zap.ByteString("data", truncateBytes(data, 256)),
			zap.Error(err))
		return
	}

	if errText, isErr := fr.errorText(); isErr {
		f.done = true
		handler(Event{Kind: EventError, Text: errText})
		return
	}
	if msg := rawString(fr.Message); rawString(fr.Type) == "thought" && msg != "" {
		handler(Event{Kind: EventThought, Text: msg})
	}
	if content := rawString(fr.Content); content != "" {
		handler(Event{Kind: EventContent, Text: content})
	}
}

// errorText reports whether the frame signals an error and picks the
// message: a string message, then a string error, then the fallback.
func (fr frame) errorText() (string, bool) {
	errStr, flagged := rawTruthy(fr.Error)
	if !flagged && rawString(fr.Type) != "error" {
		return "", false
	}
	if msg := rawString(fr.Message); msg != "" {
		return msg, true
	}
	if errStr != "" {
		return errStr, true
	}
	return fallbackErrMsg, true
}

// rawString returns raw as a string, or "" when it holds any other type.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// rawTruthy returns the string value of raw, if it is a string, and whether
// raw is set to anything other than null, false, 0 or "".
func rawTruthy(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case nil:
		return "", false
	case bool:
		return "", t
	case float64:
		return "", t != 0
	case string:
		return t, t != ""
	default:
		return "", true
	}
}

func truncateBytes(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
