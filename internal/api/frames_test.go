// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// collect runs a FrameReader over r and returns every event.
func collect(t *testing.T, r io.Reader) ([]Event, *FrameReader) {
	t.Helper()
	var events []Event
	fr := NewFrameReader(r, nil)
	if err := fr.Process(context.Background(), func(ev Event) {
		events = append(events, ev)
	}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	return events, fr
}

// chunkReader returns the given chunks one Read at a time.
type chunkReader struct {
	chunks [][]byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.chunks[0] = c.chunks[0][n:]
	if len(c.chunks[0]) == 0 {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func chunks(parts ...string) *chunkReader {
	cr := &chunkReader{}
	for _, p := range parts {
		cr.chunks = append(cr.chunks, []byte(p))
	}
	return cr
}

// =============================================================================
// FRAME DISPATCH TESTS
// =============================================================================

func TestFrameReader_ContentThenDone(t *testing.T) {
	body := "data: {\"content\":\"Hel\"}\n" +
		"data: {\"content\":\"lo\"}\n" +
		"data: [DONE]\n"

	events, fr := collect(t, strings.NewReader(body))

	want := []Event{
		{Kind: EventContent, Text: "Hel"},
		{Kind: EventContent, Text: "lo"},
		{Kind: EventDone},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
	if !fr.Finished() {
		t.Error("Finished() = false after [DONE]")
	}
}

func TestFrameReader_StopsAfterDone(t *testing.T) {
	body := "data: [DONE]\ndata: {\"content\":\"late\"}\n"
	events, _ := collect(t, strings.NewReader(body))

	if len(events) != 1 || events[0].Kind != EventDone {
		t.Errorf("events = %+v, want only done", events)
	}
}

func TestFrameReader_ErrorFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  string
	}{
		{"error string", `{"error":"backend exploded"}`, "backend exploded"},
		{"type error with message", `{"type":"error","message":"bad prompt"}`, "bad prompt"},
		{"message preferred over error", `{"error":"raw","message":"nice"}`, "nice"},
		{"type error without message", `{"type":"error"}`, "An error occurred"},
		{"error flag", `{"error":true}`, "An error occurred"},
		{"object message falls back", `{"type":"error","message":{"detail":"quota"}}`, "An error occurred"},
		{"object message uses error string", `{"message":["x"],"error":"quota exceeded"}`, "quota exceeded"},
		{"object error", `{"error":{"code":429}}`, "An error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := "data: " + tc.frame + "\ndata: {\"content\":\"after\"}\n"
			events, fr := collect(t, strings.NewReader(body))

			if len(events) != 1 {
				t.Fatalf("events = %+v, want exactly one error", events)
			}
			if events[0].Kind != EventError || events[0].Text != tc.want {
				t.Errorf("event = %+v, want error %q", events[0], tc.want)
			}
			if !fr.Finished() {
				t.Error("Finished() = false after error frame")
			}
		})
	}
}

func TestFrameReader_FalsyErrorIsIgnored(t *testing.T) {
	body := "data: {\"error\":\"\",\"content\":\"ok\"}\n" +
		"data: {\"error\":null,\"content\":\"!\"}\n" +
		"data: {\"error\":false}\n"

	events, fr := collect(t, strings.NewReader(body))
	if len(events) != 2 || events[0].Text != "ok" || events[1].Text != "!" {
		t.Errorf("events = %+v", events)
	}
	if fr.Finished() {
		t.Error("falsy error should not terminate")
	}
}

func TestFrameReader_ThoughtAndContentInOneFrame(t *testing.T) {
	body := "data: {\"type\":\"thought\",\"message\":\"Anonymising prompt…\",\"content\":\"x\"}\n"
	events, _ := collect(t, strings.NewReader(body))

	if len(events) != 2 {
		t.Fatalf("events = %+v, want thought then content", events)
	}
	if events[0].Kind != EventThought || events[0].Text != "Anonymising prompt…" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Kind != EventContent || events[1].Text != "x" {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestFrameReader_NonStringFieldsKeepFrame(t *testing.T) {
	body := "data: {\"type\":\"thought\",\"message\":\"Validating files…\",\"content\":5}\n" +
		"data: {\"type\":7,\"message\":null,\"content\":\"Hi\"}\n" +
		"data: {\"type\":\"thought\",\"message\":{\"step\":1}}\n"

	events, fr := collect(t, strings.NewReader(body))
	if len(events) != 2 {
		t.Fatalf("events = %+v, want one thought and one content", events)
	}
	if events[0].Kind != EventThought || events[0].Text != "Validating files…" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Kind != EventContent || events[1].Text != "Hi" {
		t.Errorf("second event = %+v", events[1])
	}
	if fr.Finished() {
		t.Error("frames without an error signal should not terminate")
	}
}

func TestFrameReader_ThoughtWithoutMessageIgnored(t *testing.T) {
	events, _ := collect(t, strings.NewReader("data: {\"type\":\"thought\"}\n"))
	if len(events) != 0 {
		t.Errorf("events = %+v, want none", events)
	}
}

func TestFrameReader_SkipsNonFrames(t *testing.T) {
	body := "\n" +
		"   \n" +
		": keepalive comment\n" +
		"event: message\n" +
		"data:{\"content\":\"no space after colon\"}\n" +
		"data: not json\n" +
		"data: {\"content\":\"kept\"}\n"

	events, fr := collect(t, strings.NewReader(body))
	if len(events) != 1 || events[0].Text != "kept" {
		t.Errorf("events = %+v, want only kept", events)
	}
	if fr.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", fr.Frames())
	}
}

func TestFrameReader_CRLF(t *testing.T) {
	body := "data: {\"content\":\"a\"}\r\ndata: [DONE]\r\n"
	events, _ := collect(t, strings.NewReader(body))

	if len(events) != 2 || events[1].Kind != EventDone {
		t.Errorf("events = %+v", events)
	}
}

// =============================================================================
// CHUNK BOUNDARY TESTS
// =============================================================================

func TestFrameReader_LineSplitAcrossReads(t *testing.T) {
	r := chunks(
		"data: {\"con",
		"tent\":\"Hel\"}\nda",
		"ta: {\"content\":\"lo\"}",
		"\ndata: [DO",
		"NE]\n",
	)

	events, _ := collect(t, r)
	if len(events) != 3 {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Text+events[1].Text != "Hello" || events[2].Kind != EventDone {
		t.Errorf("events = %+v", events)
	}
}

func TestFrameReader_MultiByteSplitAcrossReads(t *testing.T) {
	// "é" is 0xC3 0xA9, "🐱" is four bytes; split both mid-sequence.
	raw := "data: {\"content\":\"caf\xc3\xa9 \xf0\x9f\x90\xb1\"}\n"
	cut1 := strings.Index(raw, "\xc3") + 1
	cut2 := strings.Index(raw, "\xf0") + 2

	r := chunks(raw[:cut1], raw[cut1:cut2], raw[cut2:])
	events, _ := collect(t, r)

	if len(events) != 1 || events[0].Text != "café 🐱" {
		t.Errorf("events = %+v, want café 🐱", events)
	}
}

func TestFrameReader_OneByteReads(t *testing.T) {
	body := "data: {\"type\":\"thought\",\"message\":\"Déanonymising…\"}\n" +
		"data: {\"content\":\"日本語\"}\n" +
		"data: [DONE]\n"

	events, _ := collect(t, iotest.OneByteReader(strings.NewReader(body)))
	if len(events) != 3 {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Text != "Déanonymising…" || events[1].Text != "日本語" {
		t.Errorf("events = %+v", events)
	}
}

func TestFrameReader_InvalidUTF8Replaced(t *testing.T) {
	events, _ := collect(t, strings.NewReader("data: {\"content\":\"a\xffb\"}\n"))
	if len(events) != 1 || events[0].Text != "a\uFFFDb" {
		t.Errorf("events = %+v", events)
	}
}

func TestFrameReader_FinalLineWithoutNewline(t *testing.T) {
	events, fr := collect(t, strings.NewReader("data: {\"content\":\"a\"}\ndata: [DONE]"))
	if len(events) != 2 || !fr.Finished() {
		t.Errorf("events = %+v, finished = %v", events, fr.Finished())
	}
}

func TestFrameReader_EOFWithoutDone(t *testing.T) {
	_, fr := collect(t, strings.NewReader("data: {\"content\":\"a\"}\n"))
	if fr.Finished() {
		t.Error("Finished() = true without terminal frame")
	}
}

// =============================================================================
// CANCELLATION AND FAILURE TESTS
// =============================================================================

func TestFrameReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fr := NewFrameReader(strings.NewReader("data: {\"content\":\"a\"}\n"), nil)
	called := false
	err := fr.Process(ctx, func(Event) { called = true })

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}
	if called {
		t.Error("handler should not run after cancellation")
	}
}

func TestFrameReader_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("data: {\"content\":\"a\"}\n"), iotest.ErrReader(boom))

	var events []Event
	err := NewFrameReader(r, nil).Process(context.Background(), func(ev Event) {
		events = append(events, ev)
	})

	if !errors.Is(err, boom) {
		t.Errorf("Process() error = %v, want %v", err, boom)
	}
	if len(events) != 1 {
		t.Errorf("events before failure = %+v", events)
	}
}
