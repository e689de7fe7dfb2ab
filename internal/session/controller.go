// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/jellycat-tui/internal/api"
	"github.com/jeranaias/jellycat-tui/internal/model"
)

// Streamer sends one turn and reports decoded events. *api.Client
// implements it.
type Streamer interface {
	ChatStream(ctx context.Context, req api.Request, handler api.EventHandler) error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns every session and the single in-flight turn.
// It is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	// Store
	sessions []*model.Session // newest first
	activeID string

	// Turn state
	loading     bool
	err         string
	generation  uint64
	streamingID string // assistant message of the in-flight turn

	// Notification
	revision    uint64
	subscribers map[int]func(uint64)
	nextSubID   int

	cancelMgr *cancelManager
	streamer  Streamer
	logger    *zap.Logger
}

// NewController creates a controller that sends turns through streamer.
// A nil logger disables logging.
func NewController(streamer Streamer, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		subscribers: make(map[int]func(uint64)),
		cancelMgr:   newCancelManager(),
		streamer:    streamer,
		logger:      logger,
	}
}

// =============================================================================
// UPDATE ENTRY POINT
// =============================================================================

// update runs fn under the lock. If fn reports a change the revision is
// bumped and subscribers are notified after the lock is released.
func (c *Controller) update(fn func() bool) {
	c.mu.Lock()
	if !fn() {
		c.mu.Unlock()
		return
	}
	c.revision++
	rev := c.revision
	subs := make([]func(uint64), 0, len(c.subscribers))
	for _, s := range c.subscribers {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		s(rev)
	}
}

// Subscribe registers fn to be called with the new revision after every
// mutation. fn runs on the mutating goroutine, outside the lock; it must not
// block. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(revision uint64)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// findLocked returns the session with id. Caller holds c.mu.
func (c *Controller) findLocked(id string) *model.Session {
	for _, s := range c.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// updateMessage applies fn to one message. A session or message that no
// longer exists makes the update inert.
func (c *Controller) updateMessage(sessionID, messageID string, fn func(*model.Message)) {
	c.update(func() bool {
		sess := c.findLocked(sessionID)
		if sess == nil {
			return false
		}
		return sess.UpdateMessage(messageID, fn)
	})
}

// =============================================================================
// SESSION CRUD
// =============================================================================

// CreateNewSession prepends an empty session and makes it active.
func (c *Controller) CreateNewSession() *model.Session {
	var created *model.Session
	c.update(func() bool {
		created = c.createLocked()
		return true
	})
	return created.Clone()
}

func (c *Controller) createLocked() *model.Session {
	sess := model.NewSession()
	c.sessions = append([]*model.Session{sess}, c.sessions...)
	c.activeID = sess.ID
	return sess
}

// SelectSession makes id active and clears the surfaced error. Both happen
// even for an unknown id, which leaves no session active; the result
// reports whether id exists.
func (c *Controller) SelectSession(id string) bool {
	found := false
	c.update(func() bool {
		found = c.findLocked(id) != nil
		c.activeID = id
		c.err = ""
		return true
	})
	return found
}

// DeleteSession removes id. If it was active the active pointer is cleared;
// no other session is selected in its place.
func (c *Controller) DeleteSession(id string) bool {
	found := false
	c.update(func() bool {
		kept := make([]*model.Session, 0, len(c.sessions))
		for _, s := range c.sessions {
			if s.ID == id {
				found = true
				continue
			}
			kept = append(kept, s)
		}
		if !found {
			return false
		}
		c.sessions = kept
		if c.activeID == id {
			c.activeID = ""
		}
		return true
	})
	if found {
		c.logger.Debug("session deleted", zap.String("session_id", id))
	}
	return found
}

// =============================================================================
// QUERIES
// =============================================================================

// Snapshot is a deep copy of the controller state.
type Snapshot struct {
	Revision  uint64
	Sessions  []*model.Session
	ActiveID  string
	IsLoading bool
	Error     string

	// StreamingID is the assistant message the in-flight turn is filling,
	// or "" when no turn is in flight.
	StreamingID string
}

// Active returns the active session, or nil.
func (s Snapshot) Active() *model.Session {
	for _, sess := range s.Sessions {
		if sess.ID == s.ActiveID {
			return sess
		}
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessions := make([]*model.Session, len(c.sessions))
	for i, s := range c.sessions {
		sessions[i] = s.Clone()
	}
	activeID := c.activeID
	if c.findLocked(activeID) == nil {
		activeID = ""
	}
	return Snapshot{
		Revision:    c.revision,
		Sessions:    sessions,
		ActiveID:    activeID,
		IsLoading:   c.loading,
		Error:       c.err,
		StreamingID: c.streamingID,
	}
}

// ActiveSession returns a copy of the active session, or nil.
func (c *Controller) ActiveSession() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findLocked(c.activeID).Clone()
}

// Message returns a copy of one message, or nil.
func (c *Controller) Message(sessionID, messageID string) *model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess := c.findLocked(sessionID)
	if sess == nil {
		return nil
	}
	return sess.FindMessage(messageID).Clone()
}

// IsLoading reports whether a turn is in flight.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Error returns the session-level error, or "".
func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Revision returns the current revision.
func (c *Controller) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// =============================================================================
// TURNS
// =============================================================================

// Turn identifies the messages a SendMessage call created.
type Turn struct {
	SessionID          string
	UserMessageID      string
	AssistantMessageID string
}

// SendMessage runs one turn and blocks until it ends. It is a no-op
// returning a zero Turn when content and contextText are blank and no files
// are attached.
//
// Any in-flight turn is cancelled first. The user message and the assistant
// placeholder are appended before the request is sent. The returned error is
// the transport failure, if any; server-signalled errors and cancellation
// return nil and are visible on the assistant message instead.
func (c *Controller) SendMessage(ctx context.Context, content, contextText string, files []model.UploadedFile) (Turn, error) {
	if strings.TrimSpace(content) == "" && strings.TrimSpace(contextText) == "" && len(files) == 0 {
		return Turn{}, nil
	}

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var turn Turn
	var gen uint64
	c.update(func() bool {
		c.err = ""
		c.loading = true
		c.generation++
		gen = c.generation
		c.cancelMgr.set(gen, cancel)

		sess := c.findLocked(c.activeID)
		if sess == nil {
			sess = c.createLocked()
		}
		isFirst := sess.IsEmpty()

		user := model.NewUserMessage(content, files)
		sess.AddMessage(user)
		if isFirst {
			sess.SetTitleFrom(content)
		}

		assistant := model.NewAssistantPlaceholder()
		sess.AddMessage(assistant)
		c.streamingID = assistant.ID

		turn = Turn{SessionID: sess.ID, UserMessageID: user.ID, AssistantMessageID: assistant.ID}
		return true
	})

	log := c.logger.With(
		zap.String("session_id", turn.SessionID),
		zap.String("message_id", turn.AssistantMessageID),
		zap.Int("files", len(files)))
	log.Debug("turn started")

	var acc strings.Builder
	err := c.streamer.ChatStream(turnCtx, api.Request{
		Message:   content,
		Context:   contextText,
		SessionID: turn.SessionID,
		Files:     files,
	}, func(ev api.Event) {
		if turnCtx.Err() != nil {
			return
		}
		c.applyEvent(turn, ev, &acc)
	})

	switch {
	case err == nil:
	case api.IsCanceled(err) || turnCtx.Err() != nil:
		log.Debug("turn cancelled")
		err = nil
	default:
		log.Warn("turn failed", zap.Error(err))
		errMsg := err.Error()
		c.update(func() bool {
			c.err = errMsg
			if sess := c.findLocked(turn.SessionID); sess != nil {
				sess.UpdateMessage(turn.AssistantMessageID, func(m *model.Message) {
					m.Fail(errMsg)
				})
			}
			return true
		})
	}

	// Only the turn that is still current may clear the loading flag.
	c.update(func() bool {
		if c.generation != gen {
			return false
		}
		c.cancelMgr.release(gen)
		c.streamingID = ""
		changed := c.loading
		c.loading = false
		return changed
	})

	return turn, err
}

// applyEvent mutates the assistant placeholder for one event. acc holds the
// full text so content is always replaced, never appended.
func (c *Controller) applyEvent(turn Turn, ev api.Event, acc *strings.Builder) {
	switch ev.Kind {
	case api.EventDone:
		c.updateMessage(turn.SessionID, turn.AssistantMessageID, func(m *model.Message) {
			m.IsStreaming = false
		})
	case api.EventError:
		c.logger.Info("server reported error",
			zap.String("session_id", turn.SessionID),
			zap.String("error", ev.Text))
		c.updateMessage(turn.SessionID, turn.AssistantMessageID, func(m *model.Message) {
			m.Fail(ev.Text)
		})
	case api.EventThought:
		c.updateMessage(turn.SessionID, turn.AssistantMessageID, func(m *model.Message) {
			m.AppendThought(ev.Text)
		})
	case api.EventContent:
		acc.WriteString(ev.Text)
		full := acc.String()
		c.updateMessage(turn.SessionID, turn.AssistantMessageID, func(m *model.Message) {
			m.Content = full
		})
	}
}

// StopGeneration cancels the in-flight turn, if any, and clears the loading
// flag without waiting for the transport to unwind. The assistant message
// is not touched.
func (c *Controller) StopGeneration() {
	stopped := c.cancelMgr.cancel()
	c.update(func() bool {
		c.streamingID = ""
		changed := c.loading
		c.loading = false
		return changed
	})
	if stopped {
		c.logger.Debug("generation stopped")
	}
}
