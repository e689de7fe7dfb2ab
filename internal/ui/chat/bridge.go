// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// SUBSCRIPTION BRIDGE
// =============================================================================

// bridge turns controller notifications into tea.Msgs. Notifications
// coalesce: the channel holds at most one pending revision, and a newer one
// replaces it, because the model always renders the latest Snapshot anyway.
//
// IMPORTANT: Model holds a *bridge so Bubble Tea's value copies of Model
// share one channel.
type bridge struct {
	ch          chan uint64
	once        sync.Once
	done        chan struct{}
	unsubscribe func()
}

// subscriber is the part of the controller the bridge needs.
type subscriber interface {
	Subscribe(fn func(revision uint64)) func()
}

func newBridge(src subscriber) *bridge {
	b := &bridge{
		ch:   make(chan uint64, 1),
		done: make(chan struct{}),
	}
	b.unsubscribe = src.Subscribe(b.notify)
	return b
}

// notify never blocks; it runs on whichever goroutine mutated the controller.
func (b *bridge) notify(revision uint64) {
	for {
		select {
		case b.ch <- revision:
			return
		default:
		}
		select {
		case <-b.ch:
		default:
		}
	}
}

// wait returns a command that delivers the next notification. The model
// re-arms it after every stateChangedMsg.
func (b *bridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case rev := <-b.ch:
			return stateChangedMsg{Revision: rev}
		case <-b.done:
			return nil
		}
	}
}

// close unsubscribes and releases a pending wait.
func (b *bridge) close() {
	b.once.Do(func() {
		b.unsubscribe()
		close(b.done)
	})
}
