// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
)

// =============================================================================
// CANCEL FUNCTION MANAGEMENT (THREAD-SAFE)
// =============================================================================

// cancelManager holds the cancel function of the in-flight turn, tagged with
// the turn's generation so a finished turn can only clear its own handle.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	generation uint64
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set cancels whatever was stored and stores fn for generation gen.
func (cm *cancelManager) set(gen uint64, fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.cancelFunc = fn
	cm.generation = gen
}

// cancel invokes the stored cancel function and clears it.
// Safe to call multiple times or with no cancel function set.
func (cm *cancelManager) cancel() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc == nil {
		return false
	}
	cm.cancelFunc()
	cm.cancelFunc = nil
	return true
}

// release drops the handle if it still belongs to generation gen.
func (cm *cancelManager) release(gen uint64) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil && cm.generation == gen {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
}

// active reports whether a handle is stored.
func (cm *cancelManager) active() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.cancelFunc != nil
}
