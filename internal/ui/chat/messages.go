// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/jellycat-tui/internal/config"
	"github.com/jeranaias/jellycat-tui/internal/model"
	"github.com/jeranaias/jellycat-tui/internal/session"
)

// stateChangedMsg reports that the controller moved past a revision.
type stateChangedMsg struct {
	Revision uint64
}

// turnDoneMsg is sent when a SendMessage call returns.
type turnDoneMsg struct {
	Turn session.Turn
	Err  error
}

// filesAddedMsg is sent when an attachment batch has been read.
type filesAddedMsg struct {
	Added []model.UploadedFile
}

// attachFailedMsg reports a path that could not be turned into a candidate.
type attachFailedMsg struct {
	Path string
	Err  error
}

// exportedMsg reports where the active chat was written.
type exportedMsg struct {
	Path string
	Err  error
}

// ConfigReloadedMsg carries a reloaded config file. Err is set when the file
// could not be loaded; the screen keeps its current settings in that case.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
