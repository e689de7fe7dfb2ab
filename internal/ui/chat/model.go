// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/jellycat-tui/internal/model"
	"github.com/jeranaias/jellycat-tui/internal/present"
	"github.com/jeranaias/jellycat-tui/internal/session"
	"github.com/jeranaias/jellycat-tui/internal/ui/styles"
	"github.com/jeranaias/jellycat-tui/internal/upload"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Controller is the session controller as seen by the screen.
type Controller interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(revision uint64)) func()
	CreateNewSession() *model.Session
	SelectSession(id string) bool
	DeleteSession(id string) bool
	SendMessage(ctx context.Context, content, contextText string, files []model.UploadedFile) (session.Turn, error)
	StopGeneration()
}

// Uploads is the composer's pending-attachment state.
type Uploads interface {
	AddFiles(ctx context.Context, candidates []upload.Candidate) []model.UploadedFile
	RemoveFile(id string)
	ClearFiles()
	Files() []model.UploadedFile
	Error() string
	IsUploading() bool
}

// Options configures a Model.
type Options struct {
	Controller Controller
	Uploads    Uploads

	// Theme (default: auto mode)
	Theme *styles.Theme

	// ShowThoughts lists processing steps above assistant replies
	ShowThoughts bool

	// RenderMarkdown renders finished replies with glamour
	RenderMarkdown bool

	// ExportDir receives C-s exports (default: current directory)
	ExportDir string

	// Logger (default: no-op)
	Logger *zap.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

type focus int

const (
	focusMessage focus = iota
	focusContext
	focusAttach
)

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx     context.Context
	ctrl    Controller
	uploads Uploads
	logger  *zap.Logger

	// Styling
	theme        *styles.Theme
	md           *markdown
	showThoughts bool
	exportDir    string

	// Controller notifications; pointer so copies share the channel
	bridge *bridge

	// Dimensions
	width  int
	height int
	ready  bool

	// Latest state
	snap session.Snapshot
	page present.Page

	// UI Components
	viewport viewport.Model
	message  textinput.Model
	context  textinput.Model
	attach   textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap

	focus     focus
	attaching bool
	status    string
}

// New creates the chat screen. ctx bounds every request the screen starts.
func New(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}

	message := textinput.New()
	message.Prompt = "› "
	message.Placeholder = present.MessagePlaceholder
	message.CharLimit = 10000
	message.Focus()

	contextInput := textinput.New()
	contextInput.Prompt = "+ "
	contextInput.Placeholder = present.ContextPlaceholder
	contextInput.CharLimit = 10000

	attach := textinput.New()
	attach.Prompt = "Attach: "
	attach.Placeholder = "path to a file"

	// ASCII spinner frames render on every terminal
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	m := Model{
		ctx:          ctx,
		ctrl:         opts.Controller,
		uploads:      opts.Uploads,
		logger:       logger,
		theme:        theme,
		md:           newMarkdown(theme.GlamourStyle(), opts.RenderMarkdown, logger),
		showThoughts: opts.ShowThoughts,
		exportDir:    opts.ExportDir,
		bridge:       newBridge(opts.Controller),
		viewport:     viewport.New(80, 20),
		message:      message,
		context:      contextInput,
		attach:       attach,
		spinner:      sp,
		help:         help.New(),
		keys:         DefaultKeyMap(),
	}
	m.applyTheme()
	m.refresh()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink, the spinner and the controller listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.bridge.wait())
}

// Update handles messages and user input.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case stateChangedMsg:
		m.refresh()
		return m, m.bridge.wait()

	case turnDoneMsg:
		if msg.Err != nil {
			m.logger.Debug("turn failed", zap.String("session_id", msg.Turn.SessionID), zap.Error(msg.Err))
		}
		m.refresh()
		return m, nil

	case filesAddedMsg:
		if n := len(msg.Added); n > 0 {
			m.status = "Attached " + msg.Added[n-1].Name
		}
		m.refresh()
		return m, nil

	case attachFailedMsg:
		m.status = "Cannot attach " + msg.Path + ": " + msg.Err.Error()
		m.refresh()
		return m, nil

	case exportedMsg:
		if msg.Err != nil {
			m.logger.Warn("export failed", zap.Error(msg.Err))
			m.status = "Export failed: " + msg.Err.Error()
		} else {
			m.status = "Exported to " + msg.Path
		}
		m.refresh()
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReload(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.snap.IsLoading || m.uploads.IsUploading() {
			m.refresh()
		}
		return m, cmd
	}

	return m.updateFocused(msg)
}

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}
	r := m.renderer()
	return r.Layout(r.Sidebar(m.page.Sidebar), m.viewport.View(), r.Composer(m.page.Composer))
}

// Close releases the controller subscription.
func (m Model) Close() {
	m.bridge.close()
}

// =============================================================================
// STATE AND LAYOUT
// =============================================================================

// refresh pulls a fresh snapshot, rebuilds the page and re-lays the screen.
func (m *Model) refresh() {
	m.snap = m.ctrl.Snapshot()
	m.page = present.Build(present.Input{
		Snapshot:     m.snap,
		Files:        m.uploads.Files(),
		UploadError:  m.uploads.Error(),
		Uploading:    m.uploads.IsUploading(),
		Message:      m.message.Value(),
		Context:      m.context.Value(),
		HideThoughts: !m.showThoughts,
	})
	m.layout()
}

// layout sizes the viewport around the composer and refills it.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	r := m.renderer()

	helpHeight := lipgloss.Height(r.helpView)
	composerHeight := lipgloss.Height(r.Composer(m.page.Composer))
	const titleHeight = 1

	vpHeight := m.height - helpHeight - titleHeight - composerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = r.mainWidth()
	m.viewport.Height = vpHeight

	follow := m.viewport.AtBottom()
	m.viewport.SetContent(present.RenderConversation(r, m.page.Conversation))
	if follow || m.snap.IsLoading {
		m.viewport.GotoBottom()
	}

	keep := make(map[string]bool, len(m.page.Conversation.Messages))
	for _, msg := range m.page.Conversation.Messages {
		keep[msg.ID] = true
	}
	m.md.forget(keep)
}

func (m Model) renderer() *screenRenderer {
	title := m.page.Conversation.Title
	if title == "" {
		title = present.AppName
	}
	r := &screenRenderer{
		theme:        m.theme,
		md:           m.md,
		width:        m.width,
		sidebarWidth: m.theme.SidebarWidth(),
		spinner:      m.theme.Spinner.Render(m.spinner.View()),
		title:        title,
		messageView:  m.message.View(),
		contextView:  m.context.View(),
		statusLine:   m.status,
		helpView:     m.help.View(m.keys),
	}
	if m.attaching {
		r.attachView = m.attach.View()
	}
	r.height = m.height - lipgloss.Height(r.helpView)
	return r
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.theme.SetSize(msg.Width, msg.Height)
	m.help.Width = msg.Width

	r := m.renderer()
	inputWidth := r.mainWidth() - 8
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.message.Width = inputWidth
	m.context.Width = inputWidth
	m.attach.Width = inputWidth - 6

	m.md.configure(m.theme.GlamourStyle(), r.bubbleWidth(), m.md.enable)
	m.refresh()
	return m, nil
}

// applyTheme restyles the inputs after a theme change.
func (m *Model) applyTheme() {
	t := m.theme
	for _, in := range []*textinput.Model{&m.message, &m.context, &m.attach} {
		in.PromptStyle = t.InputPrompt
		in.PlaceholderStyle = t.InputPlaceholder
	}
	switch m.focus {
	case focusContext:
		m.context.PromptStyle = t.InputPromptFocus
	case focusAttach:
		m.attach.PromptStyle = t.InputPromptFocus
	default:
		m.message.PromptStyle = t.InputPromptFocus
	}
	m.help.Styles.ShortKey = t.ShortcutKey
	m.help.Styles.ShortDesc = t.ShortcutDesc
	m.help.Styles.FullKey = t.ShortcutKey
	m.help.Styles.FullDesc = t.ShortcutDesc
}

func (m Model) handleConfigReload(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("config reload failed", zap.Error(msg.Err))
		m.status = "Config not reloaded: " + msg.Err.Error()
		m.refresh()
		return m, nil
	}

	cfg := msg.Config
	m.theme = styles.NewTheme(styles.ParseMode(cfg.UI.Theme))
	m.theme.SetSize(m.width, m.height)
	m.showThoughts = cfg.UI.ShowThoughts
	m.exportDir = cfg.UI.ExportDir
	width := m.md.width
	if m.ready {
		width = m.renderer().bubbleWidth()
	}
	m.md.configure(m.theme.GlamourStyle(), width, cfg.UI.RenderMarkdown)
	m.applyTheme()
	m.status = "Config reloaded"
	m.logger.Info("config reloaded", zap.String("theme", string(m.theme.Mode)))
	m.refresh()
	return m, nil
}
