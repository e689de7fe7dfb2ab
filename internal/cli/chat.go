// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-mode chat for jellycat.
//
// Command: chat
// Short:   Chat in the terminal without the full-screen UI
//
// Replies stream as they arrive. Ctrl+C during a reply stops it; Ctrl+D
// or /quit at the prompt exits.
//
// Interactive Commands:
//   /help, /h           Show available commands
//   /new                Start a new chat
//   /list, /ls          List chats
//   /select N           Switch to chat N
//   /delete [N]         Delete chat N (default: current)
//   /history            Show the current conversation
//   /show               Show chats, conversation and composer
//   /attach PATH...     Attach files to the next message
//   /detach [N]         Remove attachment N (default: last)
//   /files              List pending attachments
//   /context [TEXT]     Set context for the next message, or clear it
//   /export [md|json]   Write the current chat to a file
//   /quit, /q           Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/jellycat-tui/internal/export"
	"github.com/jeranaias/jellycat-tui/internal/model"
	"github.com/jeranaias/jellycat-tui/internal/present"
	"github.com/jeranaias/jellycat-tui/internal/session"
	"github.com/jeranaias/jellycat-tui/internal/ui/styles"
	"github.com/jeranaias/jellycat-tui/internal/upload"
	"github.com/jeranaias/jellycat-tui/internal/util"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Controller is the session controller as seen by the REPL.
type Controller interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(revision uint64)) func()
	CreateNewSession() *model.Session
	SelectSession(id string) bool
	DeleteSession(id string) bool
	SendMessage(ctx context.Context, content, contextText string, files []model.UploadedFile) (session.Turn, error)
	StopGeneration()
}

// Uploads holds attachments for the next message.
type Uploads interface {
	AddFiles(ctx context.Context, candidates []upload.Candidate) []model.UploadedFile
	RemoveFile(id string)
	ClearFiles()
	Files() []model.UploadedFile
	Error() string
	IsUploading() bool
}

// LineReader reads one line of input. *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// REPLOptions configures a REPL.
type REPLOptions struct {
	Controller Controller
	Uploads    Uploads

	// Reader (default: liner with history in HistoryFile)
	Reader      LineReader
	HistoryFile string

	// Out receives everything the REPL prints (default: stdout)
	Out io.Writer

	// Width wraps text (default: terminal width)
	Width int

	// Markdown renders finished replies in /history and /show
	Markdown     bool
	GlamourStyle string

	ShowThoughts bool

	// ExportDir receives /export files (default: current directory)
	ExportDir string

	// Interrupts stops the reply in flight (default: SIGINT)
	Interrupts <-chan os.Signal

	Logger *zap.Logger
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode chat host.
type REPL struct {
	ctrl         Controller
	uploads      Uploads
	reader       LineReader
	out          io.Writer
	render       *lineRenderer
	showThoughts bool
	exportDir    string
	interrupts   <-chan os.Signal
	logger       *zap.Logger

	line *historyLine

	// Context for the next message, set by /context
	context string
}

// NewREPL creates a REPL. Close releases the terminal.
func NewREPL(opts REPLOptions) *REPL {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	width := opts.Width
	if width <= 0 {
		width = GetTerminalWidth()
	}

	r := &REPL{
		ctrl:         opts.Controller,
		uploads:      opts.Uploads,
		reader:       opts.Reader,
		out:          out,
		render:       newLineRenderer(width, opts.Markdown, opts.GlamourStyle, logger),
		showThoughts: opts.ShowThoughts,
		exportDir:    opts.ExportDir,
		interrupts:   opts.Interrupts,
		logger:       logger,
	}
	if r.reader == nil {
		r.line = newHistoryLine(opts.HistoryFile, logger)
		r.reader = r.line
	}
	return r
}

// Close saves history and restores the terminal.
func (r *REPL) Close() {
	if r.line != nil {
		r.line.Close()
	}
}

// Run reads and handles lines until EOF, /quit or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	r.printWelcome()

	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := r.reader.Prompt(PromptStyle.Render("you") + " › ")
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out)
			return nil
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.reader.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			quit, err := r.handleCommand(ctx, input)
			if err != nil {
				DisplayError(r.out, err)
			}
			if quit {
				return nil
			}
			continue
		}
		r.send(ctx, input)
	}
}

func (r *REPL) printWelcome() {
	fmt.Fprintf(r.out, "%s %s\n", TitleStyle.Render(present.AppName), DimStyle.Render(present.AppVersion))
	fmt.Fprintln(r.out, DimStyle.Render(present.Tagline))
	fmt.Fprintln(r.out, DimStyle.Render("Type a message, or /help for commands."))
	fmt.Fprintln(r.out)
}

// =============================================================================
// SENDING
// =============================================================================

// send runs one turn, streaming the reply to out.
func (r *REPL) send(ctx context.Context, text string) {
	files := r.uploads.Files()
	message, contextText := present.Draft(text, r.context)
	if !present.CanSend(message, contextText, len(files), false, r.uploads.IsUploading()) {
		fmt.Fprintln(r.out, WarningStyle.Render("Attachments are still being read."))
		return
	}
	r.uploads.ClearFiles()
	r.context = ""

	stopInterrupts := r.watchInterrupts()
	defer stopInterrupts()

	printer := newStreamPrinter(r.out, r.ctrl, r.showThoughts)
	unsubscribe := r.ctrl.Subscribe(printer.notify)
	turn, err := r.ctrl.SendMessage(ctx, message, contextText, files)
	unsubscribe()
	printer.finish(turn)

	if err != nil {
		r.logger.Debug("turn failed", zap.Error(err))
	}
}

// watchInterrupts stops the reply in flight when an interrupt arrives.
func (r *REPL) watchInterrupts() (stop func()) {
	ch := r.interrupts
	var sigCh chan os.Signal
	if ch == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		ch = sigCh
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ch:
			r.ctrl.StopGeneration()
		case <-done:
		}
	}()

	return func() {
		close(done)
		wg.Wait()
		if sigCh != nil {
			signal.Stop(sigCh)
		}
	}
}

// =============================================================================
// STREAM PRINTER
// =============================================================================

// streamPrinter writes the growing assistant message as deltas. notify runs
// on whichever goroutine changed the controller, so output is serialized.
type streamPrinter struct {
	mu           sync.Mutex
	out          io.Writer
	ctrl         Controller
	showThoughts bool

	msgID    string
	started  bool
	thoughts int
	printed  string
	midLine  bool
}

func newStreamPrinter(out io.Writer, ctrl Controller, showThoughts bool) *streamPrinter {
	return &streamPrinter{out: out, ctrl: ctrl, showThoughts: showThoughts}
}

func (p *streamPrinter) notify(uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.ctrl.Snapshot()
	if p.msgID == "" {
		p.msgID = snap.StreamingID
	}
	if msg := findMessage(snap, p.msgID); msg != nil {
		p.write(msg)
	}
}

// finish flushes what is left of the turn's reply and how it ended.
func (p *streamPrinter) finish(turn session.Turn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if turn.AssistantMessageID == "" {
		return
	}
	p.msgID = turn.AssistantMessageID

	snap := p.ctrl.Snapshot()
	msg := findMessage(snap, p.msgID)
	if msg == nil {
		return
	}
	p.write(msg)

	item := present.BuildMessage(msg, snap.StreamingID, p.showThoughts)
	p.endLine()
	switch item.Status {
	case present.StatusFailed:
		fmt.Fprintln(p.out, ErrorStyle.Render(styles.StatusIndicators.Error+" "+item.Error))
	case present.StatusStopped:
		fmt.Fprintln(p.out, DimStyle.Render("("+present.StoppedLabel+")"))
	}
	fmt.Fprintln(p.out)
}

func (p *streamPrinter) write(msg *model.Message) {
	if !p.started {
		fmt.Fprintln(p.out, AssistantLabelStyle.Render(model.RoleAssistant.DisplayName()))
		p.started = true
	}

	if p.showThoughts {
		for ; p.thoughts < len(msg.Thoughts); p.thoughts++ {
			p.endLine()
			fmt.Fprintln(p.out, ThoughtStyle.Render("› "+msg.Thoughts[p.thoughts]))
		}
	}

	if msg.Content == p.printed {
		return
	}
	delta := msg.Content
	if strings.HasPrefix(msg.Content, p.printed) {
		delta = msg.Content[len(p.printed):]
	} else {
		p.endLine()
	}
	fmt.Fprint(p.out, delta)
	p.printed = msg.Content
	p.midLine = !strings.HasSuffix(msg.Content, "\n")
}

func (p *streamPrinter) endLine() {
	if p.midLine {
		fmt.Fprintln(p.out)
		p.midLine = false
	}
}

func findMessage(snap session.Snapshot, id string) *model.Message {
	if id == "" {
		return nil
	}
	for _, sess := range snap.Sessions {
		if m := sess.FindMessage(id); m != nil {
			return m
		}
	}
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const replHelp = `Commands:
  /new                Start a new chat
  /list, /ls          List chats
  /select N           Switch to chat N
  /delete [N]         Delete chat N (default: current)
  /history            Show the current conversation
  /show               Show chats, conversation and composer
  /attach PATH...     Attach files to the next message
  /detach [N]         Remove attachment N (default: last)
  /files              List pending attachments
  /context [TEXT]     Set context for the next message, or clear it
  /export [md|json]   Write the current chat to a file
  /help, /h           Show this help
  /quit, /q           Exit

Ctrl+C stops a reply. Ctrl+D exits.`

// handleCommand runs one slash command and reports whether to exit.
func (r *REPL) handleCommand(ctx context.Context, input string) (bool, error) {
	words := SplitLine(strings.TrimPrefix(input, "/"))
	if len(words) == 0 {
		return false, nil
	}
	p := NewArgParser(words[1:])
	cmd := strings.ToLower(words[0])

	switch cmd {
	case "quit", "q", "exit":
		return true, nil
	case "help", "h", "?":
		fmt.Fprintln(r.out, replHelp)
	case "new":
		r.ctrl.CreateNewSession()
		fmt.Fprintln(r.out, SuccessStyle.Render("Started a new chat"))
	case "list", "ls":
		fmt.Fprintln(r.out, r.render.Sidebar(present.BuildSidebar(r.ctrl.Snapshot())))
	case "select", "open":
		return false, r.selectSession(p.Positional(0))
	case "delete", "rm":
		return false, r.deleteSession(p.Positional(0))
	case "history":
		c := present.BuildConversation(r.ctrl.Snapshot(), r.showThoughts)
		fmt.Fprintln(r.out, present.RenderConversation(r.render, c))
	case "show":
		fmt.Fprintln(r.out, present.Render(r.render, r.page()))
	case "attach":
		if p.PositionalCount() == 0 {
			return false, ErrMissingArgument("path", "/attach ~/notes.txt")
		}
		r.attach(ctx, p.PositionalFrom(0))
	case "detach":
		return false, r.detach(p.Positional(0))
	case "files":
		r.listFiles()
	case "context":
		r.context = commandRest(input)
		if r.context == "" {
			fmt.Fprintln(r.out, DimStyle.Render("Context cleared"))
		} else {
			fmt.Fprintln(r.out, DimStyle.Render("Context set for the next message"))
		}
	case "export":
		return false, r.exportSession(p.Positional(0))
	default:
		return false, NewValidationErrorWithExample("command", "/"+cmd, "unknown command", "/help")
	}
	return false, nil
}

// commandRest returns the raw text after the command word, quotes intact.
func commandRest(input string) string {
	_, rest, _ := strings.Cut(strings.TrimSpace(input), " ")
	return strings.TrimSpace(rest)
}

func (r *REPL) page() present.Page {
	return present.Build(present.Input{
		Snapshot:     r.ctrl.Snapshot(),
		Files:        r.uploads.Files(),
		UploadError:  r.uploads.Error(),
		Uploading:    r.uploads.IsUploading(),
		Context:      r.context,
		HideThoughts: !r.showThoughts,
	})
}

// sessionAt resolves a 1-based index as listed by /list.
func (r *REPL) sessionAt(arg string) (*model.Session, error) {
	n, err := ParseIntWithValidation(arg, "chat number")
	if err != nil {
		return nil, NewValidationErrorWithExample("chat number", arg, err.Error(), "/select 2")
	}
	sessions := r.ctrl.Snapshot().Sessions
	if n > len(sessions) {
		return nil, NewValidationError("chat number", arg, fmt.Sprintf("there are %d chats", len(sessions)))
	}
	return sessions[n-1], nil
}

func (r *REPL) selectSession(arg string) error {
	sess, err := r.sessionAt(arg)
	if err != nil {
		return err
	}
	r.ctrl.SelectSession(sess.ID)
	fmt.Fprintln(r.out, SuccessStyle.Render("Switched to "+sess.Title))
	c := present.BuildConversation(r.ctrl.Snapshot(), r.showThoughts)
	if len(c.Messages) > 0 {
		fmt.Fprintln(r.out, present.RenderConversation(r.render, c))
	}
	return nil
}

func (r *REPL) deleteSession(arg string) error {
	var sess *model.Session
	if arg == "" {
		sess = r.ctrl.Snapshot().Active()
		if sess == nil {
			return NewValidationErrorWithExample("chat number", "", "no chat is selected", "/delete 1")
		}
	} else {
		var err error
		if sess, err = r.sessionAt(arg); err != nil {
			return err
		}
	}
	r.ctrl.DeleteSession(sess.ID)
	fmt.Fprintln(r.out, SuccessStyle.Render("Deleted "+sess.Title))
	return nil
}

func (r *REPL) exportSession(format string) error {
	sess := r.ctrl.Snapshot().Active()
	if sess == nil || sess.IsEmpty() {
		return NewCommandError("export", "write", "there is nothing to export", nil)
	}

	opts := export.DefaultOptions()
	if r.exportDir != "" {
		opts.OutputDir = r.exportDir
	}
	opts.IncludeThoughts = r.showThoughts

	exporter, err := export.NewExporter(format, opts)
	if err != nil {
		return NewValidationErrorWithExample("format", format, "must be md or json", "/export json")
	}
	path, err := export.ExportToFile(sess, exporter, opts)
	if err != nil {
		return NewCommandError("export", "write", "cannot write export", err)
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("Exported to "+path))
	return nil
}

func (r *REPL) attach(ctx context.Context, paths []string) {
	var candidates []upload.Candidate
	for _, path := range paths {
		c, err := upload.FromPath(util.ExpandHome(path))
		if err != nil {
			fmt.Fprintln(r.out, ErrorStyle.Render(fmt.Sprintf("%s Cannot attach %s: %v", styles.StatusIndicators.Error, path, err)))
			continue
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return
	}

	for _, chip := range present.Chips(r.uploads.AddFiles(ctx, candidates)) {
		fmt.Fprintln(r.out, SuccessStyle.Render("Attached ")+ChipStyle.Render(fmt.Sprintf("%s %s (%s)", chip.Icon, chip.Name, chip.SizeText)))
	}
	if msg := r.uploads.Error(); msg != "" {
		fmt.Fprintln(r.out, WarningStyle.Render(styles.StatusIndicators.Warning+" "+msg))
	}
}

func (r *REPL) detach(arg string) error {
	files := r.uploads.Files()
	if len(files) == 0 {
		return NewValidationError("attachment", arg, "nothing is attached")
	}
	idx := len(files)
	if arg != "" {
		n, err := ParseIntWithValidation(arg, "attachment number")
		if err != nil {
			return NewValidationErrorWithExample("attachment number", arg, err.Error(), "/detach 1")
		}
		if n > len(files) {
			return NewValidationError("attachment number", arg, fmt.Sprintf("there are %d attachments", len(files)))
		}
		idx = n
	}
	f := files[idx-1]
	r.uploads.RemoveFile(f.ID)
	fmt.Fprintln(r.out, DimStyle.Render("Removed "+f.Name))
	return nil
}

func (r *REPL) listFiles() {
	chips := present.Chips(r.uploads.Files())
	if len(chips) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No attachments"))
		return
	}
	for i, c := range chips {
		fmt.Fprintf(r.out, "%2d. %s\n", i+1, ChipStyle.Render(fmt.Sprintf("%s %s (%s)", c.Icon, c.Name, c.SizeText)))
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// historyLine is a liner prompt that loads and saves its history file.
type historyLine struct {
	*liner.State
	path   string
	logger *zap.Logger
}

func newHistoryLine(path string, logger *zap.Logger) *historyLine {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	h := &historyLine{State: state, path: path, logger: logger}
	if path == "" {
		return h
	}
	if f, err := os.Open(path); err == nil {
		if _, err := state.ReadHistory(f); err != nil {
			logger.Debug("history not loaded", zap.String("path", path), zap.Error(err))
		}
		f.Close()
	}
	return h
}

// Close writes the history file and restores the terminal.
func (h *historyLine) Close() {
	if h.path != "" {
		var buf strings.Builder
		if _, err := h.WriteHistory(&buf); err == nil {
			if err := util.AtomicWriteFile(h.path, []byte(buf.String()), 0600, 0700); err != nil {
				h.logger.Debug("history not saved", zap.String("path", h.path), zap.Error(err))
			}
		}
	}
	if err := h.State.Close(); err != nil {
		h.logger.Debug("terminal restore failed", zap.Error(err))
	}
}
