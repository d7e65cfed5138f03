// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     tui
// Description: Terminal front-end for the scan, translate and speak session
// Author:      Mike Stoffels
// Created:     2026-10-12
// License:     MIT
// ============================================================================

package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/vaani/internal/history"
	"github.com/msto63/vaani/internal/language"
	"github.com/msto63/vaani/internal/pipeline"
	"github.com/msto63/vaani/internal/speech"
	vaerr "github.com/msto63/vaani/pkg/core/error"
)

// Options wires the TUI to a running session
type Options struct {
	Ctx          context.Context
	Orchestrator *pipeline.Orchestrator
	Dispatcher   *speech.Dispatcher
	History      *history.Store
	Languages    *language.Table
	VoiceEnabled bool

	// Copy writes text to the clipboard; defaults to the system clipboard
	Copy func(string) error
}

// languageItem implements list.Item
type languageItem struct {
	lang language.Language
}

func (i languageItem) Title() string       { return i.lang.Label() }
func (i languageItem) Description() string { return i.lang.Code }
func (i languageItem) FilterValue() string { return i.lang.Name + " " + i.lang.Native + " " + i.lang.Code }

// pageItem implements list.Item
type pageItem int

func (i pageItem) Title() string       { return fmt.Sprintf("Page %d", int(i)+1) }
func (i pageItem) Description() string { return "" }
func (i pageItem) FilterValue() string { return i.Title() }

// historyItem implements list.Item
type historyItem struct {
	entry history.Entry
}

func (i historyItem) Title() string { return history.Preview(i.entry.Text, 60) }
func (i historyItem) Description() string {
	return i.entry.Language + " · " + i.entry.CreatedAt
}
func (i historyItem) FilterValue() string { return i.entry.Text }

// Model is the TUI model
type Model struct {
	opts    Options
	ctx     context.Context
	updates chan tea.Msg

	width  int
	height int
	ready  bool

	session     pipeline.Session
	audio       speech.Status
	showHistory bool
	working     string
	flash       string
	err         error

	fileInput textinput.Model
	pages     list.Model
	languages list.Model
	entries   list.Model
	result    viewport.Model
	spinner   spinner.Model
}

// NewModel creates the model and subscribes to session and audio updates
func NewModel(opts Options) Model {
	if opts.Ctx == nil {
		opts.Ctx = context.Background()
	}
	if opts.Languages == nil {
		opts.Languages = language.Default()
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	ti := textinput.New()
	ti.Placeholder = "Path to an image or PDF"
	ti.CharLimit = 1024
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	m := Model{
		opts:      opts,
		ctx:       opts.Ctx,
		updates:   make(chan tea.Msg, 64),
		audio:     speech.StatusIdle,
		fileInput: ti,
		pages:     newList("Select a page", nil),
		languages: newList("Select a language", languageItems(opts.Languages)),
		entries:   newList("History", nil),
		result:    viewport.New(80, 10),
		spinner:   sp,
	}
	m.languages.SetFilteringEnabled(true)

	if o := opts.Orchestrator; o != nil {
		m.session = o.Snapshot()
		o.Subscribe(func(s pipeline.Session) { m.send(sessionMsg(s)) })
	}
	if d := opts.Dispatcher; d != nil {
		d.Subscribe(func(s speech.Status) { m.send(audioMsg(s)) })
	}
	return m
}

func newList(title string, items []list.Item) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	l := list.New(items, delegate, 60, 14)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	return l
}

func languageItems(t *language.Table) []list.Item {
	all := t.All()
	items := make([]list.Item, len(all))
	for i, l := range all {
		items[i] = languageItem{lang: l}
	}
	return items
}

// send delivers msg without blocking the publisher. Subscribers run under
// orchestrator and dispatcher locks, so a full buffer drops the update;
// the next snapshot supersedes it.
func (m Model) send(msg tea.Msg) {
	select {
	case m.updates <- msg:
	default:
	}
}

func (m Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.updates:
			return msg
		case <-m.ctx.Done():
			return tea.Quit()
		}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForUpdate())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		listHeight := msg.Height - 8
		if listHeight < 5 {
			listHeight = 5
		}
		m.pages.SetSize(msg.Width-4, listHeight)
		m.languages.SetSize(msg.Width-4, listHeight)
		m.entries.SetSize(msg.Width-4, listHeight)
		m.result.Width = msg.Width - 8
		m.result.Height = listHeight - 4
		m.fileInput.Width = msg.Width - 8
		m.refreshResult()
		return m, nil

	case sessionMsg:
		m.applySession(pipeline.Session(msg))
		return m, m.waitForUpdate()

	case audioMsg:
		m.audio = speech.Status(msg)
		return m, m.waitForUpdate()

	case opDoneMsg:
		m.working = ""
		if msg.err != nil && !errors.Is(msg.err, pipeline.ErrStaleResult) && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		if o := m.opts.Orchestrator; o != nil {
			m.applySession(o.Snapshot())
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.flash = "Copied to clipboard"
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	cmds = append(cmds, m.updateFocused(msg))
	return m, tea.Batch(cmds...)
}

// applySession syncs widgets with a new snapshot
func (m *Model) applySession(s pipeline.Session) {
	prev := m.session.State
	m.session = s

	if s.State == pipeline.StatePageSelect && prev != pipeline.StatePageSelect {
		items := make([]list.Item, s.PageCount)
		for i := range items {
			items[i] = pageItem(i)
		}
		m.pages.SetItems(items)
		m.pages.Select(0)
	}
	if s.State == pipeline.StateReady && prev != pipeline.StateReady {
		m.fileInput.Focus()
	}
	m.refreshResult()
}

func (m *Model) refreshResult() {
	width := m.result.Width
	if width <= 0 {
		width = 80
	}
	m.result.SetContent(lipgloss.NewStyle().Width(width).Render(m.session.ResultText))
}

// filtering reports whether the focused list is capturing keystrokes
func (m *Model) filtering() bool {
	return m.session.State == pipeline.StateChoosing && m.languages.FilterState() == list.Filtering
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	m.flash = ""
	if m.filtering() {
		return nil, false
	}
	o := m.opts.Orchestrator
	if o == nil {
		return nil, false
	}
	key := msg.String()

	if m.showHistory {
		switch key {
		case "esc", "h":
			m.showHistory = false
			return nil, true
		case "enter":
			item, ok := m.entries.SelectedItem().(historyItem)
			if !ok {
				return nil, true
			}
			m.showHistory = false
			return m.run("open", func(ctx context.Context) error {
				return o.OpenHistoryEntry(item.entry.ID)
			}), true
		}
		return nil, false
	}

	if key == "esc" && m.session.State != pipeline.StateReady {
		m.err = nil
		return m.run("reset", func(ctx context.Context) error {
			o.Reset()
			return nil
		}), true
	}

	switch m.session.State {
	case pipeline.StateReady:
		switch key {
		case "enter":
			path := strings.TrimSpace(m.fileInput.Value())
			if path == "" {
				return nil, true
			}
			m.err = nil
			m.fileInput.Reset()
			return m.submit(path), true
		case "f2":
			m.openHistory()
			return nil, true
		}

	case pipeline.StatePageSelect:
		if key == "enter" {
			if item, ok := m.pages.SelectedItem().(pageItem); ok {
				m.err = nil
				return m.run("page", func(ctx context.Context) error {
					return o.SelectPage(ctx, int(item))
				}), true
			}
			return nil, true
		}

	case pipeline.StateChoosing:
		switch key {
		case "enter":
			item, ok := m.languages.SelectedItem().(languageItem)
			if !ok || m.session.Busy {
				return nil, true
			}
			m.err = nil
			return m.run("translate", func(ctx context.Context) error {
				return o.ChooseLanguage(ctx, item.lang.Code)
			}), true
		case "m", "tab":
			_, err := o.ToggleMode()
			m.err = err
			m.applySession(o.Snapshot())
			return nil, true
		case "v":
			if !m.opts.VoiceEnabled || m.session.Busy {
				return nil, true
			}
			m.err = nil
			return m.run("listen", func(ctx context.Context) error {
				return o.StartVoiceSelection(ctx)
			}), true
		}

	case pipeline.StatePlaying:
		switch key {
		case "s":
			m.err = o.Stop()
			m.applySession(o.Snapshot())
			return nil, true
		case "b":
			m.err = o.Back()
			m.applySession(o.Snapshot())
			return nil, true
		case "r":
			return m.run("replay", func(ctx context.Context) error {
				return o.Replay(ctx)
			}), true
		case "c":
			text := m.session.ResultText
			copyFn := m.opts.Copy
			return func() tea.Msg { return copiedMsg{err: copyFn(text)} }, true
		case "h":
			m.openHistory()
			return nil, true
		}
	}
	return nil, false
}

func (m *Model) openHistory() {
	if m.opts.History == nil {
		m.err = vaerr.New("history not configured").WithCode(vaerr.CodeConfigError)
		return
	}
	if m.session.State == pipeline.StatePlaying {
		// History entries open from READY.
		if err := m.opts.Orchestrator.Back(); err != nil {
			m.err = err
			return
		}
		m.applySession(m.opts.Orchestrator.Snapshot())
	}
	entries := m.opts.History.Entries()
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = historyItem{entry: e}
	}
	m.entries.SetItems(items)
	m.showHistory = true
}

func (m *Model) submit(path string) tea.Cmd {
	o := m.opts.Orchestrator
	return m.run("scan", func(ctx context.Context) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return o.SubmitCapture(ctx, pipeline.File{Name: filepath.Base(path), Data: data})
	})
}

// run executes an orchestrator command off the UI goroutine
func (m *Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	m.working = op
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.showHistory {
		m.entries, cmd = m.entries.Update(msg)
		return cmd
	}
	switch m.session.State {
	case pipeline.StateReady:
		m.fileInput, cmd = m.fileInput.Update(msg)
	case pipeline.StatePageSelect:
		m.pages, cmd = m.pages.Update(msg)
	case pipeline.StateChoosing:
		m.languages, cmd = m.languages.Update(msg)
	case pipeline.StatePlaying:
		m.result, cmd = m.result.Update(msg)
	}
	return cmd
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.showHistory:
		b.WriteString(m.entries.View())
	case m.session.State == pipeline.StateReady:
		b.WriteString(hintStyle.Render("Scan a page, pick a language, listen."))
		b.WriteString("\n\n")
		b.WriteString(pathInputStyle.Render(m.fileInput.View()))
	case m.session.State == pipeline.StatePageSelect:
		b.WriteString(m.pages.View())
	case m.session.State == pipeline.StateScanning:
		b.WriteString(m.spinner.View() + " Reading text...")
	case m.session.State == pipeline.StateChoosing:
		b.WriteString(sourceBoxStyle.Render(history.Preview(m.session.SourceText, 200)))
		b.WriteString("\n")
		if m.session.Busy {
			b.WriteString(m.spinner.View() + " Listening...\n")
		}
		b.WriteString(m.languages.View())
	case m.session.State == pipeline.StateTranslating:
		b.WriteString(m.spinner.View() + " Translating to " + m.targetLabel() + "...")
	case m.session.State == pipeline.StatePlaying:
		b.WriteString(resultBoxStyle.Render(m.result.View()))
	}

	b.WriteString("\n")
	if m.session.Notice != "" {
		b.WriteString(noticeStyle.Render(m.session.Notice))
		b.WriteString("\n")
	}
	if m.flash != "" {
		b.WriteString(modeStyle.Render(m.flash))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(renderError(m.err))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) renderHeader() string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("Vaani"), "  ",
		stateBadge(m.session.State),
		barStyle.Render("│"),
		modeStyle.Inherit(barStyle).Render("mode: "+m.session.Mode.WireName()),
		barStyle.Render("│"),
		audioBadge(m.audio, m.spinner.View()),
	)
}

func (m Model) targetLabel() string {
	if l, ok := m.opts.Languages.Lookup(m.session.TargetLanguage); ok {
		return l.Label()
	}
	return m.session.TargetLanguage
}

func (m Model) helpLine() string {
	if m.showHistory {
		return "enter: open • esc: close"
	}
	switch m.session.State {
	case pipeline.StateReady:
		return "enter: scan • f2: history • ctrl+c: quit"
	case pipeline.StatePageSelect:
		return "↑/↓: page • enter: select • esc: cancel"
	case pipeline.StateChoosing:
		help := "enter: translate • m: toggle mode • /: filter"
		if m.opts.VoiceEnabled {
			help += " • v: speak a language"
		}
		return help + " • esc: cancel"
	case pipeline.StatePlaying:
		return "s: stop • r: replay • b: back • c: copy • h: history • esc: new scan"
	default:
		return "esc: cancel • ctrl+c: quit"
	}
}

// Run starts the program and blocks until the user quits
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
