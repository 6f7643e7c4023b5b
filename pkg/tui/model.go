// Package tui renders a conversation.Controller in the terminal.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/papercomputeco/wellchat/pkg/conversation"
)

const (
	inputHeight  = 3
	defaultTitle = "wellchat"
)

// SuggestionsMsg replaces the suggestion list, e.g. after a config reload.
type SuggestionsMsg []string

// changedMsg signals that the controller state moved on.
type changedMsg struct{}

// Model is the bubbletea model of a chat session.
type Model struct {
	controller *conversation.Controller
	changes    chan struct{}
	logger     *zap.Logger

	title    string
	style    string
	renderer *glamour.TermRenderer
	snapshot conversation.Snapshot
	cursor   int
	status   string
	width    int
	height   int
	ready    bool
	quitting bool

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
}

// Option configures a Model.
type Option func(*Model)

// WithStyle sets the glamour style answers are rendered with. An empty style
// shows answers as plain text.
func WithStyle(style string) Option {
	return func(m *Model) {
		m.style = style
	}
}

// WithTitle sets the header text.
func WithTitle(title string) Option {
	return func(m *Model) {
		m.title = title
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// New creates a Model driving controller. The Model subscribes to the
// controller and owns its lifetime: quitting closes it.
func New(controller *conversation.Controller, opts ...Option) *Model {
	input := textarea.New()
	input.Placeholder = "Type your question here..."
	input.Prompt = "┃ "
	input.CharLimit = 0
	input.ShowLineNumbers = false
	input.SetHeight(inputHeight)
	input.KeyMap.InsertNewline.SetEnabled(false)
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		controller: controller,
		changes:    make(chan struct{}, 1),
		logger:     zap.NewNop(),
		title:      defaultTitle,
		style:      StyleDark,
		snapshot:   controller.Snapshot(),
		viewport:   viewport.New(0, 0),
		input:      input,
		spinner:    sp,
		help:       help.New(),
		keys:       defaultKeyMap(),
	}
	for _, opt := range opts {
		opt(m)
	}

	controller.Subscribe(func(conversation.Snapshot) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})

	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.waitForChange())
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return changedMsg{}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.resetRenderer()
		m.sync()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case changedMsg:
		m.sync()
		return m, m.waitForChange()

	case SuggestionsMsg:
		m.controller.SetSuggestions(msg)
		m.sync()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.snapshot.Pending {
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	suggesting := len(m.snapshot.Suggestions) > 0 && strings.TrimSpace(m.input.Value()) == ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.controller.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.snapshot.Pending {
			m.controller.Cancel()
		}
		m.sync()
		return m, nil

	case key.Matches(msg, m.keys.Newline):
		m.input.InsertString("\n")
		m.controller.UpdateDraft(m.input.Value())
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit(suggesting)

	case suggesting && key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case suggesting && key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snapshot.Suggestions)-1 {
			m.cursor++
		}
		return m, nil

	case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.controller.UpdateDraft(m.input.Value())
	return m, cmd
}

func (m *Model) submit(suggesting bool) (tea.Model, tea.Cmd) {
	var (
		reply *conversation.Reply
		err   error
	)
	if suggesting {
		reply, err = m.controller.SelectSuggestion(m.snapshot.Suggestions[m.cursor])
	} else {
		reply, err = m.controller.Submit(m.input.Value())
	}

	switch {
	case errors.Is(err, conversation.ErrBusy):
		m.status = "Still answering the previous question. Press esc to stop it."
		return m, nil
	case err != nil:
		m.logger.Error("submit failed", zap.Error(err))
		m.status = "This conversation is closed."
		return m, nil
	case reply == nil:
		return m, nil
	}

	m.status = ""
	m.input.Reset()
	m.sync()
	return m, nil
}

// sync pulls the controller state and redraws the conversation.
func (m *Model) sync() {
	m.snapshot = m.controller.Snapshot()
	if m.cursor >= len(m.snapshot.Suggestions) {
		m.cursor = 0
	}
	if !m.snapshot.Pending {
		m.status = ""
	}
	m.layout()
	m.refresh()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if s := m.suggestionsView(); s != "" {
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m *Model) statusView() string {
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	if m.snapshot.Pending {
		return m.spinner.View() + " Answering..."
	}
	return ""
}

func (m *Model) suggestionsView() string {
	if len(m.snapshot.Suggestions) == 0 {
		return ""
	}

	width := m.width - 6
	if width < 10 {
		width = 10
	}

	lines := []string{suggestionTitleStyle.Render("Try asking:")}
	for i, s := range m.snapshot.Suggestions {
		text := ansi.Truncate(s, width, "…")
		if i == m.cursor {
			lines = append(lines, selectedSuggestionStyle.Render("> "+text))
		} else {
			lines = append(lines, suggestionStyle.Render(text))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) resetRenderer() {
	m.renderer = nil
	if m.style == "" {
		return
	}

	wrap := m.width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", zap.Error(err))
		return
	}
	m.renderer = r
}

// layout sizes the viewport to what the other sections leave over.
func (m *Model) layout() {
	if !m.ready {
		return
	}

	m.input.SetWidth(m.width)
	m.help.Width = m.width

	// title, status, help, and the newlines between sections
	used := 1 + 1 + 1 + inputHeight + 4
	if len(m.snapshot.Suggestions) > 0 {
		used += len(m.snapshot.Suggestions) + 2
	}

	height := m.height - used
	if height < 1 {
		height = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = height
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m *Model) renderConversation() string {
	if len(m.snapshot.Turns) == 0 {
		return emptyStyle.Render("Ask a question to get started.")
	}

	width := m.width - 2
	if width < 10 {
		width = 10
	}

	var b strings.Builder
	for i, turn := range m.snapshot.Turns {
		if i > 0 {
			b.WriteString("\n")
		}
		switch {
		case turn.Role == conversation.RoleQuestion:
			b.WriteString(questionLabelStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(questionStyle.Width(width).Render(turn.Content))
		case turn.Pending:
			b.WriteString(answerLabelStyle.Render("Answer"))
			b.WriteString("\n")
			b.WriteString(pendingStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), turn.Content)))
		default:
			b.WriteString(answerLabelStyle.Render("Answer"))
			b.WriteString("\n")
			b.WriteString(m.renderAnswer(turn.Content, width))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderAnswer(content string, width int) string {
	if m.renderer != nil {
		out, err := m.renderer.Render(content)
		if err == nil {
			return strings.TrimRight(out, "\n")
		}
		m.logger.Debug("markdown render failed", zap.Error(err))
	}
	return answerStyle.Width(width).Render(content)
}
