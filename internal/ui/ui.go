package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/djx/internal/brain"
	"github.com/desertthunder/djx/internal/player"
	"github.com/desertthunder/djx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PromptView ViewState = iota
	WorkingView
	ResultView
)

// Model represents the TUI application state: a prompt for the music
// request, a working spinner while the pipeline runs, and a result view.
type Model struct {
	ctx          context.Context
	orchestrator *tasks.Orchestrator
	view         ViewState
	input        textinput.Model
	spin         spinner.Model
	request      string
	query        brain.ResolvedQuery
	result       *player.Result
	err          error
	help         help.Model
	keys         keyMap
	width        int
}

// NewModel creates the TUI model over the request orchestrator.
func NewModel(ctx context.Context, orchestrator *tasks.Orchestrator) Model {
	input := textinput.New()
	input.Placeholder = `try "dark techno" or "relaxing lo-fi for studying"`
	input.CharLimit = 200
	input.Width = 48
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.ok

	return Model{
		ctx:          ctx,
		orchestrator: orchestrator,
		view:         PromptView,
		input:        input,
		spin:         spin,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// playCmd runs one request through the pipeline off the UI loop.
func (m Model) playCmd(request string) tea.Cmd {
	return func() tea.Msg {
		query, result := m.orchestrator.HandleRequest(m.ctx, request)
		return requestDoneMsg(query, result)
	}
}

// continueCmd queues fresh tracks for the last successful request.
func (m Model) continueCmd() tea.Cmd {
	return func() tea.Msg {
		request, query, result, err := m.orchestrator.HandleContinue(m.ctx)
		return continueDoneMsg(request, query, result, err)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.view != WorkingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case Msg:
		return m.handleOutcome(msg)
	}

	if m.view == PromptView {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}

	switch m.view {
	case PromptView:
		if key.Matches(msg, m.keys.submit) {
			request := strings.TrimSpace(m.input.Value())
			if request == "" {
				return m, nil
			}
			m.request = request
			m.view = WorkingView
			m.err = nil
			m.result = nil
			return m, tea.Batch(m.spin.Tick, m.playCmd(request))
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case ResultView:
		switch {
		case key.Matches(msg, m.keys.again):
			m.view = PromptView
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		case key.Matches(msg, m.keys.moreLike):
			m.view = WorkingView
			return m, tea.Batch(m.spin.Tick, m.continueCmd())
		}
	}

	return m, nil
}

func (m Model) handleOutcome(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRequestDone:
		data := msg.data.(requestOutcome)
		m.query = data.query
		m.result = &data.result
		m.view = ResultView

	case MsgContinueDone:
		data := msg.data.(continueOutcome)
		if data.err != nil {
			m.err = data.err
		} else {
			m.request = data.request
			m.query = data.query
			m.result = &data.result
		}
		m.view = ResultView
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("djx - what do you want to hear?"))
	b.WriteString("\n")

	switch m.view {
	case PromptView:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(m.help.View(m.keys))

	case WorkingView:
		b.WriteString(fmt.Sprintf("%s finding music for %q...\n", m.spin.View(), m.request))

	case ResultView:
		m.renderResult(&b)
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
	}

	return b.String() + "\n"
}

func (m Model) renderResult(b *strings.Builder) {
	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("✗ %v", m.err)))
		b.WriteString("\n")
		return
	}
	if m.result == nil {
		return
	}

	b.WriteString(styles.help.Render(fmt.Sprintf("query: %s (%s)", m.query.SearchTerms, sourceLabel(m.query))))
	b.WriteString("\n\n")

	if m.result.Success() {
		b.WriteString(styles.ok.Render(fmt.Sprintf("♪ Now playing: %s", m.result.Track)))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  Device: %s (%d tracks)\n", m.result.Device, m.result.TrackCount))
		return
	}

	b.WriteString(styles.err.Render("✗ " + m.result.Message))
	b.WriteString("\n")
}

func sourceLabel(query brain.ResolvedQuery) string {
	if query.Fallback() {
		return "keyword fallback"
	}
	return query.SourceModel
}
