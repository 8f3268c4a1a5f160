// Package tui is the interactive training menu shared by the CLI and the
// SSH server.
package tui

import (
	"context"
	"fmt"
	"strings"

	"signal-forest/internal/ml/tree"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Runner trains one ensemble of the chosen kind.
type Runner func(ctx context.Context, kind tree.Kind) (*Result, error)

type state int

const (
	stateMenu state = iota
	stateRunning
	stateDone
)

type choice struct {
	title string
	kind  tree.Kind
}

var choices = []choice{
	{title: "Bag of decision trees", kind: tree.KindDecision},
	{title: "Bag of random trees", kind: tree.KindRandom},
	{title: "Quit"},
}

type runFinishedMsg struct {
	result *Result
	err    error
}

// Model is the bubbletea model of the menu.
type Model struct {
	ctx     context.Context
	runner  Runner
	title   string
	cursor  int
	state   state
	spinner spinner.Model
	running tree.Kind
	result  *Result
	err     error
	width   int
	height  int
}

func NewModel(ctx context.Context, title string, runner Runner) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = cursorStyle
	return &Model{ctx: ctx, runner: runner, title: title, spinner: s}
}

func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case runFinishedMsg:
		m.state = stateDone
		m.result, m.err = msg.result, msg.err
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case stateMenu:
		switch key {
		case "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(choices)-1 {
				m.cursor++
			}
		case "enter", " ":
			c := choices[m.cursor]
			if c.kind == "" {
				return m, tea.Quit
			}
			return m, m.start(c.kind)
		}
	case stateDone:
		switch key {
		case "q", "esc":
			return m, tea.Quit
		case "enter", "r", "b":
			m.state = stateMenu
			m.result, m.err = nil, nil
		}
	}
	return m, nil
}

func (m *Model) start(kind tree.Kind) tea.Cmd {
	m.state = stateRunning
	m.running = kind
	ctx, runner := m.ctx, m.runner
	run := func() tea.Msg {
		if runner == nil {
			return runFinishedMsg{err: fmt.Errorf("no training runner configured")}
		}
		res, err := runner(ctx, kind)
		return runFinishedMsg{result: res, err: err}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	switch m.state {
	case stateMenu:
		for i, c := range choices {
			if i == m.cursor {
				b.WriteString(cursorStyle.Render("> " + c.title))
			} else {
				b.WriteString("  " + c.title)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("up/down to move, enter to train, q to quit"))
	case stateRunning:
		b.WriteString(fmt.Sprintf("%s Training a bag of %s...", m.spinner.View(), learnerName(m.running)))
	case stateDone:
		if m.err != nil {
			b.WriteString(errStyle.Render("Training failed: " + m.err.Error()))
		} else {
			b.WriteString(RenderReport(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("enter to go back, q to quit"))
	}
	b.WriteString("\n")
	return b.String()
}
