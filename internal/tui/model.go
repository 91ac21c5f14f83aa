// Package tui shows an adaptive upload live in the terminal and the result
// when it finishes.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"surge/internal/banner"
	"surge/internal/controller"
	"surge/internal/job"
	"surge/internal/logging"
	"surge/internal/tui/live"
	"surge/internal/tui/result"
	"surge/internal/tui/styles"
)

type state int

const (
	stateRunning state = iota
	stateDone
)

// doneMsg is sent once the run returns.
type doneMsg struct {
	res *job.Result
	err error
}

// bridge forwards controller callbacks into the program's event channel. It
// stops forwarding once ctx is done so a quit TUI never blocks the run.
type bridge struct {
	ctx    context.Context
	events chan<- tea.Msg
}

func (b bridge) send(msg tea.Msg) {
	select {
	case b.events <- msg:
	case <-b.ctx.Done():
	}
}

func (b bridge) BatchDone(r controller.BatchReport) { b.send(live.BatchMsg(r)) }
func (b bridge) WriteFailed(key string, err error)  { b.send(live.FailureMsg{Key: key, Err: err}) }

type Model struct {
	state  state
	req    job.Request
	events <-chan tea.Msg
	cancel context.CancelFunc

	live   live.Model
	result result.Model

	Result *job.Result
	Err    error
	width  int
}

func newModel(req job.Request, events <-chan tea.Msg, cancel context.CancelFunc) Model {
	return Model{
		state:  stateRunning,
		req:    req,
		events: events,
		cancel: cancel,
		live:   live.NewModel(),
	}
}

func waitFor(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func (m Model) Init() tea.Cmd {
	return waitFor(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.state == stateRunning {
				m.cancel()
			}
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		var cmd tea.Cmd
		m.live, cmd = m.live.Update(msg)
		m.result, _ = m.result.Update(msg)
		return m, cmd

	case doneMsg:
		m.state = stateDone
		m.Result, m.Err = msg.res, msg.err
		m.result = result.NewModel(msg.res, msg.err)
		m.result.Width = m.width
		return m, nil

	case live.BatchMsg, live.FailureMsg:
		var cmd tea.Cmd
		m.live, cmd = m.live.Update(msg)
		return m, tea.Batch(cmd, waitFor(m.events))
	}

	var cmd tea.Cmd
	m.live, cmd = m.live.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := lipgloss.JoinVertical(lipgloss.Left,
		banner.GetString(),
		styles.Subtle.Render(fmt.Sprintf("%d files x %d MB", m.req.FileCount, m.req.FileSizeMB)),
	)
	var body string
	if m.state == stateDone {
		body = m.result.View()
	} else {
		body = m.live.View() + "\n\n" + styles.RenderKey("q", "cancel and quit")
	}
	return header + "\n" + body + "\n"
}

// Run executes req with r while rendering it full screen. Quitting before the
// run finishes cancels it.
func Run(ctx context.Context, r *job.Runner, req job.Request) (*job.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tea.Msg, 64)
	b := bridge{ctx: ctx, events: events}
	go func() {
		res, err := r.Run(ctx, req, b)
		b.send(doneMsg{res: res, err: err})
	}()

	logging.SuppressOutput()
	defer logging.RestoreOutput()

	p := tea.NewProgram(newModel(req, events, cancel), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("tui: %w", err)
	}

	m, ok := final.(Model)
	if !ok || m.state != stateDone {
		return nil, context.Canceled
	}
	return m.Result, m.Err
}
