package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surge/internal/controller"
	"surge/internal/job"
	"surge/internal/tui/live"
)

func TestBridge_Forwards(t *testing.T) {
	events := make(chan tea.Msg, 2)
	b := bridge{ctx: context.Background(), events: events}

	b.BatchDone(controller.BatchReport{Index: 3})
	b.WriteFailed("k", errors.New("x"))

	assert.Equal(t, live.BatchMsg{Index: 3}, <-events)
	assert.Equal(t, "k", (<-events).(live.FailureMsg).Key)
}

func TestBridge_DoesNotBlockAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := bridge{ctx: ctx, events: make(chan tea.Msg)}
	cancel()

	done := make(chan struct{})
	go func() {
		b.BatchDone(controller.BatchReport{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send blocked after cancel")
	}
}

func TestModel_Flow(t *testing.T) {
	events := make(chan tea.Msg, 1)
	cancelled := false
	m := newModel(job.Request{FileCount: 8, FileSizeMB: 1}, events, func() { cancelled = true })

	next, cmd := m.Update(live.BatchMsg{Done: 8, Total: 8, Concurrency: 8})
	require.NotNil(t, cmd)
	m = next.(Model)
	assert.Contains(t, m.View(), "DONE: 8/8")

	res := &job.Result{Prefix: "p", Summary: &controller.Summary{TotalFiles: 8, Succeeded: 8}}
	next, _ = m.Update(doneMsg{res: res})
	m = next.(Model)
	assert.Equal(t, stateDone, m.state)
	assert.Same(t, res, m.Result)
	assert.Contains(t, m.View(), "Upload Complete: p")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.False(t, cancelled)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_QuitWhileRunningCancels(t *testing.T) {
	cancelled := false
	m := newModel(job.Request{FileCount: 8, FileSizeMB: 1}, make(chan tea.Msg), func() { cancelled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, cancelled)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
