package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"surge/internal/controller"
	"surge/internal/tui/components"
	"surge/internal/tui/styles"
)

// BatchMsg carries one completed batch into the model.
type BatchMsg controller.BatchReport

// FailureMsg carries one failed write.
type FailureMsg struct {
	Key string
	Err error
}

// Model shows a running upload: progress, concurrency and throughput
// history, and the most recent failure.
type Model struct {
	Last     controller.BatchReport
	Batches  int
	Failures int
	LastErr  string
	Progress progress.Model

	ConcLine       components.Sparkline
	ThroughputLine components.Sparkline

	StartTime time.Time
	Width     int
	Height    int
}

func NewModel() Model {
	return Model{
		Progress:       progress.New(progress.WithDefaultGradient()),
		ConcLine:       components.NewSparkline(40, "Concurrency", styles.Active),
		ThroughputLine: components.NewSparkline(40, "Batch MB/s", styles.Warn),
		StartTime:      time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case BatchMsg:
		b := controller.BatchReport(msg)
		m.Last = b
		m.Batches++
		m.ConcLine.Add(float64(b.Concurrency))
		m.ThroughputLine.Add(b.ThroughputMBs)

		pct := 0.0
		if b.Total > 0 {
			pct = float64(b.Done) / float64(b.Total)
		}
		return m, m.Progress.SetPercent(pct)

	case FailureMsg:
		m.Failures++
		if msg.Err != nil {
			m.LastErr = fmt.Sprintf("%s: %v", msg.Key, msg.Err)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = max(msg.Width-4, 10)

		half := max(msg.Width/2-6, 10)
		m.ConcLine.Width = half
		m.ThroughputLine.Width = half
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}

	errRate := 0.0
	if m.Last.Done > 0 {
		errRate = float64(m.Failures) / float64(m.Last.Done) * 100
	}
	var errStyle lipgloss.Style
	switch {
	case errRate > 5.0:
		errStyle = styles.Error
	case errRate > 1.0:
		errStyle = styles.Warn
	default:
		errStyle = styles.Active
	}

	col1 := fmt.Sprintf("DONE: %d/%d\nBATCH: %d", m.Last.Done, m.Last.Total, m.Batches)
	col2 := fmt.Sprintf("CONC: %d -> %d\n%s", m.Last.Concurrency, m.Last.NextConcurrency,
		styles.Decision(string(m.Last.Decision)).Render(strings.ToUpper(string(m.Last.Decision))))
	col3 := errStyle.Render(fmt.Sprintf("ERR: %.2f%%\nFAIL: %d", errRate, m.Failures))
	col4 := fmt.Sprintf("MB/s: %.2f\nTIME: %s", m.Last.ThroughputMBs, time.Since(m.StartTime).Round(100*time.Millisecond))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(col2),
		styles.Box.Render(col3),
		styles.Box.Render(col4),
	))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.ConcLine.View()),
		styles.Box.Render(m.ThroughputLine.View()),
	))
	s.WriteString("\n\n")

	if m.LastErr != "" {
		s.WriteString(styles.Error.Render("Last error: " + m.LastErr))
		s.WriteString("\n\n")
	}

	s.WriteString(m.Progress.View())
	return s.String()
}
