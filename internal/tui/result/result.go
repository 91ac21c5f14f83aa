package result

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"surge/internal/job"
	"surge/internal/tui/styles"
)

type Model struct {
	Result *job.Result
	Err    error

	Width  int
	Height int
}

func NewModel(res *job.Result, err error) Model {
	return Model{Result: res, Err: err}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width = msg.Width
		m.Height = msg.Height
	}
	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}

	if m.Err != nil || m.Result == nil {
		s.WriteString(styles.Title.Render("❌ Run Aborted"))
		s.WriteString("\n\n")
		if m.Err != nil {
			s.WriteString(styles.Error.Render(m.Err.Error()))
		}
		s.WriteString("\n\n")
		s.WriteString(styles.Subtle.Render("Press q to quit"))
		return s.String()
	}

	r := m.Result.Summary
	s.WriteString(styles.Title.Render("📊 Upload Complete: " + m.Result.Prefix))
	s.WriteString("\n\n")

	s.WriteString(styles.Active.Render("Overview"))
	s.WriteString("\n")
	overview := fmt.Sprintf(
		"Files:      %d\nSuccess:    %d\nFailed:     %d\nDuration:   %.2fs\nThroughput: %s\nStability:  %.1f / 100",
		r.TotalFiles, r.Succeeded, r.Failed, r.TotalSeconds,
		styles.Value.Render(fmt.Sprintf("%.2f MB/s", r.ThroughputMBs)),
		r.StabilityScore,
	)
	s.WriteString(styles.Box.Render(overview))
	s.WriteString("\n\n")

	s.WriteString(styles.Active.Render("Write Time (successful writes)"))
	s.WriteString("\n")
	latency := fmt.Sprintf(
		"Avg: %.2f ms\nP50: %.2f ms\nP95: %.2f ms\nP99: %.2f ms\nMax: %.2f ms",
		r.AvgMsPerFile, r.P50MsPerFile, r.P95MsPerFile, r.P99MsPerFile, r.MaxMsPerFile,
	)
	s.WriteString(styles.Box.Render(latency))
	s.WriteString("\n\n")

	path := r.ConcurrencyPath()
	parts := make([]string, len(path))
	for i, c := range path {
		parts[i] = fmt.Sprint(c)
	}
	s.WriteString(styles.Active.Render("Concurrency Path"))
	s.WriteString("\n")
	s.WriteString(styles.Box.Width(max(m.Width-4, 20)).Render(strings.Join(parts, " → ")))

	s.WriteString("\n\n")
	s.WriteString(styles.Subtle.Render("Press q to quit"))
	return s.String()
}
